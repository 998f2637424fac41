package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrRejectedEvidence = errors.New("rejected evidence")
	ErrStorageFailed    = errors.New("evidence storage failed")
	ErrAmbiguousPlayer  = errors.New("ambiguous player")
	ErrNotFound         = errors.New("not found")
)
