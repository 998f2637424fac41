package constants

import "time"

const (
	AttachmentFetchTimeout = 15 * time.Second
	DatabaseTimeout        = 5 * time.Second
	RequestTimeout         = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
	PlayerSearchLimit       = 5
	MaxHistoryLimit         = 50
)

const (
	// 25 MiB, the largest attachment a chat client will hand us
	MaxEvidenceBytes = 25 << 20
	EvidenceDirPerm  = 0o755
	EvidenceFilePerm = 0o644
	EvidenceIDLength = 8
)
