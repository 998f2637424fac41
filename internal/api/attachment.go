package api

import (
	"context"
	"errors"
	"fmt"
	"pb-tracker/internal/constants"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var (
	ErrEmptyAttachment   = errors.New("attachment is empty")
	ErrAttachmentTooBig  = errors.New("attachment exceeds size limit")
	ErrAttachmentRequest = errors.New("attachment request failed")
)

// AttachmentClient downloads evidence that was handed to us as a URL.
type AttachmentClient struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAttachmentClient(logger zerolog.Logger) *AttachmentClient {
	return &AttachmentClient{
		client: &fasthttp.Client{
			Name:                "pb-tracker",
			MaxConnsPerHost:     20,
			ReadTimeout:         constants.AttachmentFetchTimeout,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
			MaxResponseBodySize: constants.MaxEvidenceBytes,
		},
		timeout: constants.AttachmentFetchTimeout,
		logger:  logger,
	}
}

// Fetch returns the body of url. Requests without a deadline on ctx get the
// default attachment timeout.
func (c *AttachmentClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, _ := ctx.Deadline()
	start := time.Now()
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrBodyTooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentTooBig, url)
		}
		return nil, fmt.Errorf("%w: %w", ErrAttachmentRequest, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAttachmentRequest, resp.StatusCode())
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, ErrEmptyAttachment
	}
	if len(body) > constants.MaxEvidenceBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooBig, len(body))
	}

	// resp is released on return, so the body has to be copied out
	data := make([]byte, len(body))
	copy(data, body)

	c.logger.Debug().
		Str("url", url).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("attachment fetched")
	return data, nil
}
