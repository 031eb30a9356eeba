package llm

import (
	"context"
	"errors"
	"fmt"
)

// Image is an inline image attached to a request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is a single prompt sent to the model, optionally with an image.
type Request struct {
	Prompt string
	Image  *Image
}

// Client abstracts the generative AI provider used by the analyzer.
// Implementations must be safe for concurrent use and must make at most one
// outbound call per Generate.
type Client interface {
	// Generate returns the model's free-text reply. Any failure is reported
	// as an *UnavailableError.
	Generate(ctx context.Context, req Request) (string, error)
	// SourceName returns a short provider label for logs and metrics.
	SourceName() string
}

// UnavailableError reports that the AI provider could not produce a usable answer.
type UnavailableError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *UnavailableError) Error() string {
	msg := "ai unavailable"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an *UnavailableError with the given reason.
func Unavailable(reason string, err error) error {
	return &UnavailableError{Reason: reason, Err: err}
}

// IsUnavailable reports whether err is or wraps an *UnavailableError.
func IsUnavailable(err error) bool {
	var uerr *UnavailableError
	return errors.As(err, &uerr)
}
