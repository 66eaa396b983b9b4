// Package embedding turns image bytes into embedding vectors. Backends run an
// external process, call a remote inference service, or run an ONNX model in
// process; decorators add caching and a concurrency bound.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces an embedding for an encoded image.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
	// Dimensions returns the embedding length, or 0 when the backend cannot
	// know it before the first call.
	Dimensions() int
	Name() string
	Close() error
}

// UnavailableError reports that no embedding could be produced for a request:
// the backend failed, returned malformed output, or timed out. Callers may
// retry or resubmit.
type UnavailableError struct {
	Backend string
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("embedding unavailable (%s): %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable builds an *UnavailableError.
func Unavailable(backend, reason string, err error) error {
	return &UnavailableError{Backend: backend, Reason: reason, Err: err}
}

// AsUnavailable returns err unchanged when it already is an
// *UnavailableError and wraps it otherwise. nil stays nil.
func AsUnavailable(backend string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	reason := "embedder failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "embedder timed out"
	case errors.Is(err, context.Canceled):
		reason = "request cancelled"
	}
	return Unavailable(backend, reason, err)
}
