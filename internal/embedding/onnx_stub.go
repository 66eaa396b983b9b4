//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXEmbedder stub type when built without CGO (see onnx.go for real implementation).
type ONNXEmbedder struct{}

// NewONNXEmbedder returns an error when built without CGO (ONNX not available).
func NewONNXEmbedder(_ ONNXOptions) (*ONNXEmbedder, error) {
	return nil, errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Embed always fails in non-cgo builds.
func (e *ONNXEmbedder) Embed(_ context.Context, _ []byte) ([]float32, error) {
	return nil, Unavailable(e.Name(), "ONNX support not compiled in", nil)
}

// Dimensions returns 0.
func (e *ONNXEmbedder) Dimensions() int { return 0 }

// Name returns "onnx".
func (e *ONNXEmbedder) Name() string { return "onnx" }

// Close is a no-op.
func (e *ONNXEmbedder) Close() error { return nil }
