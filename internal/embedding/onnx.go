//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs an image model (ResNet50-style, NHWC input) with ONNX
// Runtime in process. It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputSize    int
	dimensions   int
	// Run reuses the pre-allocated tensors, so calls are serialized.
	mu sync.Mutex
}

// NewONNXEmbedder loads the model described by opts. The runtime environment
// is initialized on first use.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	if opts.ModelPath == "" {
		return nil, errors.New("onnx model path is required")
	}
	if opts.InputSize <= 0 || opts.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid onnx shape: input_size=%d dimensions=%d", opts.InputSize, opts.Dimensions)
	}
	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	size := int64(opts.InputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.Dimensions)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNXEmbedder{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputSize:    opts.InputSize,
		dimensions:   opts.Dimensions,
	}, nil
}

// Embed decodes and preprocesses image, then runs the model.
func (e *ONNXEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	img, _, err := DecodeImage(image)
	if err != nil {
		return nil, Unavailable(e.Name(), "unreadable image", err)
	}
	input := PreprocessResNet(img, e.inputSize)
	if err := ctx.Err(); err != nil {
		return nil, AsUnavailable(e.Name(), err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.inputTensor.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, Unavailable(e.Name(), "inference failed", err)
	}
	return append([]float32(nil), e.outputTensor.GetData()...), nil
}

// Dimensions returns the model output length.
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Name returns "onnx".
func (e *ONNXEmbedder) Name() string { return "onnx" }

// Close releases the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	if e.session != nil {
		firstErr = e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		if err := e.inputTensor.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		if err := e.outputTensor.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.outputTensor = nil
	}
	return firstErr
}
