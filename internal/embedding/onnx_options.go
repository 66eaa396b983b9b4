package embedding

// ONNXOptions configures the in-process ONNX embedder.
type ONNXOptions struct {
	ModelPath string
	// LibraryPath points at the onnxruntime shared library; empty uses the
	// platform default lookup.
	LibraryPath string
	InputName   string
	OutputName  string
	// InputSize is the square input edge in pixels (224 for ResNet50).
	InputSize  int
	Dimensions int
}
