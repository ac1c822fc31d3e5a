// Package providers - CPU based execution provider.
package providers

const (
	// CPUBackend is the default ONNX Runtime provider. It is always present and needs no
	// registration, so it also serves as the fallback when every other provider fails.
	CPUBackend Backend = "cpu"
)
