// Package inference - Inference runtimes that execute a loaded model on a preprocessed tensor.
package inference

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Runtime is the library a model is executed with.
type Runtime string

const (
	// RuntimeONNX executes .onnx models with onnxruntime.
	RuntimeONNX Runtime = "onnx"
	// RuntimeTFLite executes .tflite models with the TensorFlow Lite C API.
	RuntimeTFLite Runtime = "tflite"
	// RuntimeOpenCV executes models with the OpenCV DNN module.
	RuntimeOpenCV Runtime = "opencv"
)

// Runtimes is a list of all supported runtimes.
var Runtimes = []Runtime{RuntimeONNX, RuntimeTFLite, RuntimeOpenCV}

// ParseRuntime resolves a case-insensitive runtime name. An empty name is returned as is
// so the runtime can later be inferred from the model path.
func ParseRuntime(name string) (Runtime, error) {
	want := Runtime(strings.ToLower(strings.TrimSpace(name)))
	if want == "" {
		return "", nil
	}
	for _, r := range Runtimes {
		if r == want {
			return r, nil
		}
	}
	return "", errors.Errorf("unknown runtime %q", name)
}

// RuntimeFromPath guesses the runtime from the model file extension.
//
// Arguments:
//   - path: The model file path.
//
// Returns:
//   - Runtime: The guessed runtime, or "" when the extension is not recognized.
//
// @example
// RuntimeFromPath("models/ssd_mobilenet.tflite") // RuntimeTFLite
func RuntimeFromPath(path string) Runtime {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx", ".ort":
		return RuntimeONNX
	case ".tflite", ".lite":
		return RuntimeTFLite
	case ".pb", ".caffemodel", ".weights", ".t7", ".net":
		return RuntimeOpenCV
	default:
		return ""
	}
}
