package inference

import (
	"sync"

	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorgonia.org/tensor"
)

// Model is a loaded model that turns one input tensor into one flat output buffer.
//
// Implementations are not safe for concurrent use; callers serialize Run.
type Model interface {
	// InputShape returns the declared input shape read when the model was opened.
	InputShape() model.Shape
	// Run executes the model. The input is a float32 tensor shaped [height, width, channels]
	// and the result is output tensor 0 flattened in row-major order.
	Run(input *tensor.Dense) ([]float32, error)
	// Close releases the native resources held by the model.
	Close() error
}

// Opener loads a model described by cfg.
type Opener func(cfg Config) (Model, error)

// Config describes the model file and how to run it.
type Config struct {
	// ModelPath is the model file on disk.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// Runtime selects the library; empty infers it from the ModelPath extension.
	Runtime Runtime `json:"runtime" yaml:"runtime"`
	// Providers are the ONNX Runtime execution providers to try in order. OpenCV maps cuda
	// and openvino to its own backends; TensorFlow Lite ignores them.
	Providers []providers.Provider `json:"providers" yaml:"providers"`
	// InputShape is used for dimensions the model leaves dynamic, and as the full input
	// shape for OpenCV which cannot report it.
	InputShape model.Shape `json:"input_shape" yaml:"input_shape"`
	// Threads sets the runtime thread count; 0 uses the runtime default.
	Threads int `json:"threads" yaml:"threads"`
	// XNNPACK enables the XNNPACK delegate for TensorFlow Lite.
	XNNPACK bool `json:"xnnpack" yaml:"xnnpack"`
	// SharedLibraryPath locates the onnxruntime shared library.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// Logger receives load and fallback messages. Nil uses the standard logger.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
}

// Log returns the configured logger or the standard logger.
func (c Config) Log() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// runtime returns the configured runtime, falling back to the model extension.
func (c Config) runtime() Runtime {
	if c.Runtime != "" {
		return c.Runtime
	}
	return RuntimeFromPath(c.ModelPath)
}

// openers holds the runtimes linked into the binary. onnx is built in; the tflite and opencv
// subpackages register themselves when imported.
var (
	openersMu sync.RWMutex
	openers   = map[Runtime]Opener{
		RuntimeONNX: OpenONNX,
	}
)

// Register installs the opener for a runtime, replacing any existing one.
func Register(runtime Runtime, opener Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[runtime] = opener
}

// Open loads the model with the runtime cfg selects.
//
// Arguments:
//   - cfg: The model configuration.
//
// Returns:
//   - Model: The loaded model; the caller must Close it.
//   - error: An error if the runtime is unknown or the model could not be loaded.
//
// @example
// m, err := inference.Open(inference.Config{ModelPath: "detect.tflite"})
// defer m.Close()
func Open(cfg Config) (Model, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}

	rt := cfg.runtime()
	if rt == "" {
		return nil, errors.Errorf("cannot infer runtime for %q, set it explicitly", cfg.ModelPath)
	}

	openersMu.RLock()
	opener, ok := openers[rt]
	openersMu.RUnlock()
	if !ok {
		if _, err := ParseRuntime(string(rt)); err == nil {
			return nil, errors.Errorf("runtime %q is not built into this binary", rt)
		}
		return nil, errors.Errorf("unsupported runtime %q", rt)
	}

	cfg.Runtime = rt
	return opener(cfg)
}
