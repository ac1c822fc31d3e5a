package detector

import (
	"os"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes the model, its labels and how detections are filtered.
type Config struct {
	// ModelPath is the model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// LabelsPath is the label table, one label per line.
	LabelsPath string `json:"labels_path" yaml:"labels_path"`
	// Runtime selects the inference library; empty infers it from ModelPath.
	Runtime inference.Runtime `json:"runtime" yaml:"runtime"`
	// Providers are the accelerators to try in order before falling back to CPU.
	Providers []providers.Provider `json:"providers" yaml:"providers"`
	// ConfidenceThreshold filters detections at or below this score.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// Strict rejects model outputs that are not a whole number of records.
	Strict bool `json:"strict" yaml:"strict"`
	// NMS optionally suppresses overlapping detections; disabled by default.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// InputShape fills dynamic model dimensions, and is required by the opencv runtime.
	InputShape model.Shape `json:"input_shape" yaml:"input_shape"`
	// Threads sets the runtime thread count; 0 uses the runtime default.
	Threads int `json:"threads" yaml:"threads"`
	// XNNPACK enables the XNNPACK delegate for tflite models.
	XNNPACK bool `json:"xnnpack" yaml:"xnnpack"`
	// SharedLibraryPath locates the onnxruntime shared library.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
}

// DefaultConfig returns a configuration with sensible defaults.
//
// Model and label paths have no default and must be set.
//
// Returns:
//   - Config: The default configuration.
//
// @example
// config := DefaultConfig()
// config.ModelPath = "models/detect.tflite"
// config.LabelsPath = "models/labelmap.txt"
// d := New(config)
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: postprocess.DefaultThreshold,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig and validates it.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The loaded configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// ReadConfig reads a YAML configuration file on top of DefaultConfig without validating
// it, so callers can fill in the rest before calling Validate.
func ReadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "error reading config")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "error parsing config %s", path)
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to initialize a detector.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model_path is required")
	}
	if c.LabelsPath == "" {
		return errors.New("labels_path is required")
	}
	if !(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold <= 1) {
		return errors.Errorf("confidence_threshold must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if _, err := inference.ParseRuntime(string(c.Runtime)); err != nil {
		return err
	}
	if c.Runtime == "" && inference.RuntimeFromPath(c.ModelPath) == "" {
		return errors.Errorf("cannot infer runtime from %q, set runtime", c.ModelPath)
	}
	for _, p := range c.Providers {
		if _, err := providers.ParseBackend(string(p.Backend)); err != nil {
			return err
		}
	}
	// Values <= 0 disable suppression; NaN is rejected.
	if !(c.NMS.IoUThreshold <= 1) {
		return errors.Errorf("nms.iou_threshold must be within [0, 1], got %v", c.NMS.IoUThreshold)
	}
	if c.Threads < 0 {
		return errors.Errorf("threads must not be negative, got %d", c.Threads)
	}
	return nil
}

// decodeOptions returns the decoder settings.
func (c Config) decodeOptions() postprocess.Options {
	return postprocess.Options{
		Threshold: c.ConfidenceThreshold,
		Strict:    c.Strict,
	}
}
