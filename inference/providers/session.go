// Package providers - Session options.
package providers

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// SessionConfig controls the ONNX Runtime session options.
type SessionConfig struct {
	// Threads sets intra-op parallelism; 0 lets ONNX Runtime decide.
	Threads int `json:"threads" yaml:"threads"`
	// Providers are attached in order before the CPU fallback.
	Providers []Provider `json:"providers" yaml:"providers"`
}

// NewSessionOptions creates session options with extended graph optimizations and the
// configured execution providers attached.
//
// The runtime environment must already be initialized. The caller owns the returned
// options and must Destroy them once the session is created.
//
// Arguments:
//   - cfg: The session configuration.
//   - log: Logger for provider fallback.
//
// Returns:
//   - *ort.SessionOptions: The configured options.
//   - []Backend: The backends that were attached.
//   - error: An error if the options could not be created.
func NewSessionOptions(cfg SessionConfig, log logrus.FieldLogger) (*ort.SessionOptions, []Backend, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating ORT session options")
	}

	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			options.Destroy()
			return nil, nil, errors.Wrap(err, "error setting intra-op threads")
		}
	}
	// Fusion and constant folding; safe for every provider.
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		options.Destroy()
		return nil, nil, errors.Wrap(err, "error setting graph optimization level")
	}

	attached := Apply(options, cfg.Providers, log)
	return options, attached, nil
}
