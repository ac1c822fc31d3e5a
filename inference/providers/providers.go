package providers

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// SessionOptions is the part of *ort.SessionOptions used to attach execution providers.
type SessionOptions interface {
	AppendExecutionProviderCUDA(options *ort.CUDAProviderOptions) error
	AppendExecutionProviderCoreML(flags uint32) error
	AppendExecutionProviderOpenVINO(options map[string]string) error
}

var _ SessionOptions = (*ort.SessionOptions)(nil)

// Apply attaches the requested providers to options in list order.
//
// A provider that fails to attach is logged at warn level and skipped. ONNX Runtime places
// any node no attached provider claims on the CPU, so CPU is always the last resort and
// never needs to be requested explicitly.
//
// Arguments:
//   - options: The session options to attach providers to.
//   - list: The providers in order of preference.
//   - log: Logger for skipped providers; nil uses the standard logger.
//
// Returns:
//   - []Backend: The backends that were attached, in order. CPU is always the last entry.
func Apply(options SessionOptions, list []Provider, log logrus.FieldLogger) []Backend {
	if log == nil {
		log = logrus.StandardLogger()
	}

	attached := make([]Backend, 0, len(list)+1)
	for _, p := range list {
		if p.Backend == CPUBackend {
			continue
		}
		if err := attach(options, p); err != nil {
			log.WithFields(logrus.Fields{
				"provider": p.Backend,
			}).WithError(err).Warn("execution provider unavailable, falling back")
			continue
		}
		log.WithField("provider", p.Backend).Debug("execution provider attached")
		attached = append(attached, p.Backend)
	}

	return append(attached, CPUBackend)
}

func attach(options SessionOptions, p Provider) error {
	switch p.Backend {
	case CUDABackend:
		var o CUDAOptions
		if p.CUDA != nil {
			o = *p.CUDA
		}
		return appendCUDA(options, o)
	case CoreMLBackend:
		var o CoreMLOptions
		if p.CoreML != nil {
			o = *p.CoreML
		}
		return options.AppendExecutionProviderCoreML(o.flags())
	case OpenVINOBackend:
		var o OpenVINOOptions
		if p.OpenVINO != nil {
			o = *p.OpenVINO
		}
		return options.AppendExecutionProviderOpenVINO(o.settings())
	default:
		return errors.Errorf("unsupported execution provider: %s", p.Backend)
	}
}
