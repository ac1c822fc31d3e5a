// Package opencv - OpenCV DNN runtime. Importing the package registers it with
// inference.Open for the model formats OpenCV reads.
package opencv

import (
	"os"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

func init() {
	inference.Register(inference.RuntimeOpenCV, Open)
}

// opencvModel runs a model through the OpenCV DNN module using gocv.ReadNet().
type opencvModel struct {
	net    gocv.Net
	shape  model.Shape
	closed bool
}

// netTarget maps the first requested execution provider OpenCV supports to a DNN backend
// and target. Anything else runs on the OpenCV CPU backend.
func netTarget(list []providers.Provider) (gocv.NetBackendType, gocv.NetTargetType, providers.Backend) {
	for _, p := range list {
		switch p.Backend {
		case providers.CUDABackend:
			return gocv.NetBackendCUDA, gocv.NetTargetCUDA, providers.CUDABackend
		case providers.OpenVINOBackend:
			return gocv.NetBackendOpenVINO, gocv.NetTargetCPU, providers.OpenVINOBackend
		}
	}
	return gocv.NetBackendOpenCV, gocv.NetTargetCPU, providers.CPUBackend
}

// Open loads a model with gocv.ReadNet.
//
// OpenCV does not report input shapes, so cfg.InputShape is required. The network receives
// an NCHW blob.
//
// Arguments:
//   - cfg: The model configuration.
//
// Returns:
//   - Model: The loaded model.
//   - error: An error if the input shape is missing or the model could not be read.
func Open(cfg inference.Config) (inference.Model, error) {
	log := cfg.Log().WithFields(logrus.Fields{
		"model":   cfg.ModelPath,
		"runtime": inference.RuntimeOpenCV,
	})

	if cfg.InputShape.IsZero() {
		return nil, errors.New("opencv runtime requires an input shape")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrap(err, "error reading model")
	}

	net := gocv.ReadNet(cfg.ModelPath, "")
	if net.Empty() {
		return nil, errors.Errorf("failed to load model: %s", cfg.ModelPath)
	}

	used, err := selectTarget(&net, cfg.Providers, log)
	if err != nil {
		net.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"shape":    cfg.InputShape.String(),
		"provider": used,
	}).Info("model loaded")

	return &opencvModel{net: net, shape: cfg.InputShape}, nil
}

// selectTarget applies the backend and target netTarget picks, falling back to the OpenCV CPU
// backend when the requested one is unavailable. It fails only when the CPU fallback does.
func selectTarget(net *gocv.Net, list []providers.Provider, log logrus.FieldLogger) (providers.Backend, error) {
	backend, target, used := netTarget(list)

	err := net.SetPreferableBackend(backend)
	if err == nil {
		if err = net.SetPreferableTarget(target); err == nil {
			return used, nil
		}
	}
	log.WithError(err).WithField("provider", used).Warn("backend unavailable, falling back to CPU")

	if err := net.SetPreferableBackend(gocv.NetBackendOpenCV); err != nil {
		return "", errors.Wrap(err, "error selecting the CPU backend")
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return "", errors.Wrap(err, "error selecting the CPU target")
	}
	return providers.CPUBackend, nil
}

func (m *opencvModel) InputShape() model.Shape {
	return m.shape
}

func (m *opencvModel) Run(input *tensor.Dense) ([]float32, error) {
	if m.closed {
		return nil, model.ErrUninitializedModel
	}

	data, err := inference.InputData(input, m.shape)
	if err != nil {
		return nil, err
	}

	sizes := []int{1, m.shape.Channels, m.shape.Height, m.shape.Width}
	blob := gocv.NewMatWithSizes(sizes, gocv.MatTypeCV32F)
	defer blob.Close()

	dst, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "error accessing input blob")
	}
	copy(dst, inference.HWCToCHW(data, m.shape))

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("forward pass produced no output")
	}

	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "error reading output blob")
	}
	result := make([]float32, len(values))
	copy(result, values)
	return result, nil
}

func (m *opencvModel) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.net.Close(); err != nil {
		return errors.Wrap(err, "error closing net")
	}
	return nil
}
