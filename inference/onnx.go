package inference

import (
	"os"
	"sync"

	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// onnxEnvMu guards the process-wide onnxruntime environment.
var onnxEnvMu sync.Mutex

// onnxModel runs a model through an onnxruntime DynamicAdvancedSession. Input and output
// tensors are created per call.
type onnxModel struct {
	session *ort.DynamicAdvancedSession
	shape   model.Shape
	layout  Layout
	log     logrus.FieldLogger
}

// initONNXEnvironment loads the shared library once per process.
func initONNXEnvironment(libPath string) error {
	onnxEnvMu.Lock()
	defer onnxEnvMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	libPath, err := providers.ResolveSharedLibPath(libPath)
	if err != nil {
		return err
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// OpenONNX loads an .onnx model.
//
// The input shape and layout are read from the model's first input. The configured execution
// providers are attached in order, falling back to CPU.
//
// Arguments:
//   - cfg: The model configuration.
//
// Returns:
//   - Model: The loaded model.
//   - error: An error if the runtime, the model or the session could not be initialized.
func OpenONNX(cfg Config) (Model, error) {
	log := cfg.Log().WithFields(logrus.Fields{
		"model":   cfg.ModelPath,
		"runtime": RuntimeONNX,
	})

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrap(err, "error reading model")
	}
	if err := initONNXEnvironment(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading model inputs and outputs")
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.Errorf("model has %d inputs and %d outputs, need at least one of each",
			len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return nil, errors.Errorf("input %q is %s, only float32 inputs are supported", in.Name, in.DataType)
	}

	shape, layout, err := ShapeFromDims(in.Dimensions, cfg.InputShape)
	if err != nil {
		return nil, err
	}

	options, attached, err := providers.NewSessionOptions(providers.SessionConfig{
		Threads:   cfg.Threads,
		Providers: cfg.Providers,
	}, log)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{in.Name},
		[]string{out.Name},
		options,
	)
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	log.WithFields(logrus.Fields{
		"input":     in.Name,
		"output":    out.Name,
		"shape":     shape.String(),
		"layout":    layout.String(),
		"providers": attached,
	}).Info("model loaded")

	return &onnxModel{
		session: session,
		shape:   shape,
		layout:  layout,
		log:     log,
	}, nil
}

func (m *onnxModel) InputShape() model.Shape {
	return m.shape
}

func (m *onnxModel) Run(input *tensor.Dense) ([]float32, error) {
	if m.session == nil {
		return nil, model.ErrUninitializedModel
	}

	data, err := InputData(input, m.shape)
	if err != nil {
		return nil, err
	}
	if m.layout == LayoutNCHW {
		data = HWCToCHW(data, m.shape)
	}

	in, err := ort.NewTensor(ort.NewShape(m.layout.Dims(m.shape)...), data)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("unexpected output type %T", outputs[0])
	}

	// The output memory is freed with the tensor.
	values := out.GetData()
	result := make([]float32, len(values))
	copy(result, values)
	return result, nil
}

func (m *onnxModel) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}
