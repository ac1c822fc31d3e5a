// Package tflite - TensorFlow Lite runtime. Importing the package registers it with
// inference.Open for .tflite models.
package tflite

import (
	"runtime"

	tfl "github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
	"github.com/mattn/go-tflite/delegates/xnnpack"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorgonia.org/tensor"
)

func init() {
	inference.Register(inference.RuntimeTFLite, Open)
}

// tfliteModel runs a model through the TensorFlow Lite interpreter.
type tfliteModel struct {
	model       *tfl.Model
	options     *tfl.InterpreterOptions
	interpreter *tfl.Interpreter
	delegate    delegates.Delegater
	shape       model.Shape
	inputType   tfl.TensorType
}

// Open loads a .tflite model.
//
// The input shape is read from input tensor 0, which must be [1, height, width, channels].
// Float32 and uint8 (quantized) inputs are supported.
//
// Arguments:
//   - cfg: The model configuration.
//
// Returns:
//   - Model: The loaded model.
//   - error: An error if the model could not be loaded or its tensors allocated.
func Open(cfg inference.Config) (inference.Model, error) {
	log := cfg.Log().WithFields(logrus.Fields{
		"model":   cfg.ModelPath,
		"runtime": inference.RuntimeTFLite,
	})

	m := &tfliteModel{}
	m.model = tfl.NewModelFromFile(cfg.ModelPath)
	if m.model == nil {
		return nil, errors.Errorf("failed to load model %s", cfg.ModelPath)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	m.options = tfl.NewInterpreterOptions()
	if m.options == nil {
		m.Close()
		return nil, errors.New("interpreter options failed to be created")
	}
	m.options.SetNumThread(threads)
	m.options.SetErrorReporter(func(msg string, _ interface{}) {
		log.Warn(msg)
	}, nil)

	if cfg.XNNPACK {
		m.delegate = xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(threads)})
		if m.delegate == nil {
			log.Warn("XNNPACK delegate unavailable, falling back to CPU kernels")
		} else {
			m.options.AddDelegate(m.delegate)
		}
	}

	m.interpreter = tfl.NewInterpreter(m.model, m.options)
	if m.interpreter == nil {
		m.Close()
		return nil, errors.New("failed to create interpreter")
	}
	if status := m.interpreter.AllocateTensors(); status != tfl.OK {
		m.Close()
		return nil, errors.New("failed to allocate tensors")
	}

	if m.interpreter.GetInputTensorCount() < 1 || m.interpreter.GetOutputTensorCount() < 1 {
		m.Close()
		return nil, errors.New("model has no input or output tensor")
	}

	input := m.interpreter.GetInputTensor(0)
	if input.NumDims() != 4 {
		m.Close()
		return nil, errors.Errorf("expected 4D input, got %dD", input.NumDims())
	}
	m.shape = model.Shape{
		Height:   input.Dim(1),
		Width:    input.Dim(2),
		Channels: input.Dim(3),
	}
	m.inputType = input.Type()
	if m.inputType != tfl.Float32 && m.inputType != tfl.UInt8 {
		m.Close()
		return nil, errors.Errorf("unsupported input tensor type %s", m.inputType)
	}

	log.WithFields(logrus.Fields{
		"shape":   m.shape.String(),
		"input":   m.inputType.String(),
		"threads": threads,
		"xnnpack": m.delegate != nil,
	}).Info("model loaded")

	return m, nil
}

func (m *tfliteModel) InputShape() model.Shape {
	return m.shape
}

func (m *tfliteModel) Run(input *tensor.Dense) ([]float32, error) {
	if m.interpreter == nil {
		return nil, model.ErrUninitializedModel
	}

	data, err := inference.InputData(input, m.shape)
	if err != nil {
		return nil, err
	}

	in := m.interpreter.GetInputTensor(0)
	switch m.inputType {
	case tfl.UInt8:
		// Quantized models take raw pixel values.
		dst := in.UInt8s()
		for i, v := range data {
			dst[i] = inference.Denormalize(v)
		}
	default:
		copy(in.Float32s(), data)
	}

	if status := m.interpreter.Invoke(); status != tfl.OK {
		return nil, errors.New("invoke failed")
	}

	out := m.interpreter.GetOutputTensor(0)
	switch out.Type() {
	case tfl.Float32:
		values := out.Float32s()
		result := make([]float32, len(values))
		copy(result, values)
		return result, nil
	case tfl.UInt8:
		q := out.QuantizationParams()
		values := out.UInt8s()
		result := make([]float32, len(values))
		for i, v := range values {
			result[i] = float32(q.Scale) * float32(int(v)-q.ZeroPoint)
		}
		return result, nil
	default:
		return nil, errors.Errorf("unsupported output tensor type %s", out.Type())
	}
}

func (m *tfliteModel) Close() error {
	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.options != nil {
		m.options.Delete()
		m.options = nil
	}
	if m.delegate != nil {
		m.delegate.Delete()
		m.delegate = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}
