package inference

import (
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Layout is the memory order a runtime expects for a 4D image input.
type Layout int

const (
	// LayoutNHWC is [batch, height, width, channels], the TensorFlow order.
	LayoutNHWC Layout = iota
	// LayoutNCHW is [batch, channels, height, width], the PyTorch/ONNX order.
	LayoutNCHW
)

func (l Layout) String() string {
	if l == LayoutNCHW {
		return "NCHW"
	}
	return "NHWC"
}

// Dims returns the 4D batch-of-one dimensions of shape in this layout.
func (l Layout) Dims(shape model.Shape) []int64 {
	c, h, w := int64(shape.Channels), int64(shape.Height), int64(shape.Width)
	if l == LayoutNCHW {
		return []int64{1, c, h, w}
	}
	return []int64{1, h, w, c}
}

// ShapeFromDims reads the image input shape from declared 4D tensor dimensions.
//
// A last dimension of 1, 3 or 4 is taken as channels (NHWC); anything else is read as NCHW.
// Dynamic dimensions (zero or negative) are filled from fallback.
//
// Arguments:
//   - dims: The declared input dimensions.
//   - fallback: The shape used for dynamic dimensions.
//
// Returns:
//   - model.Shape: The resolved input shape.
//   - Layout: The detected layout.
//   - error: An error when dims is not 4D or a dynamic dimension has no fallback.
//
// @example
// shape, layout, err := ShapeFromDims([]int64{1, 3, 640, 640}, model.Shape{})
// // shape = 640x640x3, layout = LayoutNCHW
func ShapeFromDims(dims []int64, fallback model.Shape) (model.Shape, Layout, error) {
	if len(dims) != 4 {
		return model.Shape{}, LayoutNHWC, errors.Errorf("expected 4D input, got %dD %v", len(dims), dims)
	}

	layout := LayoutNCHW
	switch dims[3] {
	case 1, 3, 4:
		layout = LayoutNHWC
	}

	var c, h, w int64
	if layout == LayoutNHWC {
		h, w, c = dims[1], dims[2], dims[3]
	} else {
		c, h, w = dims[1], dims[2], dims[3]
	}

	shape := model.Shape{
		Channels: pick(c, fallback.Channels),
		Width:    pick(w, fallback.Width),
		Height:   pick(h, fallback.Height),
	}
	if shape.IsZero() {
		return model.Shape{}, layout, errors.Errorf(
			"input %v has dynamic dimensions and no input shape is configured", dims)
	}

	return shape, layout, nil
}

func pick(declared int64, fallback int) int {
	if declared > 0 {
		return int(declared)
	}
	return fallback
}

// InputData checks that input matches shape and returns its HWC backing slice.
func InputData(input *tensor.Dense, shape model.Shape) ([]float32, error) {
	if input == nil {
		return nil, errors.New("input tensor is nil")
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("input tensor must be float32, got %v", input.Dtype())
	}
	if len(data) != shape.Size() {
		return nil, errors.Errorf("input tensor has %d values, model %s expects %d",
			len(data), shape, shape.Size())
	}
	return data, nil
}

// HWCToCHW transposes [height, width, channels] data into planar [channels, height, width].
func HWCToCHW(src []float32, shape model.Shape) []float32 {
	c, h, w := shape.Channels, shape.Height, shape.Width
	plane := h * w
	dst := make([]float32, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixel := (y*w + x) * c
			for ch := 0; ch < c; ch++ {
				dst[ch*plane+y*w+x] = src[pixel+ch]
			}
		}
	}
	return dst
}

// Denormalize maps a normalized value back to an 8-bit pixel, saturating at the ends. It
// inverts the preprocessing normalization for runtimes that take raw pixels.
func Denormalize(v float32) uint8 {
	p := v*127.5 + 127.5 + 0.5
	switch {
	case p <= 0:
		return 0
	case p >= 255:
		return 255
	default:
		return uint8(p)
	}
}
