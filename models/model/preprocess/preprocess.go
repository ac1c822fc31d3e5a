// Package preprocess - Turns camera frames into normalized model input tensors.
package preprocess

import (
	"image"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const (
	// normalizeMean and normalizeScale map 8-bit pixel values to roughly [-1, 1].
	normalizeMean  = 127.5
	normalizeScale = 127.5
)

// Preprocessor converts images to the declared input shape of a model.
//
// The pipeline is fixed: color layout normalization, centered square crop, nearest-neighbor
// resize, quarter-turn rotation, then per-channel (v - 127.5) / 127.5.
type Preprocessor struct {
	shape model.Shape
}

// NewPreprocessor creates a preprocessor for the given model input shape.
//
// Arguments:
//   - shape: The model's declared input shape. A zero shape is accepted here and reported
//     by Preprocess, so a preprocessor can be built before the model is loaded.
//
// Returns:
//   - A configured Preprocessor instance.
//
// @example
// p := NewPreprocessor(model.Shape{Channels: 3, Width: 300, Height: 300})
// input, err := p.Preprocess(frame, 90)
func NewPreprocessor(shape model.Shape) *Preprocessor {
	return &Preprocessor{shape: shape}
}

// Shape returns the input shape the preprocessor produces.
func (p *Preprocessor) Shape() model.Shape {
	return p.shape
}

// Preprocess runs the full pipeline on img.
//
// Color values are normalized with straight alpha, so premultiplied *image.RGBA input is
// un-premultiplied first and translucent pixels keep their full color intensity.
//
// Arguments:
//   - img: The source frame in any pixel layout and size.
//   - rotationDegrees: Sensor orientation hint; truncated to whole quarter turns.
//
// Returns:
//   - *tensor.Dense: float32 tensor shaped [height, width, channels].
//   - error: model.ErrUninitializedModel when the shape was never read, or an input error.
func (p *Preprocessor) Preprocess(img image.Image, rotationDegrees int) (*tensor.Dense, error) {
	if p == nil || p.shape.IsZero() {
		return nil, model.ErrUninitializedModel
	}
	if img == nil {
		return nil, errors.New("image is nil")
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	switch p.shape.Channels {
	case 1, 3, 4:
	default:
		return nil, errors.Errorf("unsupported channel count %d", p.shape.Channels)
	}

	turns := images.QuarterTurns(rotationDegrees)

	// An odd number of quarter turns swaps the axes, so resize to the transposed size and
	// let the rotation bring it back to the declared width and height.
	width, height := p.shape.Width, p.shape.Height
	if turns%2 != 0 {
		width, height = height, width
	}

	rgba := images.ToRGBA(img)
	square := images.CropSquare(rgba)
	resized := images.ResizeNearest(square, width, height)
	rotated := images.RotateQuarterTurns(resized, turns)

	data := p.toTensorData(rotated)

	return tensor.New(
		tensor.WithShape(p.shape.Dims()...),
		tensor.WithBacking(data),
	), nil
}

// toTensorData converts the image to normalized HWC float32 values.
func (p *Preprocessor) toTensorData(nrgba *image.NRGBA) []float32 {
	width, height := p.shape.Width, p.shape.Height
	channels := p.shape.Channels
	data := make([]float32, width*height*channels)

	idx := 0
	for y := 0; y < height; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			switch channels {
			case 1:
				// ITU-R BT.601 luma.
				gray := 0.299*float32(px[0]) + 0.587*float32(px[1]) + 0.114*float32(px[2])
				data[idx] = normalize(gray)
			case 3:
				data[idx] = normalize(float32(px[0]))
				data[idx+1] = normalize(float32(px[1]))
				data[idx+2] = normalize(float32(px[2]))
			case 4:
				data[idx] = normalize(float32(px[0]))
				data[idx+1] = normalize(float32(px[1]))
				data[idx+2] = normalize(float32(px[2]))
				data[idx+3] = normalize(float32(px[3]))
			}
			idx += channels
		}
	}

	return data
}

func normalize(v float32) float32 {
	return (v - normalizeMean) / normalizeScale
}
