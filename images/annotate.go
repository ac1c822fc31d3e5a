package images

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/nvr-ai/go-detect/common"
)

// AnnotateOptions controls how detections are drawn.
type AnnotateOptions struct {
	// Normalized treats box coordinates as fractions of the image size.
	Normalized bool
	// LineWidth is the stroke width in pixels.
	LineWidth float64
	// Color is the stroke and label color.
	Color color.Color
}

// DefaultAnnotateOptions draws 2px green boxes in pixel coordinates.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		LineWidth: 2,
		Color:     color.RGBA{R: 0, G: 255, B: 0, A: 255},
	}
}

// Annotate draws each box and its label onto a copy of img.
//
// Arguments:
//   - img: The image the detections were computed for.
//   - boxes: Detections to draw.
//   - opts: Drawing options.
//
// Returns:
//   - image.Image: A new image with the boxes drawn; img is not modified.
func Annotate(img image.Image, boxes []common.Box, opts AnnotateOptions) image.Image {
	dc := gg.NewContextForImage(img)
	if opts.Color == nil {
		opts.Color = DefaultAnnotateOptions().Color
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = DefaultAnnotateOptions().LineWidth
	}
	dc.SetColor(opts.Color)
	dc.SetLineWidth(opts.LineWidth)

	w, h := 0, 0
	if opts.Normalized {
		w, h = dc.Width(), dc.Height()
	}

	for _, box := range boxes {
		r := box.Rect(w, h)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
		dc.DrawString(fmt.Sprintf("%s %.2f", box.Label, box.Score), float64(r.Min.X)+2, float64(r.Min.Y)+12)
	}

	return dc.Image()
}
