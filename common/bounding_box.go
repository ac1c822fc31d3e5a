// Package common - Types shared between the decoder, the detector and the CLI.
package common

import (
	"fmt"
	"image"
)

// Box represents a single detection with its label, confidence, and coordinates.
//
// Coordinates are carried exactly as the model emitted them. They may be normalized to
// [0, 1] or expressed in pixels depending on the model; no conversion or clamping is
// applied.
type Box struct {
	Left   float32 `json:"left"   yaml:"left"`
	Top    float32 `json:"top"    yaml:"top"`
	Right  float32 `json:"right"  yaml:"right"`
	Bottom float32 `json:"bottom" yaml:"bottom"`
	Score  float32 `json:"score"  yaml:"score"`
	Label  string  `json:"label"  yaml:"label"`
}

// String formats the box for logs.
//
// Returns:
//   - A formatted string containing label, score, and coordinates.
//
// @example
// box := Box{Label: "person", Score: 0.95, Left: 100, Top: 100, Right: 200, Bottom: 300}
// fmt.Println(box.String()) // Object person (confidence 0.950000): (100.00, 100.00), (200.00, 300.00)
func (b Box) String() string {
	return fmt.Sprintf("Object %s (confidence %f): (%.2f, %.2f), (%.2f, %.2f)",
		b.Label, b.Score, b.Left, b.Top, b.Right, b.Bottom)
}

// Rect projects the box onto an image of the given size.
//
// When width and height are both positive the coordinates are treated as normalized and
// scaled up; otherwise they are used as pixel coordinates. The result is canonicalized, so
// inverted boxes still produce a valid rectangle.
//
// Arguments:
//   - width: Width of the target image, or 0 for pixel coordinates.
//   - height: Height of the target image, or 0 for pixel coordinates.
//
// Returns:
//   - An image.Rectangle with integer coordinates.
//
// @example
// box := Box{Left: 0.25, Top: 0.25, Right: 0.75, Bottom: 0.75}
// rect := box.Rect(200, 100) // (50,25)-(150,75)
func (b Box) Rect(width, height int) image.Rectangle {
	sx, sy := float32(1), float32(1)
	if width > 0 && height > 0 {
		sx, sy = float32(width), float32(height)
	}
	return image.Rect(
		int(b.Left*sx), int(b.Top*sy),
		int(b.Right*sx), int(b.Bottom*sy),
	).Canon()
}

// Width returns the horizontal extent of the box in model units.
func (b Box) Width() float32 {
	return b.Right - b.Left
}

// Height returns the vertical extent of the box in model units.
func (b Box) Height() float32 {
	return b.Bottom - b.Top
}

// IoU returns the intersection over union of two boxes, 0 when they do not overlap or
// either box is empty.
func (b Box) IoU(o Box) float32 {
	// The intersection spans the larger of the starting and the smaller of the ending
	// coordinates.
	interW := min(b.Right, o.Right) - max(b.Left, o.Left)
	interH := min(b.Bottom, o.Bottom) - max(b.Top, o.Top)
	if interW <= 0 || interH <= 0 {
		return 0
	}
	inter := interW * interH

	union := b.Width()*b.Height() + o.Width()*o.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
