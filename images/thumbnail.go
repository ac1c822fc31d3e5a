package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Thumbnail downsizes img to fit within maxWidth x maxHeight, keeping its aspect ratio.
//
// Images that already fit are returned unchanged. A zero bound leaves that dimension
// unconstrained.
func Thumbnail(img image.Image, maxWidth, maxHeight uint) image.Image {
	b := img.Bounds()
	if maxWidth == 0 {
		maxWidth = uint(b.Dx())
	}
	if maxHeight == 0 {
		maxHeight = uint(b.Dy())
	}
	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
}
