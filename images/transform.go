// Package images - Image operations used to turn camera frames into model input.
package images

import (
	"image"

	"github.com/disintegration/imaging"
)

// ToRGBA normalizes the pixel layout of img to 8-bit-per-channel RGBA.
//
// Images that already use *image.RGBA or *image.NRGBA are returned unchanged; any other
// layout (YCbCr, Gray, Paletted, 16-bit...) is copied into an *image.NRGBA. The copy is lossy
// for wider formats. Premultiplied *image.RGBA pixels are converted to straight alpha later,
// by CropSquare.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - An image with a 32-bit-per-pixel layout.
func ToRGBA(img image.Image) image.Image {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		return img
	default:
		return imaging.Clone(img)
	}
}

// CropSquare center-crops img to a square whose side is the shorter image dimension.
//
// The result uses straight (non-premultiplied) alpha: translucent *image.RGBA pixels have
// their color divided by alpha, e.g. RGBA{64, 32, 16, 128} becomes NRGBA{127, 63, 31, 128}.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - *image.NRGBA: The square crop with bounds starting at (0, 0).
//
// @example
// square := CropSquare(frame) // 1920x1080 -> 1080x1080
func CropSquare(img image.Image) *image.NRGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	return imaging.CropCenter(img, side, side)
}

// ResizeNearest scales img to width x height with nearest-neighbor sampling.
//
// No smoothing is applied; every output pixel is a copy of exactly one source pixel.
func ResizeNearest(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.NearestNeighbor)
}

// QuarterTurns converts a rotation hint in degrees into a number of quarter turns.
//
// The hint is divided by 90 with Go's truncating integer division, so 45 yields 0, 135 yields
// 1 and -90 yields -1.
func QuarterTurns(degrees int) int {
	return degrees / 90
}

// RotateQuarterTurns rotates img counter-clockwise by turns * 90 degrees.
//
// Negative turns rotate clockwise. Turns are reduced modulo 4, and zero turns return img as is.
//
// Arguments:
//   - img: The source image.
//   - turns: Number of counter-clockwise quarter turns.
//
// Returns:
//   - *image.NRGBA: The rotated image.
func RotateQuarterTurns(img *image.NRGBA, turns int) *image.NRGBA {
	switch ((turns % 4) + 4) % 4 {
	case 1:
		return imaging.Rotate90(img)
	case 2:
		return imaging.Rotate180(img)
	case 3:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
