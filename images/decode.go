package images

import (
	"bytes"
	"image"
	// Register decoders used by image.Decode.
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants as reported by image.Decode.
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
)

// Decode decodes an encoded image.
//
// Arguments:
//   - data: Encoded JPEG, PNG, BMP or WebP bytes.
//
// Returns:
//   - image.Image: The decoded image.
//   - ImageFormat: The detected format.
//   - error: An error if the data cannot be decoded.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", errors.New("image data is empty")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	return img, ImageFormat(format), nil
}

// Load reads and decodes the image at path.
func Load(path string) (image.Image, ImageFormat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read image %s", path)
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, "", errors.Wrapf(err, "load %s", path)
	}
	return img, format, nil
}
