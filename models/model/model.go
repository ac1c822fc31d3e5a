// Package model - Model descriptors shared by the preprocessor and the inference backends.
package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUninitializedModel is returned when a model-dependent operation runs before the model
// was loaded and its input shape read.
var ErrUninitializedModel = errors.New("model is not initialized")

// Shape describes the declared input tensor of a loaded model.
//
// The zero value means the shape has not been read yet.
type Shape struct {
	// Channels is the number of color channels (1, 3 or 4).
	Channels int `json:"channels" yaml:"channels"`
	// Width is the input width in pixels.
	Width int `json:"width" yaml:"width"`
	// Height is the input height in pixels.
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether the shape has not been populated.
func (s Shape) IsZero() bool {
	return s.Channels <= 0 || s.Width <= 0 || s.Height <= 0
}

// Size returns the number of values a tensor of this shape holds.
func (s Shape) Size() int {
	if s.IsZero() {
		return 0
	}
	return s.Channels * s.Width * s.Height
}

// Dims returns the shape as [height, width, channels].
func (s Shape) Dims() []int {
	return []int{s.Height, s.Width, s.Channels}
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels)
}
