package common

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBoxString verifies that box string formatting works correctly.
func TestBoxString(t *testing.T) {
	tests := []struct {
		name     string
		box      Box
		expected string
	}{
		{
			name: "person detection with high confidence",
			box: Box{
				Label:  "person",
				Score:  0.95,
				Left:   100.123,
				Top:    200.456,
				Right:  300.789,
				Bottom: 400.012,
			},
			expected: "Object person (confidence 0.950000): (100.12, 200.46), (300.79, 400.01)",
		},
		{
			name: "negative coordinates pass through",
			box: Box{
				Label:  "bicycle",
				Score:  0.001,
				Left:   -10,
				Top:    -10,
				Right:  10,
				Bottom: 10,
			},
			expected: "Object bicycle (confidence 0.001000): (-10.00, -10.00), (10.00, 10.00)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.box.String())
		})
	}
}

// TestBoxRect verifies projection of normalized and pixel boxes onto an image.
func TestBoxRect(t *testing.T) {
	tests := []struct {
		name          string
		box           Box
		width, height int
		expected      image.Rectangle
	}{
		{
			name:     "normalized coordinates are scaled",
			box:      Box{Left: 0.25, Top: 0.25, Right: 0.75, Bottom: 0.75},
			width:    200,
			height:   100,
			expected: image.Rect(50, 25, 150, 75),
		},
		{
			name:     "pixel coordinates are kept",
			box:      Box{Left: 10, Top: 20, Right: 30, Bottom: 40},
			expected: image.Rect(10, 20, 30, 40),
		},
		{
			name:     "inverted box is canonicalized",
			box:      Box{Left: 30, Top: 40, Right: 10, Bottom: 20},
			expected: image.Rect(10, 20, 30, 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.box.Rect(tt.width, tt.height))
		})
	}
}

func TestBoxExtent(t *testing.T) {
	box := Box{Left: 0.1, Top: 0.2, Right: 0.5, Bottom: 0.8}
	assert.InDelta(t, 0.4, box.Width(), 1e-6)
	assert.InDelta(t, 0.6, box.Height(), 1e-6)
}

func TestBoxIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float32
	}{
		{
			name: "identical",
			a:    Box{Left: 0, Top: 0, Right: 2, Bottom: 2},
			b:    Box{Left: 0, Top: 0, Right: 2, Bottom: 2},
			want: 1,
		},
		{
			name: "half overlap",
			a:    Box{Left: 0, Top: 0, Right: 2, Bottom: 2},
			b:    Box{Left: 1, Top: 0, Right: 3, Bottom: 2},
			want: 2.0 / 6.0,
		},
		{
			name: "disjoint",
			a:    Box{Left: 0, Top: 0, Right: 1, Bottom: 1},
			b:    Box{Left: 2, Top: 2, Right: 3, Bottom: 3},
			want: 0,
		},
		{
			name: "touching edges",
			a:    Box{Left: 0, Top: 0, Right: 1, Bottom: 1},
			b:    Box{Left: 1, Top: 0, Right: 2, Bottom: 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.IoU(tt.b), 1e-6)
			assert.InDelta(t, tt.want, tt.b.IoU(tt.a), 1e-6)
		})
	}
}
