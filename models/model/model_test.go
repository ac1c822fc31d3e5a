package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShape(t *testing.T) {
	s := Shape{Channels: 3, Width: 320, Height: 240}

	assert.False(t, s.IsZero())
	assert.Equal(t, 3*320*240, s.Size())
	assert.Equal(t, []int{240, 320, 3}, s.Dims())
	assert.Equal(t, "320x240x3", s.String())
}

func TestShapeZero(t *testing.T) {
	var s Shape

	assert.True(t, s.IsZero())
	assert.Equal(t, 0, s.Size())
	assert.True(t, Shape{Channels: 3, Width: 10}.IsZero(), "missing height is still unread")
}
