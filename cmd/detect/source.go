package main

import (
	"image"
	"io"

	"github.com/nvr-ai/go-detect/images"
)

// frame is one image to classify.
type frame struct {
	Path   string
	Image  image.Image
	Format images.ImageFormat
}

// frameSource yields frames until it returns io.EOF. Any other error skips one frame; the
// returned frame still carries its Path.
type frameSource interface {
	Next() (frame, error)
	Close() error
}

// fileSource decodes image files in order.
type fileSource struct {
	paths []string
	next  int
}

func (s *fileSource) Next() (frame, error) {
	if s.next >= len(s.paths) {
		return frame{}, io.EOF
	}
	path := s.paths[s.next]
	s.next++

	img, format, err := images.Load(path)
	if err != nil {
		return frame{Path: path}, err
	}
	return frame{Path: path, Image: img, Format: format}, nil
}

func (s *fileSource) Close() error { return nil }
