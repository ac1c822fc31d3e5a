//go:build !noopencv

package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// camera reads frames from a video capture device.
type camera struct {
	device  int
	limit   uint
	read    uint
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// openCamera opens the capture device. A zero limit reads until the device stops.
func openCamera(device int, limit uint) (*camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening capture device %d", device)
	}
	return &camera{device: device, limit: limit, capture: capture, mat: gocv.NewMat()}, nil
}

func (c *camera) Next() (frame, error) {
	if c.limit > 0 && c.read >= c.limit {
		return frame{}, io.EOF
	}
	if ok := c.capture.Read(&c.mat); !ok {
		return frame{}, io.EOF
	}
	c.read++

	path := fmt.Sprintf("camera-%d/frame-%06d", c.device, c.read)
	if c.mat.Empty() {
		return frame{Path: path}, errors.New("empty frame")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return frame{Path: path}, errors.Wrap(err, "error converting frame")
	}
	return frame{Path: path, Image: img}, nil
}

func (c *camera) Close() error {
	if err := c.mat.Close(); err != nil {
		return err
	}
	return c.capture.Close()
}
