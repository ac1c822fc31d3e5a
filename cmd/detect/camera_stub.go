//go:build noopencv

package main

import "github.com/pkg/errors"

// openCamera is unavailable without OpenCV.
func openCamera(device int, _ uint) (frameSource, error) {
	return nil, errors.Errorf("cannot open capture device %d: built without OpenCV (noopencv)", device)
}
