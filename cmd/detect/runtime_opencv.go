//go:build !noopencv

package main

// Build with -tags noopencv to drop the OpenCV dependency, which also disables --camera.
import _ "github.com/nvr-ai/go-detect/inference/opencv"
