//go:build !notflite

package main

// Build with -tags notflite to drop the TensorFlow Lite C library dependency.
import _ "github.com/nvr-ai/go-detect/inference/tflite"
