// Package main is the detect command: it runs a single-shot detection model over still images
// and prints the detections as JSON lines.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
