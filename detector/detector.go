// Package detector - Single-shot object detection on still frames.
//
// A Detector owns one model and its label table. Each Classify call crops, resizes,
// rotates and normalizes a frame, runs the model once and decodes the output records
// into labeled boxes.
package detector

import (
	"image"
	"sync"
	"time"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/nvr-ai/go-detect/models/model/preprocess"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Detector classifies frames with a single model.
//
// The zero value is not usable; create detectors with New. Classify calls are serialized.
type Detector struct {
	cfg  Config
	open inference.Opener
	log  logrus.FieldLogger

	mu           sync.Mutex
	model        inference.Model
	labels       *models.Labels
	preprocessor *preprocess.Preprocessor
}

// Option configures a Detector.
type Option func(*Detector)

// WithOpener replaces the function used to load the model, inference.Open by default.
func WithOpener(open inference.Opener) Option {
	return func(d *Detector) {
		d.open = open
	}
}

// WithLogger sets the logger, logrus.StandardLogger() by default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Detector) {
		d.log = log
	}
}

// New creates a detector. No files are read until Initialize.
//
// Only the onnx runtime is linked by default; import inference/tflite or inference/opencv
// for the others.
//
// Arguments:
//   - cfg: The detector configuration.
//   - opts: Optional overrides.
//
// Returns:
//   - *Detector: The detector, not yet ready.
//
// @example
// d := detector.New(cfg)
// err := d.Initialize()
// boxes, err := d.Classify(frame, 90)
func New(cfg Config, opts ...Option) *Detector {
	d := &Detector{
		cfg:  cfg,
		open: inference.Open,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initialize loads the model, reads its input shape and loads the label table.
//
// Initialize is not idempotent: calling it on a ready detector loads everything again and
// releases the previous model once the new one is in place.
//
// Returns:
//   - error: An *InitError naming the step and file that failed. The detector is unchanged
//     on failure.
func (d *Detector) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log := d.log.WithFields(logrus.Fields{
		"model":   d.cfg.ModelPath,
		"runtime": d.cfg.Runtime,
	})
	if d.model != nil {
		log.Warn("detector already initialized, reloading")
	}

	m, err := d.open(d.inferenceConfig())
	if err != nil {
		return &InitError{Op: OpLoadModel, Path: d.cfg.ModelPath, Err: err}
	}

	shape := m.InputShape()
	if shape.IsZero() {
		closeQuietly(m, log)
		return &InitError{
			Op:   OpReadShape,
			Path: d.cfg.ModelPath,
			Err:  errors.Errorf("model reports input shape %s", shape),
		}
	}

	labels, err := models.LoadLabels(d.cfg.LabelsPath)
	if err != nil {
		closeQuietly(m, log)
		return &InitError{Op: OpLoadLabels, Path: d.cfg.LabelsPath, Err: err}
	}

	if d.model != nil {
		closeQuietly(d.model, log)
	}
	d.model = m
	d.labels = labels
	d.preprocessor = preprocess.NewPreprocessor(shape)

	log.WithFields(logrus.Fields{
		"shape":  shape.String(),
		"labels": labels.Len(),
	}).Info("detector initialized")

	return nil
}

// Classify detects objects in img.
//
// Arguments:
//   - img: The frame, in any size and pixel layout.
//   - rotationDegrees: Sensor orientation; truncated to whole counter-clockwise quarter turns.
//
// Returns:
//   - []common.Box: Detections scoring above the threshold, in model output order.
//   - error: ErrUninitializedModel before Initialize or after Shutdown, otherwise a
//     preprocessing, runtime or decoding error. No state changes on failure.
func (d *Detector) Classify(img image.Image, rotationDegrees int) ([]common.Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.model == nil {
		return nil, ErrUninitializedModel
	}

	start := time.Now()

	input, err := d.preprocessor.Preprocess(img, rotationDegrees)
	if err != nil {
		return nil, errors.Wrap(err, "error preprocessing frame")
	}

	output, err := d.model.Run(input)
	if err != nil {
		return nil, errors.Wrap(err, "error running model")
	}

	if err := postprocess.CheckRecords(len(output)); err != nil && !d.cfg.Strict {
		d.log.WithField("length", len(output)).WithError(err).Warn("dropping trailing partial record")
	}

	boxes, err := postprocess.Decode(output, d.labels, d.cfg.decodeOptions())
	if err != nil {
		return nil, errors.Wrap(err, "error decoding output")
	}
	boxes = postprocess.ApplyGreedyNMS(boxes, d.cfg.NMS)

	d.log.WithFields(logrus.Fields{
		"records":    len(output) / postprocess.RecordSize,
		"detections": len(boxes),
		"elapsed":    time.Since(start),
	}).Debug("frame classified")

	return boxes, nil
}

// Shutdown releases the model. It is a no-op on a detector that is not initialized.
func (d *Detector) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.model == nil {
		return nil
	}

	err := d.model.Close()
	d.model = nil
	d.labels = nil
	d.preprocessor = nil

	d.log.WithField("model", d.cfg.ModelPath).Info("detector shut down")

	if err != nil {
		return errors.Wrap(err, "error releasing model")
	}
	return nil
}

// IsReady reports whether Initialize succeeded and Shutdown has not been called since.
func (d *Detector) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.model != nil
}

// InputSize returns the model input width and height, or zeros when not ready.
func (d *Detector) InputSize() (width, height int) {
	shape, err := d.InputShape()
	if err != nil {
		return 0, 0
	}
	return shape.Width, shape.Height
}

// InputShape returns the model input shape.
func (d *Detector) InputShape() (model.Shape, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.model == nil {
		return model.Shape{}, ErrUninitializedModel
	}
	return d.preprocessor.Shape(), nil
}

// Labels returns the loaded label table, nil when not ready.
func (d *Detector) Labels() *models.Labels {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.labels
}

func (d *Detector) inferenceConfig() inference.Config {
	return inference.Config{
		ModelPath:         d.cfg.ModelPath,
		Runtime:           d.cfg.Runtime,
		Providers:         d.cfg.Providers,
		InputShape:        d.cfg.InputShape,
		Threads:           d.cfg.Threads,
		XNNPACK:           d.cfg.XNNPACK,
		SharedLibraryPath: d.cfg.SharedLibraryPath,
		Logger:            d.log,
	}
}

func closeQuietly(m inference.Model, log logrus.FieldLogger) {
	if err := m.Close(); err != nil {
		log.WithError(err).Warn("error releasing model")
	}
}
