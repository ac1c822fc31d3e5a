package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/nvr-ai/go-detect/profiler"
	"github.com/nvr-ai/go-detect/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagConfig        = "config"
	flagModel         = "model"
	flagLabels        = "labels"
	flagRuntime       = "runtime"
	flagProvider      = "provider"
	flagThreshold     = "threshold"
	flagStrict        = "strict"
	flagNMS           = "nms"
	flagInputShape    = "input-shape"
	flagThreads       = "threads"
	flagXNNPACK       = "xnnpack"
	flagRotation      = "rotation"
	flagAnnotate      = "annotate"
	flagPreviewWidth  = "preview-width"
	flagNormalized    = "normalized"
	flagLogLevel      = "log-level"
	flagSharedLibrary = "onnxruntime-lib"
	flagCamera        = "camera"
	flagFrames        = "frames"
)

// openModel loads models for the detector; replaced in tests.
var openModel inference.Opener = inference.Open

// result is one output line.
type result struct {
	Path       string       `json:"path"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Format     string       `json:"format"`
	Detections []common.Box `json:"detections"`
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "detect",
		Usage:     "run a single-shot object detection model over still images",
		ArgsUsage: "<image or directory>...",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "YAML configuration file; flags override its values",
				EnvVars: []string{"DETECT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagModel,
				Aliases: []string{"m"},
				Usage:   "model file (.onnx, .tflite, or any format OpenCV reads)",
				EnvVars: []string{"DETECT_MODEL"},
			},
			&cli.StringFlag{
				Name:    flagLabels,
				Aliases: []string{"l"},
				Usage:   "label file, one label per line",
				EnvVars: []string{"DETECT_LABELS"},
			},
			&cli.StringFlag{
				Name:  flagRuntime,
				Usage: "inference runtime: onnx, tflite or opencv (default: from the model extension)",
			},
			&cli.StringSliceFlag{
				Name:  flagProvider,
				Usage: "execution provider to try, in order: cuda, coreml, openvino, cpu",
			},
			&cli.Float64Flag{
				Name:  flagThreshold,
				Usage: "minimum confidence, exclusive",
				Value: float64(detector.DefaultConfig().ConfidenceThreshold),
			},
			&cli.BoolFlag{
				Name:  flagStrict,
				Usage: "fail on model output that is not a whole number of records",
			},
			&cli.Float64Flag{
				Name:  flagNMS,
				Usage: "suppress overlapping detections above this IoU (0 disables)",
			},
			&cli.StringFlag{
				Name:  flagInputShape,
				Usage: "model input as WIDTHxHEIGHTxCHANNELS, for dynamic models and opencv",
			},
			&cli.IntFlag{
				Name:  flagThreads,
				Usage: "runtime threads (0: runtime default)",
			},
			&cli.BoolFlag{
				Name:  flagXNNPACK,
				Usage: "enable the XNNPACK delegate for tflite models",
			},
			&cli.StringFlag{
				Name:    flagSharedLibrary,
				Usage:   "onnxruntime shared library",
				EnvVars: []string{providers.SharedLibraryEnv},
			},
			&cli.IntFlag{
				Name:  flagRotation,
				Usage: "sensor rotation in degrees, truncated to quarter turns",
			},
			&cli.StringFlag{
				Name:  flagAnnotate,
				Usage: "write annotated copies of the images to this directory",
			},
			&cli.UintFlag{
				Name:  flagPreviewWidth,
				Usage: "downscale annotated images to at most this width (0 keeps full size)",
			},
			&cli.BoolFlag{
				Name:  flagNormalized,
				Usage: "treat box coordinates as fractions of the image size when annotating",
			},
			&cli.IntFlag{
				Name:  flagCamera,
				Usage: "classify frames from this video capture device instead of image files",
			},
			&cli.UintFlag{
				Name:  flagFrames,
				Usage: "stop after this many camera frames (0: until the device stops)",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level: debug, info, warn or error",
				Value: "info",
			},
		},
		Action: detectAction,
	}
}

func detectAction(c *cli.Context) error {
	log := logrus.New()
	log.SetOutput(c.App.ErrWriter)
	level, err := logrus.ParseLevel(c.String(flagLogLevel))
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)

	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	var source frameSource
	if c.IsSet(flagCamera) {
		if c.Args().Present() {
			return errors.New("images and --camera are mutually exclusive")
		}
		if source, err = openCamera(c.Int(flagCamera), c.Uint(flagFrames)); err != nil {
			return err
		}
	} else {
		inputs, err := collectInputs(c.Args().Slice())
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return errors.New("no images given")
		}
		source = &fileSource{paths: inputs}
	}
	defer source.Close()

	annotateDir := c.String(flagAnnotate)
	if annotateDir != "" {
		if err := os.MkdirAll(annotateDir, 0o755); err != nil {
			return errors.Wrap(err, "error creating annotation directory")
		}
	}

	d := detector.New(cfg, detector.WithLogger(log), detector.WithOpener(openModel))
	if err := d.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := d.Shutdown(); err != nil {
			log.WithError(err).Warn("error shutting down detector")
		}
	}()

	r := &runner{
		detector:     d,
		log:          log,
		enc:          json.NewEncoder(c.App.Writer),
		timings:      profiler.NewTimings(),
		rotation:     c.Int(flagRotation),
		annotateDir:  annotateDir,
		normalized:   c.Bool(flagNormalized),
		previewWidth: c.Uint(flagPreviewWidth),
	}
	total, failures, err := r.run(source)
	r.timings.Log(log)
	if err != nil {
		return err
	}

	if failures > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d images failed", failures, total), 1)
	}
	return nil
}

// runner classifies frames one at a time and writes a result line per frame.
type runner struct {
	detector     *detector.Detector
	log          *logrus.Logger
	enc          *json.Encoder
	timings      *profiler.Timings
	rotation     int
	annotateDir  string
	normalized   bool
	previewWidth uint
}

// run drains source. Unreadable frames and failed classifications are counted and skipped;
// only output errors stop the run.
func (r *runner) run(source frameSource) (total, failures int, err error) {
	for {
		done := r.timings.StartOperation("decode")
		f, err := source.Next()
		done()
		if errors.Is(err, io.EOF) {
			return total, failures, nil
		}
		total++
		if err != nil {
			r.log.WithField("path", f.Path).WithError(err).Warn("skipping unreadable image")
			failures++
			continue
		}

		ok, err := r.process(f)
		if err != nil {
			return total, failures, err
		}
		if !ok {
			failures++
		}
	}
}

func (r *runner) process(f frame) (bool, error) {
	entry := r.log.WithField("path", f.Path)

	done := r.timings.StartOperation("classify")
	boxes, err := r.detector.Classify(f.Image, r.rotation)
	done()
	if err != nil {
		entry.WithError(err).Error("classification failed")
		return false, nil
	}

	b := f.Image.Bounds()
	if err := r.enc.Encode(result{
		Path:       f.Path,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Format:     string(f.Format),
		Detections: boxes,
	}); err != nil {
		return false, errors.Wrap(err, "error writing result")
	}

	if r.annotateDir != "" {
		done = r.timings.StartOperation("annotate")
		err := writeAnnotated(r.annotateDir, f.Path, f.Image, boxes, r.normalized, r.previewWidth)
		done()
		if err != nil {
			entry.WithError(err).Warn("error writing annotated image")
		}
	}
	return true, nil
}

// configFromFlags loads --config when given, applies the flags that were set, and validates
// the result.
func configFromFlags(c *cli.Context) (detector.Config, error) {
	cfg := detector.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = detector.ReadConfig(path); err != nil {
			return detector.Config{}, err
		}
	}

	if c.IsSet(flagModel) {
		cfg.ModelPath = c.String(flagModel)
	}
	if c.IsSet(flagLabels) {
		cfg.LabelsPath = c.String(flagLabels)
	}
	if c.IsSet(flagRuntime) {
		rt, err := inference.ParseRuntime(c.String(flagRuntime))
		if err != nil {
			return detector.Config{}, err
		}
		cfg.Runtime = rt
	}
	if c.IsSet(flagProvider) {
		cfg.Providers = nil
		for _, name := range c.StringSlice(flagProvider) {
			b, err := providers.ParseBackend(name)
			if err != nil {
				return detector.Config{}, err
			}
			cfg.Providers = append(cfg.Providers, providers.Provider{Backend: b})
		}
	}
	if c.IsSet(flagThreshold) {
		cfg.ConfidenceThreshold = float32(c.Float64(flagThreshold))
	}
	if c.IsSet(flagStrict) {
		cfg.Strict = c.Bool(flagStrict)
	}
	if c.IsSet(flagNMS) {
		cfg.NMS.IoUThreshold = float32(c.Float64(flagNMS))
	}
	if c.IsSet(flagInputShape) {
		shape, err := parseShape(c.String(flagInputShape))
		if err != nil {
			return detector.Config{}, err
		}
		cfg.InputShape = shape
	}
	if c.IsSet(flagThreads) {
		cfg.Threads = c.Int(flagThreads)
	}
	if c.IsSet(flagXNNPACK) {
		cfg.XNNPACK = c.Bool(flagXNNPACK)
	}
	if c.IsSet(flagSharedLibrary) {
		cfg.SharedLibraryPath = c.String(flagSharedLibrary)
	}

	if err := cfg.Validate(); err != nil {
		return detector.Config{}, err
	}
	return cfg, nil
}

// parseShape reads WIDTHxHEIGHTxCHANNELS; channels default to 3 when omitted.
func parseShape(s string) (model.Shape, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) < 2 || len(parts) > 3 {
		return model.Shape{}, errors.Errorf("invalid input shape %q, want WIDTHxHEIGHT[xCHANNELS]", s)
	}

	dims := []int{0, 0, 3}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return model.Shape{}, errors.Errorf("invalid input shape %q, want WIDTHxHEIGHT[xCHANNELS]", s)
		}
		dims[i] = v
	}
	return model.Shape{Width: dims[0], Height: dims[1], Channels: dims[2]}, nil
}

// collectInputs expands directories to the images they contain, keeping argument order.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := util.LoadImageFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}
	return paths, nil
}

// writeAnnotated draws the boxes on img and saves it as PNG under dir.
func writeAnnotated(dir, path string, img image.Image, boxes []common.Box, normalized bool, previewWidth uint) error {
	opts := images.DefaultAnnotateOptions()
	opts.Normalized = normalized

	out := images.Annotate(img, boxes, opts)
	if previewWidth > 0 {
		out = images.Thumbnail(out, previewWidth, uint(out.Bounds().Dy()))
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
	return imaging.Save(out, filepath.Join(dir, name))
}
