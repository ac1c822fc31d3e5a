// Package providers - OpenVINO execution provider.
package providers

import "strconv"

const (
	// OpenVINOBackend uses Intel OpenVINO for inference optimization.
	OpenVINOBackend Backend = "openvino"
)

// Precision is the inference precision OpenVINO compiles the graph for.
type Precision string

const (
	// PrecisionAccuracy keeps the precision of the model file.
	PrecisionAccuracy Precision = "ACCURACY"
	PrecisionFP32     Precision = "FP32"
	PrecisionFP16     Precision = "FP16"
)

// OpenVINOOptions contains arguments for the OpenVINO provider. Empty fields are not sent.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// DeviceType overrides the accelerator, e.g. "CPU", "GPU" or "NPU".
	DeviceType string `json:"deviceType" yaml:"deviceType"`
	Precision Precision `json:"precision" yaml:"precision"`
	// NumOfThreads overrides the default of 8 inference threads.
	NumOfThreads int `json:"numOfThreads" yaml:"numOfThreads"`
	// NumStreams overrides the default of 1 stream.
	NumStreams int `json:"numStreams" yaml:"numStreams"`
	// DisableDynamicShapes rewrites dynamic shaped models to static shapes at runtime.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes"`
	// CacheDir stores compiled blobs between runs.
	CacheDir string `json:"cacheDir" yaml:"cacheDir"`
}

func (o OpenVINOOptions) settings() map[string]string {
	s := map[string]string{}
	if o.DeviceType != "" {
		s["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		s["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		s["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		s["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	if o.DisableDynamicShapes {
		s["disable_dynamic_shapes"] = "true"
	}
	if o.CacheDir != "" {
		s["cache_dir"] = o.CacheDir
	}
	return s
}
