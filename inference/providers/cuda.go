// Package providers - CUDA execution provider.
package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CUDABackend runs inference on an NVIDIA GPU.
	CUDABackend Backend = "cuda"
)

// CUDAOptions contains arguments for the CUDA provider. Zero values keep the ONNX Runtime
// defaults.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// DeviceID selects the GPU.
	DeviceID int `json:"deviceID" yaml:"deviceID"`
	// GPUMemLimit caps the device memory arena in bytes.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit"`
	// ArenaExtendStrategy is 0 for kNextPowerOfTwo, 1 for kSameAsRequested.
	ArenaExtendStrategy int `json:"arenaExtendStrategy" yaml:"arenaExtendStrategy"`
	// CudnnConvAlgoSearch is 0 for EXHAUSTIVE, 1 for HEURISTIC, 2 for DEFAULT.
	CudnnConvAlgoSearch int `json:"cudnnConvAlgoSearch" yaml:"cudnnConvAlgoSearch"`
	// DoCopyInDefaultStream copies in the default stream instead of separate streams.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream"`
	// UseTF32 enables TensorFloat-32 math on Ampere and newer.
	UseTF32 bool `json:"useTF32" yaml:"useTF32"`
	// PreferNHWC prefers NHWC operators over NCHW.
	PreferNHWC bool `json:"preferNHWC" yaml:"preferNHWC"`
}

// settings renders the options in the key/value form ONNX Runtime expects.
func (o CUDAOptions) settings() map[string]string {
	s := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"arena_extend_strategy":     arenaStrategy(o.ArenaExtendStrategy),
		"cudnn_conv_algo_search":    convAlgoSearch(o.CudnnConvAlgoSearch),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
		"use_tf32":                  boolFlag(o.UseTF32),
		"prefer_nhwc":               boolFlag(o.PreferNHWC),
	}
	if o.GPUMemLimit > 0 {
		s["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	return s
}

// appendCUDA attaches the CUDA provider. The native options are released once attached.
func appendCUDA(options SessionOptions, o CUDAOptions) error {
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return errors.Wrap(err, "creating CUDA provider options")
	}
	defer cuda.Destroy()

	if err := cuda.Update(o.settings()); err != nil {
		return errors.Wrap(err, "updating CUDA provider options")
	}
	return options.AppendExecutionProviderCUDA(cuda)
}

func arenaStrategy(v int) string {
	if v == 1 {
		return "kSameAsRequested"
	}
	return "kNextPowerOfTwo"
}

func convAlgoSearch(v int) string {
	switch v {
	case 1:
		return "HEURISTIC"
	case 2:
		return "DEFAULT"
	default:
		return "EXHAUSTIVE"
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
