package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, float32(0.5), cfg.ConfidenceThreshold)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.NMS.Enabled())
	assert.Error(t, cfg.Validate(), "paths have no defaults")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model_path: models/ssd.onnx
labels_path: models/labelmap.txt
providers:
  - backend: cuda
    cuda:
      deviceID: 1
  - backend: cpu
strict: true
input_shape:
  width: 320
  height: 320
  channels: 3
nms:
  iou_threshold: 0.45
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "models/ssd.onnx", cfg.ModelPath)
	assert.Equal(t, "models/labelmap.txt", cfg.LabelsPath)
	assert.Equal(t, float32(0.5), cfg.ConfidenceThreshold, "unset fields keep defaults")
	assert.True(t, cfg.Strict)
	assert.Equal(t, model.Shape{Channels: 3, Width: 320, Height: 320}, cfg.InputShape)
	assert.InDelta(t, 0.45, cfg.NMS.IoUThreshold, 1e-6)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, providers.CUDABackend, cfg.Providers[0].Backend)
	require.NotNil(t, cfg.Providers[0].CUDA)
	assert.Equal(t, 1, cfg.Providers[0].CUDA.DeviceID)
	assert.Equal(t, providers.CPUBackend, cfg.Providers[1].Backend)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("model_path: [unterminated"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("model_path: a.onnx\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "labels_path is required")

	partial, err := ReadConfig(invalid)
	require.NoError(t, err, "reading does not validate")
	assert.Equal(t, "a.onnx", partial.ModelPath)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.ModelPath = "detect.tflite"
		cfg.LabelsPath = "labelmap.txt"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero threshold", mutate: func(c *Config) { c.ConfidenceThreshold = 0 }},
		{name: "missing model", mutate: func(c *Config) { c.ModelPath = "" }, errMsg: "model_path is required"},
		{name: "threshold above one", mutate: func(c *Config) { c.ConfidenceThreshold = 1.5 }, errMsg: "confidence_threshold"},
		{name: "negative threshold", mutate: func(c *Config) { c.ConfidenceThreshold = -0.1 }, errMsg: "confidence_threshold"},
		{
			name:   "NaN threshold",
			mutate: func(c *Config) { c.ConfidenceThreshold = math32.NaN() },
			errMsg: "confidence_threshold",
		},
		{name: "nms disabled by negative iou", mutate: func(c *Config) { c.NMS.IoUThreshold = -1 }},
		{name: "nms iou above one", mutate: func(c *Config) { c.NMS.IoUThreshold = 1.5 }, errMsg: "nms.iou_threshold"},
		{name: "NaN nms iou", mutate: func(c *Config) { c.NMS.IoUThreshold = math32.NaN() }, errMsg: "nms.iou_threshold"},
		{name: "unknown runtime", mutate: func(c *Config) { c.Runtime = "caffe2" }, errMsg: "unknown runtime"},
		{
			name:   "runtime not inferable",
			mutate: func(c *Config) { c.ModelPath = "model.bin" },
			errMsg: "cannot infer runtime",
		},
		{
			name: "explicit runtime for unknown extension",
			mutate: func(c *Config) {
				c.ModelPath = "model.bin"
				c.Runtime = inference.RuntimeOpenCV
			},
		},
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.Providers = providers.Named("nnapi") },
			errMsg: "unknown execution provider",
		},
		{name: "negative threads", mutate: func(c *Config) { c.Threads = -1 }, errMsg: "threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
