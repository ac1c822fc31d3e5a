// Package providers - Execution provider selection for ONNX Runtime sessions.
package providers

import (
	"strings"

	"github.com/pkg/errors"
)

// Backend names an ONNX Runtime execution provider.
type Backend string

// Backends lists every backend that can be requested, in no particular order.
var Backends = []Backend{CPUBackend, CUDABackend, CoreMLBackend, OpenVINOBackend}

// ParseBackend resolves a case-insensitive backend name.
//
// Arguments:
//   - name: The backend name, e.g. "cuda" or "CoreML".
//
// Returns:
//   - Backend: The matching backend.
//   - error: An error if no backend has that name.
func ParseBackend(name string) (Backend, error) {
	want := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, b := range Backends {
		if b == want {
			return b, nil
		}
	}
	return "", errors.Errorf("unknown execution provider %q", name)
}

// Provider is one entry of the ordered provider list.
//
// Only the options block that matches Backend is read.
type Provider struct {
	// Backend is the execution provider to attach.
	Backend Backend `json:"backend" yaml:"backend"`
	// CUDA holds the options for the cuda backend.
	CUDA *CUDAOptions `json:"cuda,omitempty" yaml:"cuda,omitempty"`
	// CoreML holds the options for the coreml backend.
	CoreML *CoreMLOptions `json:"coreml,omitempty" yaml:"coreml,omitempty"`
	// OpenVINO holds the options for the openvino backend.
	OpenVINO *OpenVINOOptions `json:"openvino,omitempty" yaml:"openvino,omitempty"`
}

// Named returns providers with default options for each backend, in the given order.
//
// Arguments:
//   - backends: The backends to request.
//
// Returns:
//   - []Provider: One provider per backend.
//
// @example
// list := Named(CUDABackend, CPUBackend)
func Named(backends ...Backend) []Provider {
	out := make([]Provider, 0, len(backends))
	for _, b := range backends {
		out = append(out, Provider{Backend: b})
	}
	return out
}

func (p Provider) String() string {
	return string(p.Backend)
}
