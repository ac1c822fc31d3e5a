// Package providers - Utility functions.
package providers

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// SharedLibraryEnv overrides the ONNX Runtime shared library location.
const SharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the ONNX Runtime shared library for the current
// platform.
//
// SharedLibraryEnv takes precedence over the bundled third_party locations. An empty string
// means the platform has no bundled library. The bundled path may not exist; see
// ResolveSharedLibPath.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath() string {
	if p := os.Getenv(SharedLibraryEnv); p != "" {
		return p
	}
	return bundledLibPath(runtime.GOOS, runtime.GOARCH)
}

func bundledLibPath(goos, goarch string) string {
	switch goos {
	case "windows":
		if goarch == "amd64" {
			return "third_party/onnxruntime.dll"
		}
	case "darwin":
		return "third_party/libonnxruntime.dylib"
	case "linux":
		if goarch == "arm64" {
			return "third_party/onnxruntime_arm64.so"
		}
		return "third_party/onnxruntime.so"
	}
	return ""
}

// ResolveSharedLibPath picks the ONNX Runtime shared library to load.
//
// An explicitly configured path, or one from SharedLibraryEnv, must exist. The bundled
// third_party path is used only when present; otherwise the result is empty and the library
// is left to the system loader search path.
//
// Arguments:
//   - configured: The path from configuration, or empty.
//
// Returns:
//   - string: The library path, or empty for the system loader.
//   - error: An error when an explicit path does not exist.
func ResolveSharedLibPath(configured string) (string, error) {
	path := configured
	explicit := path != "" || os.Getenv(SharedLibraryEnv) != ""
	if path == "" {
		path = GetSharedLibPath()
	}
	if path == "" {
		return "", nil
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit {
			return "", nil
		}
		return "", errors.Wrapf(err, "ONNX Runtime library not found at %s (set %s)",
			path, SharedLibraryEnv)
	}
	return path, nil
}
