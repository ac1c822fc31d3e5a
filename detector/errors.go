package detector

import (
	"fmt"

	"github.com/nvr-ai/go-detect/models/model"
)

// ErrUninitializedModel is returned by operations that need a loaded model.
var ErrUninitializedModel = model.ErrUninitializedModel

// Initialization steps reported in InitError.Op.
const (
	OpLoadModel  = "load model"
	OpLoadLabels = "load labels"
	OpReadShape  = "read input shape"
)

// InitError reports why Initialize failed. No step is retried.
type InitError struct {
	// Op is the step that failed.
	Op string
	// Path is the file involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *InitError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *InitError) Unwrap() error {
	return e.Err
}

// Cause supports errors.Cause from github.com/pkg/errors.
func (e *InitError) Cause() error {
	return e.Err
}
