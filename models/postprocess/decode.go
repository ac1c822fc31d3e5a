// Package postprocess - Decodes raw detection model output into boxes.
package postprocess

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/models"
)

const (
	// RecordSize is the number of values per detection record:
	// [left, top, right, bottom, score, classId].
	RecordSize = 6

	// DefaultThreshold is the score a record must exceed to be emitted.
	DefaultThreshold float32 = 0.5
)

// Record offsets within a single detection.
const (
	offsetLeft = iota
	offsetTop
	offsetRight
	offsetBottom
	offsetScore
	offsetClass
)

// LabelSource resolves class ids to names.
type LabelSource interface {
	Label(idx int) string
}

// Options controls how output buffers are decoded.
type Options struct {
	// Threshold is the strict lower bound on the score of emitted records.
	Threshold float32 `json:"threshold" yaml:"threshold"`
	// Strict rejects buffers whose length is not a multiple of RecordSize instead of
	// dropping the trailing partial record.
	Strict bool `json:"strict" yaml:"strict"`
}

// DefaultOptions returns lenient decoding at DefaultThreshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Decode converts a flat output buffer into detections.
//
// The buffer is read as len(output)/RecordSize records. A record is emitted when its score is
// strictly greater than opts.Threshold. Coordinates and score are copied verbatim, and the
// class id is truncated toward zero and resolved through labels, falling back to
// models.UnknownLabel. Detections keep the order of their records in the buffer.
//
// Arguments:
//   - output: The flat model output.
//   - labels: The label table used to name class ids.
//   - opts: Threshold and strictness.
//
// Returns:
//   - []common.Box: Detections in input order; empty, never nil.
//   - error: A *MalformedOutputError when opts.Strict is set and the length is ragged.
//
// @example
// boxes, err := Decode([]float32{0.1, 0.1, 0.5, 0.5, 0.9, 0}, models.NewLabels("cat"), DefaultOptions())
func Decode(output []float32, labels LabelSource, opts Options) ([]common.Box, error) {
	if err := CheckRecords(len(output)); err != nil && opts.Strict {
		return nil, err
	}

	numRecords := len(output) / RecordSize
	boxes := make([]common.Box, 0, numRecords)

	for i := 0; i < numRecords; i++ {
		record := output[i*RecordSize : (i+1)*RecordSize]

		score := record[offsetScore]
		if !(score > opts.Threshold) {
			continue
		}

		boxes = append(boxes, common.Box{
			Left:   record[offsetLeft],
			Top:    record[offsetTop],
			Right:  record[offsetRight],
			Bottom: record[offsetBottom],
			Score:  score,
			Label:  resolveLabel(labels, record[offsetClass]),
		})
	}

	return boxes, nil
}

// resolveLabel truncates the class value to an index and names it.
func resolveLabel(labels LabelSource, class float32) string {
	if math32.IsNaN(class) || math32.IsInf(class, 0) {
		return models.UnknownLabel
	}
	// Values beyond the int32 range cannot index any real label table.
	if class >= math.MaxInt32 || class <= math.MinInt32 {
		return models.UnknownLabel
	}
	if labels == nil {
		return models.UnknownLabel
	}
	return labels.Label(int(class))
}
