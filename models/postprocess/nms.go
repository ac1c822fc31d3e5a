// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"cmp"
	"slices"

	"github.com/nvr-ai/go-detect/common"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
//
// The zero value disables suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which the lower scoring box is dropped. Values <= 0
	// disable suppression.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassAware suppresses only boxes that share a label.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
}

// Enabled reports whether the config suppresses anything.
func (c NMSConfig) Enabled() bool {
	return c.IoUThreshold > 0
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Boxes are visited by descending score; each kept box suppresses the remaining boxes that
// overlap it by more than IoUThreshold. Equal scores are visited in input order. The kept
// boxes are returned in their input order, so suppression never reorders detections.
//
// Arguments:
//   - boxes: Decoded detections.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections; boxes itself when suppression is disabled.
func ApplyGreedyNMS(boxes []common.Box, config NMSConfig) []common.Box {
	n := len(boxes)
	if n < 2 || !config.Enabled() {
		return boxes
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(boxes[b].Score, boxes[a].Score)
	})

	suppressed := make([]bool, n)
	for oi, i := range order {
		if suppressed[i] {
			continue
		}
		anchor := boxes[i]
		for _, j := range order[oi+1:] {
			if suppressed[j] {
				continue
			}
			if config.ClassAware && anchor.Label != boxes[j].Label {
				continue
			}
			if anchor.IoU(boxes[j]) > config.IoUThreshold {
				suppressed[j] = true
			}
		}
	}

	filtered := make([]common.Box, 0, n)
	for i, b := range boxes {
		if !suppressed[i] {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
