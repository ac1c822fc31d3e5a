package postprocess

import (
	"testing"

	"github.com/nvr-ai/go-detect/common"
	"github.com/stretchr/testify/assert"
)

func box(left, score float32, label string) common.Box {
	return common.Box{Left: left, Top: 0, Right: left + 1, Bottom: 1, Score: score, Label: label}
}

func TestApplyGreedyNMSDisabled(t *testing.T) {
	boxes := []common.Box{box(0, 0.9, "cat"), box(0, 0.8, "cat")}

	assert.Equal(t, boxes, ApplyGreedyNMS(boxes, NMSConfig{}))
}

func TestApplyGreedyNMSKeepsInputOrder(t *testing.T) {
	boxes := []common.Box{
		box(0, 0.6, "cat"),   // suppressed by the 0.9 box
		box(5, 0.7, "dog"),   // no overlap
		box(0.1, 0.9, "cat"), // anchor
	}

	got := ApplyGreedyNMS(boxes, NMSConfig{IoUThreshold: 0.5})

	assert.Equal(t, []common.Box{boxes[1], boxes[2]}, got)
}

func TestApplyGreedyNMSClassAware(t *testing.T) {
	boxes := []common.Box{box(0, 0.9, "cat"), box(0, 0.8, "dog")}

	assert.Len(t, ApplyGreedyNMS(boxes, NMSConfig{IoUThreshold: 0.5}), 1)
	assert.Len(t, ApplyGreedyNMS(boxes, NMSConfig{IoUThreshold: 0.5, ClassAware: true}), 2)
}

func TestApplyGreedyNMSEqualScores(t *testing.T) {
	boxes := []common.Box{box(0, 0.8, "cat"), box(0, 0.8, "cat")}

	got := ApplyGreedyNMS(boxes, NMSConfig{IoUThreshold: 0.5})

	assert.Equal(t, []common.Box{boxes[0]}, got, "the earlier of two equal scores wins")
}
