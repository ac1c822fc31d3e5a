package postprocess

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(left, top, right, bottom, score, class float32) []float32 {
	return []float32{left, top, right, bottom, score, class}
}

func concat(records ...[]float32) []float32 {
	var out []float32
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

// TestDecodeExample checks the reference cat/dog buffer.
func TestDecodeExample(t *testing.T) {
	output := []float32{
		0.1, 0.1, 0.5, 0.5, 0.9, 0.0,
		0.2, 0.2, 0.6, 0.6, 0.3, 1.0,
	}

	boxes, err := Decode(output, models.NewLabels("cat", "dog"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, common.Box{
		Left: 0.1, Top: 0.1, Right: 0.5, Bottom: 0.5, Score: 0.9, Label: "cat",
	}, boxes[0])
}

func TestDecodeEmpty(t *testing.T) {
	boxes, err := Decode(nil, models.NewLabels("cat"), DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, boxes)
	assert.Empty(t, boxes)

	boxes, err = Decode([]float32{}, models.NewLabels("cat"), Options{Threshold: 0.5, Strict: true})
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestDecodeStrictThreshold(t *testing.T) {
	const threshold = float32(0.5)
	above := math32.Nextafter(threshold, 1)
	labels := models.NewLabels("cat")

	tests := []struct {
		name  string
		score float32
		want  int
	}{
		{name: "equal to threshold is excluded", score: threshold, want: 0},
		{name: "just above threshold is included", score: above, want: 1},
		{name: "below threshold is excluded", score: 0.49, want: 0},
		{name: "above one is not clamped", score: 1.5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boxes, err := Decode(record(0, 0, 1, 1, tt.score, 0), labels, Options{Threshold: threshold})
			require.NoError(t, err)
			require.Len(t, boxes, tt.want)
			if tt.want == 1 {
				assert.Equal(t, tt.score, boxes[0].Score)
			}
		})
	}
}

func TestDecodeLabelResolution(t *testing.T) {
	labels := models.NewLabels("cat", "dog")
	nan := math32.NaN()

	tests := []struct {
		name  string
		class float32
		want  string
	}{
		{name: "first label", class: 0, want: "cat"},
		{name: "last label", class: 1, want: "dog"},
		{name: "fraction truncates toward zero", class: 1.9, want: "dog"},
		{name: "small negative truncates to zero", class: -0.5, want: "cat"},
		{name: "past the end", class: 2, want: models.UnknownLabel},
		{name: "negative", class: -1, want: models.UnknownLabel},
		{name: "huge", class: 1e20, want: models.UnknownLabel},
		{name: "not a number", class: nan, want: models.UnknownLabel},
		{name: "infinity", class: math32.Inf(1), want: models.UnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boxes, err := Decode(record(0, 0, 1, 1, 0.9, tt.class), labels, DefaultOptions())
			require.NoError(t, err)
			require.Len(t, boxes, 1)
			assert.Equal(t, tt.want, boxes[0].Label)
		})
	}
}

func TestDecodeNilLabels(t *testing.T) {
	boxes, err := Decode(record(0, 0, 1, 1, 0.9, 0), nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, models.UnknownLabel, boxes[0].Label)
}

func TestDecodeCoordinatesVerbatim(t *testing.T) {
	output := record(-12.5, 700, 0.25, -0.001, 0.8, 0)

	boxes, err := Decode(output, models.NewLabels("cat"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, float32(-12.5), boxes[0].Left)
	assert.Equal(t, float32(700), boxes[0].Top)
	assert.Equal(t, float32(0.25), boxes[0].Right)
	assert.Equal(t, float32(-0.001), boxes[0].Bottom)
}

func TestDecodePreservesOrder(t *testing.T) {
	output := concat(
		record(1, 1, 1, 1, 0.6, 0),
		record(2, 2, 2, 2, 0.1, 0),
		record(3, 3, 3, 3, 0.99, 1),
		record(4, 4, 4, 4, 0.7, 0),
	)

	boxes, err := Decode(output, models.NewLabels("cat", "dog"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, boxes, 3)
	assert.Equal(t, float32(1), boxes[0].Left)
	assert.Equal(t, float32(3), boxes[1].Left)
	assert.Equal(t, "dog", boxes[1].Label)
	assert.Equal(t, float32(4), boxes[2].Left)
}

// TestDecodeRandomBuffers exercises the count and order properties over random buffers.
func TestDecodeRandomBuffers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := models.NewLabels("a", "b", "c")

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(50)
		output := make([]float32, n*RecordSize)
		for i := range output {
			output[i] = rng.Float32()*4 - 1
		}

		boxes, err := Decode(output, labels, DefaultOptions())
		require.NoError(t, err)
		assert.LessOrEqual(t, len(boxes), n)

		// The i-th box must match the i-th passing record.
		next := 0
		for r := 0; r < n; r++ {
			rec := output[r*RecordSize : (r+1)*RecordSize]
			if !(rec[offsetScore] > DefaultThreshold) {
				continue
			}
			require.Less(t, next, len(boxes))
			assert.Equal(t, rec[offsetLeft], boxes[next].Left)
			assert.Equal(t, rec[offsetScore], boxes[next].Score)
			next++
		}
		assert.Equal(t, next, len(boxes))
	}
}

func TestDecodeAllBelowThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 0; n < 20; n++ {
		output := make([]float32, 0, n*RecordSize)
		for i := 0; i < n; i++ {
			output = append(output, record(rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32(),
				rng.Float32()*DefaultThreshold, float32(rng.Intn(3)))...)
		}

		boxes, err := Decode(output, models.NewLabels("a", "b", "c"), DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, boxes)
	}
}

func TestDecodeRaggedLength(t *testing.T) {
	output := append(record(0.1, 0.1, 0.5, 0.5, 0.9, 0), 0.7, 0.7, 0.9)
	labels := models.NewLabels("cat")

	boxes, err := Decode(output, labels, DefaultOptions())
	require.NoError(t, err, "lenient decoding drops the partial record")
	assert.Len(t, boxes, 1)

	_, err = Decode(output, labels, Options{Threshold: 0.5, Strict: true})
	require.Error(t, err)

	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 9, malformed.Length)
	assert.Equal(t, 3, malformed.Dropped)
	assert.Equal(t, RecordSize, malformed.RecordSize)
}

func TestCheckRecords(t *testing.T) {
	assert.NoError(t, CheckRecords(0))
	assert.NoError(t, CheckRecords(12))
	assert.Error(t, CheckRecords(5))
	assert.EqualError(t, CheckRecords(13),
		"malformed output: length 13 is not a multiple of 6 (1 trailing values)")
}
