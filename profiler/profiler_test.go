package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingsRecord(t *testing.T) {
	timings := NewTimings()
	timings.Record("classify", 30*time.Millisecond)
	timings.Record("decode", 2*time.Millisecond)
	timings.Record("classify", 10*time.Millisecond)

	snap := timings.Snapshot()
	require.Len(t, snap, 2)

	assert.Equal(t, "classify", snap[0].Name)
	assert.Equal(t, int64(2), snap[0].Count)
	assert.Equal(t, 10*time.Millisecond, snap[0].Min)
	assert.Equal(t, 30*time.Millisecond, snap[0].Max)
	assert.Equal(t, 20*time.Millisecond, snap[0].Average())

	assert.Equal(t, "decode", snap[1].Name)
}

func TestStartOperation(t *testing.T) {
	timings := NewTimings()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := timings.StartOperation("load")
			done()
		}()
	}
	wg.Wait()

	snap := timings.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(10), snap[0].Count)
}

func TestTimingsLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	timings := NewTimings()
	timings.Record("classify", time.Millisecond)

	timings.Log(logger)

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, "classify", hook.Entries[0].Data["operation"])
	assert.Equal(t, "run complete", hook.LastEntry().Message)
}

func TestAverageEmpty(t *testing.T) {
	assert.Zero(t, TimeTracker{}.Average())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(3<<19))
}
