package debugui

import (
	"testing"
	"time"

	"github.com/plus3/frameloop/loop"
	"github.com/stretchr/testify/assert"
)

var (
	_ Target      = (*loop.Loop)(nil)
	_ Target      = (*loop.Runner)(nil)
	_ StatsSource = (*loop.StatsRecorder)(nil)
)

func TestHistoryMillis(t *testing.T) {
	buf := make([]float32, 0, 4)
	out := historyMillis(buf, []time.Duration{
		16 * time.Millisecond,
		1500 * time.Microsecond,
	})
	assert.InDeltaSlice(t, []float32{16, 1.5}, out, 1e-4)

	out = historyMillis(out, []time.Duration{2 * time.Millisecond})
	assert.InDeltaSlice(t, []float32{2}, out, 1e-4)
	assert.Empty(t, historyMillis(out, nil))
}

func TestFPS(t *testing.T) {
	assert.InDelta(t, 60.0, fps(time.Second/60), 0.01)
	assert.Equal(t, 0.0, fps(0))
}
