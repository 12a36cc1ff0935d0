package loop_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/plus3/frameloop/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const step = 1.0 / 60.0

func startedLoop(t *testing.T, settings loop.Settings, systems ...loop.System) *loop.Loop {
	t.Helper()
	l, err := loop.New(singleGroup(systems...), loop.WithSettings(settings))
	require.NoError(t, err)
	require.NoError(t, l.Start())
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func TestNew(t *testing.T) {
	t.Run("rejects nil groups", func(t *testing.T) {
		_, err := loop.New(nil)
		assert.ErrorIs(t, err, loop.ErrConfig)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		bad := loop.DefaultSettings()
		bad.FixedTimeStep = 0
		_, err := loop.New(loop.NewGroups(), loop.WithSettings(bad))
		assert.ErrorIs(t, err, loop.ErrInvalidSettings)
	})

	t.Run("starts idle", func(t *testing.T) {
		l, err := loop.New(loop.NewGroups())
		require.NoError(t, err)
		assert.False(t, l.IsRunning())
		assert.False(t, l.IsPaused())
		assert.Equal(t, loop.PhaseNone, l.Phase())
		assert.Equal(t, loop.DefaultSettings(), l.Settings())
		assert.Equal(t, 1.0, l.TimeScale())
	})
}

func TestStartStop(t *testing.T) {
	t.Run("start and stop are idempotent", func(t *testing.T) {
		sys := &CountingSystem{}
		l, err := loop.New(singleGroup(sys))
		require.NoError(t, err)

		require.NoError(t, l.Stop())
		assert.Equal(t, int64(0), sys.Disposed.Load())

		require.NoError(t, l.Start())
		require.NoError(t, l.Start())
		assert.Equal(t, int64(1), sys.Initialized.Load())
		assert.True(t, l.IsRunning())

		require.NoError(t, l.Stop())
		require.NoError(t, l.Stop())
		assert.Equal(t, int64(1), sys.Disposed.Load())
		assert.False(t, l.IsRunning())
		assert.Equal(t, loop.PhaseNone, l.Phase())
	})

	t.Run("stop resets frame state", func(t *testing.T) {
		l := startedLoop(t, loop.DefaultSettings(), &CountingSystem{})
		require.NoError(t, l.Tick(step*1.5))
		assert.InDelta(t, step*0.5, l.Accumulator(), 1e-12)

		require.NoError(t, l.Stop())
		assert.Equal(t, 0.0, l.Accumulator())
		assert.Equal(t, 0.0, l.Interpolation())
		assert.Equal(t, uint64(0), l.Time().FrameCount)
	})

	t.Run("stop logs the frames executed", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		l, err := loop.New(singleGroup(&CountingSystem{}), loop.WithLogger(logger))
		require.NoError(t, err)
		require.NoError(t, l.Start())

		for range 5 {
			require.NoError(t, l.Tick(step))
		}
		require.NoError(t, l.Stop())
		assert.Contains(t, buf.String(), `msg="loop stopped" frames=5`)
	})

	t.Run("restart initializes again", func(t *testing.T) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)
		require.NoError(t, l.Stop())
		require.NoError(t, l.Start())
		assert.Equal(t, int64(2), sys.Initialized.Load())
	})

	t.Run("initialize error propagates", func(t *testing.T) {
		boom := errors.New("no gpu")
		l, err := loop.New(singleGroup(&FailingSystem{FailOn: "Initialize", Err: boom}))
		require.NoError(t, err)

		assert.Same(t, boom, l.Start())
		assert.False(t, l.IsRunning())
		assert.Equal(t, loop.PhaseNone, l.Phase())
	})

	t.Run("dispose error propagates", func(t *testing.T) {
		boom := errors.New("leak")
		l := startedLoop(t, loop.DefaultSettings(), &FailingSystem{FailOn: "Dispose", Err: boom})

		assert.Same(t, boom, l.Stop())
		assert.False(t, l.IsRunning())
		assert.Equal(t, loop.PhaseNone, l.Phase())
		assert.NoError(t, l.Stop())
	})
}

func TestTickPhases(t *testing.T) {
	t.Run("no-op before start", func(t *testing.T) {
		sys := &CountingSystem{}
		l, err := loop.New(singleGroup(sys))
		require.NoError(t, err)

		require.NoError(t, l.Tick(step))
		assert.Equal(t, int64(0), sys.BeforeCount.Load())
	})

	t.Run("fixed step frame order", func(t *testing.T) {
		log := &callLog{}
		l := startedLoop(t, loop.DefaultSettings(), &RecordingSystem{Name: "s", Log: log})
		log.reset()

		require.NoError(t, l.Tick(step*2.5))
		assert.Equal(t, []string{"s.BeforeUpdate", "s.Update", "s.Update", "s.AfterUpdate"}, log.all())
		assert.Equal(t, loop.PhaseAfterUpdate, l.Phase())
		assert.InDelta(t, 0.5, l.Interpolation(), 1e-9)
	})

	t.Run("before update gets the variable delta, update the fixed step", func(t *testing.T) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)

		require.NoError(t, l.Tick(0.04))
		assert.Equal(t, []float64{0.04}, sys.BeforeDeltas)
		assert.Equal(t, []float64{step, step}, sys.updateDeltas())
		require.Len(t, sys.AfterValues, 1)
		assert.InDelta(t, (0.04-2*step)/step, sys.AfterValues[0], 1e-9)
	})

	t.Run("variable step runs update once with interpolation 1", func(t *testing.T) {
		settings := loop.DefaultSettings()
		settings.UseFixedTimeStep = false
		sys := &CountingSystem{}
		l := startedLoop(t, settings, sys)

		require.NoError(t, l.Tick(0.033))
		assert.Equal(t, []float64{0.033}, sys.updateDeltas())
		assert.Equal(t, []float64{1}, sys.AfterValues)
		assert.Equal(t, 1.0, l.Interpolation())
		assert.Equal(t, loop.PhaseAfterUpdate, l.Phase())
	})

	t.Run("small delta runs no fixed step", func(t *testing.T) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)

		require.NoError(t, l.Tick(step/4))
		assert.Equal(t, int64(1), sys.BeforeCount.Load())
		assert.Equal(t, int64(0), sys.UpdateCount.Load())
		assert.Equal(t, int64(1), sys.AfterCount.Load())
		assert.InDelta(t, 0.25, l.Interpolation(), 1e-9)
	})
}

func TestDeterminism(t *testing.T) {
	sequences := map[string][]float64{
		"one step per tick": {step, step, step, step, step, step},
		"uneven deltas":     {step * 0.5, step * 1.5, step * 3, step, step * 2},
		"tiny slices":       {step / 3, step / 3, step / 3, step / 4, step / 4, step / 4, step / 4},
		"one big tick":      {step * 12},
	}

	for name, deltas := range sequences {
		t.Run(name, func(t *testing.T) {
			sys := &CountingSystem{}
			l := startedLoop(t, loop.DefaultSettings(), sys)

			total := 0.0
			for _, dt := range deltas {
				require.NoError(t, l.Tick(dt))
				total += dt
			}

			expected := int64(total/step + 0.5)
			assert.Equal(t, expected, sys.UpdateCount.Load())
			assert.InDelta(t, 0, l.Accumulator(), 1e-9)
			assert.InDelta(t, 0, l.Interpolation(), 1e-6)
			for _, dt := range sys.updateDeltas() {
				assert.Equal(t, step, dt)
			}
		})
	}
}

func TestAccumulatorBound(t *testing.T) {
	l := startedLoop(t, loop.DefaultSettings(), &CountingSystem{})

	deltas := []float64{0.001, 0.07, 0.0166, 0.3, 0, 0.049, 0.0167, 0.2, 0.00001, 0.125}
	for _, dt := range deltas {
		require.NoError(t, l.Tick(dt))
		acc := l.Accumulator()
		assert.GreaterOrEqual(t, acc, 0.0)
		assert.Less(t, acc, step)

		interp := l.Interpolation()
		assert.GreaterOrEqual(t, interp, 0.0)
		assert.Less(t, interp, 1.0)
	}
}

func TestClamp(t *testing.T) {
	run := func(dt float64) (*CountingSystem, *loop.Loop) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)
		require.NoError(t, l.Tick(dt))
		return sys, l
	}

	huge, hugeLoop := run(10.0)
	capped, cappedLoop := run(0.25)

	assert.Equal(t, capped.UpdateCount.Load(), huge.UpdateCount.Load())
	assert.Equal(t, capped.BeforeDeltas, huge.BeforeDeltas)
	assert.Equal(t, cappedLoop.Accumulator(), hugeLoop.Accumulator())
	assert.Equal(t, cappedLoop.Interpolation(), hugeLoop.Interpolation())
	assert.Equal(t, int64(15), huge.UpdateCount.Load())

	negative, _ := run(-1)
	assert.Equal(t, []float64{0}, negative.BeforeDeltas)
	assert.Equal(t, int64(0), negative.UpdateCount.Load())
}

func TestPausePreservesState(t *testing.T) {
	paused := &CountingSystem{}
	l := startedLoop(t, loop.DefaultSettings(), paused)
	require.NoError(t, l.Tick(step*1.25))

	accBefore := l.Accumulator()
	phaseBefore := l.Phase()
	callsBefore := paused.BeforeCount.Load() + paused.UpdateCount.Load() + paused.AfterCount.Load()

	l.Pause()
	assert.True(t, l.IsPaused())
	for range 5 {
		require.NoError(t, l.Tick(0.1))
	}

	assert.Equal(t, accBefore, l.Accumulator())
	assert.Equal(t, phaseBefore, l.Phase())
	assert.Equal(t, callsBefore, paused.BeforeCount.Load()+paused.UpdateCount.Load()+paused.AfterCount.Load())

	l.Resume()
	assert.False(t, l.IsPaused())
	require.NoError(t, l.Tick(step*0.75))

	reference := &CountingSystem{}
	ref := startedLoop(t, loop.DefaultSettings(), reference)
	require.NoError(t, ref.Tick(step*1.25))
	require.NoError(t, ref.Tick(step*0.75))

	assert.Equal(t, reference.UpdateCount.Load(), paused.UpdateCount.Load())
	assert.InDelta(t, ref.Accumulator(), l.Accumulator(), 1e-12)
}

func TestUpdateSettings(t *testing.T) {
	t.Run("new step applies from the next tick", func(t *testing.T) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)

		require.NoError(t, l.Tick(step*2))
		assert.Equal(t, []float64{step, step}, sys.updateDeltas())

		slower := loop.DefaultSettings()
		slower.FixedTimeStep = 0.05
		require.NoError(t, l.UpdateSettings(slower))
		assert.Equal(t, slower, l.Settings())
		assert.Equal(t, []float64{step, step}, sys.updateDeltas())

		require.NoError(t, l.Tick(0.1))
		assert.Equal(t, []float64{step, step, 0.05, 0.05}, sys.updateDeltas())
	})

	t.Run("invalid settings are rejected", func(t *testing.T) {
		l := startedLoop(t, loop.DefaultSettings())
		bad := loop.DefaultSettings()
		bad.MaxAllowedDeltaTime = -1

		assert.ErrorIs(t, l.UpdateSettings(bad), loop.ErrInvalidSettings)
		assert.Equal(t, loop.DefaultSettings(), l.Settings())
	})

	t.Run("concurrent swaps never tear a tick", func(t *testing.T) {
		sys := &CountingSystem{}
		l := startedLoop(t, loop.DefaultSettings(), sys)

		a := loop.DefaultSettings()
		b := loop.DefaultSettings()
		b.FixedTimeStep = 0.02

		var wg sync.WaitGroup
		stop := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				next := a
				if i%2 == 1 {
					next = b
				}
				_ = l.UpdateSettings(next)
			}
		}()

		for range 200 {
			require.NoError(t, l.Tick(0.05))
		}
		close(stop)
		wg.Wait()

		for _, dt := range sys.updateDeltas() {
			assert.True(t, dt == a.FixedTimeStep || dt == b.FixedTimeStep, "unexpected step %v", dt)
		}
	})
}

func TestTimeScale(t *testing.T) {
	sys := &CountingSystem{}
	l := startedLoop(t, loop.DefaultSettings(), sys)

	require.NoError(t, l.SetTimeScale(2))
	require.NoError(t, l.Tick(step))
	assert.Equal(t, int64(2), sys.UpdateCount.Load())

	info := l.Time()
	assert.InDelta(t, 2*step, info.DeltaTime, 1e-12)
	assert.InDelta(t, step, info.UnscaledDeltaTime, 1e-12)
	assert.Equal(t, 2.0, info.TimeScale)

	require.NoError(t, l.SetTimeScale(0))
	require.NoError(t, l.Tick(step))
	assert.Equal(t, int64(2), sys.UpdateCount.Load())
	assert.Equal(t, int64(2), sys.BeforeCount.Load())

	assert.ErrorIs(t, l.SetTimeScale(-1), loop.ErrInvalidSettings)
}

func TestTimeInfo(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	l, err := loop.New(singleGroup(&CountingSystem{}), loop.WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, l.Start())
	defer l.Stop()

	now = now.Add(40 * time.Millisecond)
	require.NoError(t, l.Tick(step*1.5))
	now = now.Add(40 * time.Millisecond)
	require.NoError(t, l.Tick(step*1.5))

	info := l.Time()
	assert.Equal(t, uint64(2), info.FrameCount)
	assert.Equal(t, uint64(3), info.FixedStepCount)
	assert.InDelta(t, step*3, info.Time, 1e-12)
	assert.InDelta(t, step*3, info.FixedTime, 1e-12)
	assert.Equal(t, 80*time.Millisecond, info.Realtime)
}

func TestSystemErrorsPropagate(t *testing.T) {
	boom := errors.New("diverged")
	after := &CountingSystem{}
	l := startedLoop(t, loop.DefaultSettings(), &FailingSystem{FailOn: "Update", Err: boom}, after)

	err := l.Tick(step * 3)
	assert.Same(t, boom, err)
	assert.Equal(t, int64(0), after.UpdateCount.Load())
	assert.Equal(t, int64(0), after.AfterCount.Load())
	assert.Equal(t, loop.PhaseFixedUpdate, l.Phase())
	assert.InDelta(t, step*3, l.Accumulator(), 1e-12)
	assert.True(t, l.IsRunning())
}

func TestInstrumentation(t *testing.T) {
	stats := loop.NewStatsRecorder(8)
	l, err := loop.New(singleGroup(&CountingSystem{}), loop.WithInstrumentation(stats))
	require.NoError(t, err)
	require.NoError(t, l.Start())
	defer l.Stop()

	require.NoError(t, l.Tick(step*3))
	require.NoError(t, l.Tick(step/2))

	snapshot := stats.Snapshot()
	assert.Equal(t, int64(2), snapshot.Frame.Count)
	assert.Equal(t, int64(3), snapshot.FixedStep.Count)
	assert.Len(t, snapshot.History, 2)

	l.Pause()
	require.NoError(t, l.Tick(step))
	assert.Equal(t, int64(2), stats.Snapshot().Frame.Count)
}
