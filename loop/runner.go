package loop

import (
	"sync"
	"time"
)

// DefaultPausePollInterval is how long the pump sleeps between pause checks.
const DefaultPausePollInterval = time.Millisecond

// ErrStillStopping is returned by Runner.Start while the previous run's pump
// goroutine has not exited yet.
var ErrStillStopping = stateError("previous run is still stopping")

// WithPausePollInterval sets how often a paused Runner re-checks its flags.
func WithPausePollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pausePollInterval = d
		}
	}
}

// Runner drives a Loop from its own goroutine. It measures the delta time
// with the monotonic clock, executes the same frame algorithm as Loop.Tick
// and sleeps away whatever is left of the frame period.
//
// Start, Stop, Pause, Resume and UpdateSettings may be called from any
// goroutine; Stop only signals the pump and never waits on a frame.
type Runner struct {
	loop      *Loop
	pausePoll time.Duration

	mu   sync.Mutex
	wake chan struct{}
	done chan struct{}
	err  error
}

// NewRunner creates a stopped self-hosted runner over groups.
func NewRunner(groups *Groups, opts ...Option) (*Runner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l, err := newLoop(groups, o)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	close(done)
	return &Runner{
		loop:      l,
		pausePoll: o.pausePollInterval,
		done:      done,
	}, nil
}

// Phase returns the stage most recently entered by the pump.
func (r *Runner) Phase() Phase { return r.loop.Phase() }

// IsRunning reports whether the runner has been started and not stopped.
func (r *Runner) IsRunning() bool { return r.loop.IsRunning() }

// IsPaused reports whether the pump is idling.
func (r *Runner) IsPaused() bool { return r.loop.IsPaused() }

// Pause makes the pump idle without executing frames.
func (r *Runner) Pause() { r.loop.Pause() }

// Resume lifts a Pause. The time spent paused is not simulated.
func (r *Runner) Resume() { r.loop.Resume() }

// Settings returns the active settings.
func (r *Runner) Settings() Settings { return r.loop.Settings() }

// UpdateSettings swaps the settings; the pump picks them up on its next frame.
func (r *Runner) UpdateSettings(settings Settings) error { return r.loop.UpdateSettings(settings) }

// TimeScale returns the factor applied to every measured delta.
func (r *Runner) TimeScale() float64 { return r.loop.TimeScale() }

// SetTimeScale sets the factor applied to every measured delta.
func (r *Runner) SetTimeScale(scale float64) error { return r.loop.SetTimeScale(scale) }

// Accumulator returns the unsimulated time left after the last frame.
func (r *Runner) Accumulator() float64 { return r.loop.Accumulator() }

// Interpolation returns the interpolation factor of the last frame.
func (r *Runner) Interpolation() float64 { return r.loop.Interpolation() }

// Time returns the clock snapshot of the last frame.
func (r *Runner) Time() TimeInfo { return r.loop.Time() }

// Start initializes the groups on the calling goroutine, so configuration
// and Initialize errors surface immediately, then launches the pump.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loop.IsRunning() {
		return nil
	}
	select {
	case <-r.done:
	default:
		return ErrStillStopping
	}

	if err := r.loop.Start(); err != nil {
		return err
	}

	r.wake = make(chan struct{})
	r.done = make(chan struct{})
	r.err = nil
	go r.pump(r.wake, r.done)
	return nil
}

// Stop asks the pump to exit. The pump finishes the frame it is executing,
// disposes the groups and closes Done. Use Wait to observe the outcome.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loop.halt() {
		close(r.wake)
	}
	return nil
}

// Close stops the runner and waits for the pump to exit.
func (r *Runner) Close() error {
	if err := r.Stop(); err != nil {
		return err
	}
	return r.Wait()
}

// Done is closed once the pump has exited and the groups are disposed.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Wait blocks until the pump has exited and returns the frame or dispose
// error that ended the run, if any.
func (r *Runner) Wait() error {
	<-r.Done()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Runner) pump(wake <-chan struct{}, done chan<- struct{}) {
	var runErr error
	defer func() {
		if r.loop.halt() {
			// a frame error ended the run, Stop was never called
			r.mu.Lock()
			close(r.wake)
			r.mu.Unlock()
		}
		if err := r.loop.teardown(); err != nil && runErr == nil {
			runErr = err
		}

		r.mu.Lock()
		r.err = runErr
		r.mu.Unlock()
		close(done)
	}()

	previous := r.loop.now()
	for r.loop.IsRunning() {
		if r.loop.IsPaused() {
			if !sleep(wake, r.pausePoll) {
				return
			}
			previous = r.loop.now()
			continue
		}

		settings := r.loop.Settings()
		frameStart := r.loop.now()
		elapsed := frameStart.Sub(previous).Seconds()
		previous = frameStart

		runErr = r.loop.executeFrame(elapsed, settings)

		frameTime := r.loop.now().Sub(frameStart)
		if r.loop.instrumented {
			r.loop.instr.RecordFrame(frameTime)
		}
		if runErr != nil {
			r.loop.logger.Error("runner frame failed", "error", runErr)
			return
		}

		if period := settings.FramePeriod(); period > frameTime {
			if !sleep(wake, period-frameTime) {
				return
			}
		}
	}
}

// sleep waits for d and reports false when wake fired first.
func sleep(wake <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-wake:
		return false
	case <-timer.C:
		return true
	}
}
