package loop

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// stepTolerance is the fraction of a fixed step the catch-up loop forgives
// so that deltas summing to exactly N steps produce N updates despite
// binary rounding.
const stepTolerance = 1e-6

// Option configures a Loop or Runner.
type Option func(*options)

type options struct {
	settings          Settings
	instrumentation   Instrumentation
	logger            *slog.Logger
	now               func() time.Time
	pausePollInterval time.Duration
}

func defaultOptions() options {
	return options{
		settings:          DefaultSettings(),
		logger:            slog.New(slog.DiscardHandler),
		now:               time.Now,
		pausePollInterval: DefaultPausePollInterval,
	}
}

// WithSettings sets the initial settings. They are validated by New.
func WithSettings(settings Settings) Option {
	return func(o *options) { o.settings = settings }
}

// WithInstrumentation installs a measurement sink.
func WithInstrumentation(instrumentation Instrumentation) Option {
	return func(o *options) { o.instrumentation = instrumentation }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces the monotonic clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Loop is the frame scheduler. A host drives it by calling Tick once per
// frame; Runner drives it from its own goroutine.
//
// Start, Stop and Tick are expected to be called from one goroutine at a
// time. Pause, Resume, UpdateSettings, SetTimeScale and every observer are
// safe to call from any goroutine.
type Loop struct {
	groups       *Groups
	logger       *slog.Logger
	instr        Instrumentation
	instrumented bool
	now          func() time.Time

	lifecycleMu sync.Mutex

	settingsMu sync.Mutex
	settings   Settings

	running   atomic.Bool
	paused    atomic.Bool
	phase     atomic.Int32
	timeScale atomic.Uint64

	// Frame state, owned by whichever goroutine executes frames.
	accumulator   float64
	interpolation float64
	clock         TimeInfo
	startedAt     time.Time

	viewMu sync.RWMutex
	view   frameView
}

// New creates a stopped loop over groups.
func New(groups *Groups, opts ...Option) (*Loop, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newLoop(groups, o)
}

func newLoop(groups *Groups, o options) (*Loop, error) {
	if groups == nil {
		return nil, wrapf(ErrInvalidGroup, "nil groups")
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		groups:   groups,
		logger:   o.logger,
		instr:    NopInstrumentation{},
		now:      o.now,
		settings: o.settings,
	}
	if o.instrumentation != nil {
		if _, nop := o.instrumentation.(NopInstrumentation); !nop {
			l.instr = o.instrumentation
			l.instrumented = true
		}
	}
	l.timeScale.Store(math.Float64bits(1))
	l.view.time.TimeScale = 1
	return l, nil
}

// Phase returns the stage most recently entered. It is PhaseNone before the
// first Start and after Stop.
func (l *Loop) Phase() Phase { return Phase(l.phase.Load()) }

// IsRunning reports whether the loop has been started and not stopped.
func (l *Loop) IsRunning() bool { return l.running.Load() }

// IsPaused reports whether Tick is currently suspended.
func (l *Loop) IsPaused() bool { return l.paused.Load() }

// Settings returns the active settings.
func (l *Loop) Settings() Settings {
	l.settingsMu.Lock()
	defer l.settingsMu.Unlock()
	return l.settings
}

// UpdateSettings validates settings and makes them active from the next
// Tick on. A tick already in progress keeps its snapshot.
func (l *Loop) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	l.settingsMu.Lock()
	l.settings = settings
	l.settingsMu.Unlock()

	l.logger.Info("loop settings updated",
		"target_frame_rate", settings.TargetFrameRate,
		"fixed_time_step", settings.FixedTimeStep,
		"max_allowed_delta_time", settings.MaxAllowedDeltaTime,
		"use_fixed_time_step", settings.UseFixedTimeStep)
	return nil
}

// TimeScale returns the factor applied to every delta before clamping.
func (l *Loop) TimeScale() float64 { return math.Float64frombits(l.timeScale.Load()) }

// SetTimeScale sets the factor applied to every delta before clamping. Zero
// freezes simulated time while phases keep running.
func (l *Loop) SetTimeScale(scale float64) error {
	if !isFinite(scale) || scale < 0 {
		return wrapf(ErrInvalidSettings, "time scale must be >= 0, got %v", scale)
	}
	l.timeScale.Store(math.Float64bits(scale))
	return nil
}

// Accumulator returns the unsimulated time left after the last frame.
func (l *Loop) Accumulator() float64 {
	l.viewMu.RLock()
	defer l.viewMu.RUnlock()
	return l.view.accumulator
}

// Interpolation returns the fraction of a fixed step left in the accumulator
// after the last frame, or 1 in variable-step mode.
func (l *Loop) Interpolation() float64 {
	l.viewMu.RLock()
	defer l.viewMu.RUnlock()
	return l.view.interpolation
}

// Time returns the clock snapshot of the last frame.
func (l *Loop) Time() TimeInfo {
	l.viewMu.RLock()
	defer l.viewMu.RUnlock()
	return l.view.time
}

// Start initializes every group and marks the loop running. Calling Start on
// a running loop does nothing. An Initialize error is returned unchanged and
// leaves the groups partially initialized.
func (l *Loop) Start() error {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if l.running.Load() {
		return nil
	}

	l.setPhase(PhaseInitializing)
	if err := l.groups.Initialize(); err != nil {
		l.setPhase(PhaseNone)
		l.logger.Error("loop initialize failed", "error", err)
		return err
	}

	l.resetFrameState()
	l.startedAt = l.now()
	l.running.Store(true)
	l.logger.Debug("loop started", "groups", l.groups.Len())
	return nil
}

// Stop marks the loop stopped and disposes every group. Calling Stop on a
// stopped loop does nothing.
func (l *Loop) Stop() error {
	if !l.halt() {
		return nil
	}
	return l.teardown()
}

// Close stops the loop if it is running.
func (l *Loop) Close() error { return l.Stop() }

// Pause suspends Tick without touching the accumulator, phase or systems.
func (l *Loop) Pause() {
	if l.paused.CompareAndSwap(false, true) {
		l.logger.Debug("loop paused")
	}
}

// Resume lifts a Pause.
func (l *Loop) Resume() {
	if l.paused.CompareAndSwap(true, false) {
		l.logger.Debug("loop resumed")
	}
}

// Tick executes one frame with deltaTime seconds of elapsed real time. It does
// nothing while the loop is stopped or paused. deltaTime is scaled by the
// time scale and clamped to [0, MaxAllowedDeltaTime]. A system error aborts
// the frame and is returned unchanged.
func (l *Loop) Tick(deltaTime float64) error {
	if !l.running.Load() || l.paused.Load() {
		return nil
	}

	settings := l.Settings()

	var start time.Time
	if l.instrumented {
		start = l.now()
	}

	err := l.executeFrame(deltaTime, settings)

	if l.instrumented {
		l.instr.RecordFrame(l.now().Sub(start))
	}
	return err
}

// halt flips the running flag and reports whether this call did it.
func (l *Loop) halt() bool {
	return l.running.CompareAndSwap(true, false)
}

func (l *Loop) teardown() error {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	frames := l.clock.FrameCount
	l.setPhase(PhaseDisposing)
	err := l.groups.Dispose()
	l.resetFrameState()
	l.setPhase(PhaseNone)

	if err != nil {
		l.logger.Error("loop dispose failed", "error", err)
		return err
	}
	l.logger.Debug("loop stopped", "frames", frames)
	return nil
}

// executeFrame runs BeforeUpdate once, the fixed-step catch-up loop (or a
// single variable update), then AfterUpdate with the interpolation factor.
func (l *Loop) executeFrame(rawDelta float64, settings Settings) error {
	scale := l.TimeScale()
	deltaTime := settings.clamp(rawDelta * scale)
	defer l.publish()

	l.clock.UnscaledDeltaTime = settings.clamp(rawDelta)
	l.clock.DeltaTime = deltaTime
	l.clock.TimeScale = scale
	l.clock.Time += deltaTime
	l.clock.FrameCount++
	if !l.startedAt.IsZero() {
		l.clock.Realtime = l.now().Sub(l.startedAt)
	}

	l.setPhase(PhaseBeforeUpdate)
	if err := l.groups.BeforeUpdate(deltaTime); err != nil {
		return err
	}

	if settings.UseFixedTimeStep {
		step := settings.FixedTimeStep
		l.accumulator += deltaTime
		l.setPhase(PhaseFixedUpdate)

		for l.accumulator+step*stepTolerance >= step {
			if err := l.update(step); err != nil {
				return err
			}
			l.accumulator = math.Max(l.accumulator-step, 0)
			l.clock.FixedTime += step
			l.clock.FixedStepCount++
		}

		l.interpolation = l.accumulator / step
	} else {
		l.setPhase(PhaseUpdate)
		if err := l.update(deltaTime); err != nil {
			return err
		}
		l.interpolation = 1
	}

	l.setPhase(PhaseAfterUpdate)
	return l.groups.AfterUpdate(l.interpolation)
}

func (l *Loop) update(dt float64) error {
	if !l.instrumented {
		return l.groups.Update(dt)
	}

	start := l.now()
	err := l.groups.Update(dt)
	l.instr.RecordFixedStep(l.now().Sub(start))
	return err
}

func (l *Loop) setPhase(p Phase) { l.phase.Store(int32(p)) }

func (l *Loop) resetFrameState() {
	l.accumulator = 0
	l.interpolation = 0
	l.clock = TimeInfo{TimeScale: l.TimeScale()}
	l.startedAt = time.Time{}
	l.publish()
}

func (l *Loop) publish() {
	l.viewMu.Lock()
	l.view = frameView{
		accumulator:   l.accumulator,
		interpolation: l.interpolation,
		time:          l.clock,
	}
	l.viewMu.Unlock()
}
