package loop

import (
	"math"
	"time"
)

const (
	DefaultTargetFrameRate     = 60.0
	DefaultFixedTimeStep       = 1.0 / 60.0
	DefaultMaxAllowedDeltaTime = 0.25
)

// Settings describes the timing policy of a Loop. All durations are in
// seconds. A Settings value is never mutated once handed to a Loop; replace
// it with UpdateSettings instead.
type Settings struct {
	// TargetFrameRate is the pacing rate of the self-hosted Runner in Hz.
	// Zero disables pacing.
	TargetFrameRate float64
	// FixedTimeStep is the simulation increment handed to Update when
	// UseFixedTimeStep is set.
	FixedTimeStep float64
	// MaxAllowedDeltaTime bounds a single frame's delta time.
	MaxAllowedDeltaTime float64
	UseFixedTimeStep    bool
}

// DefaultSettings returns 60 Hz pacing with a 1/60 s fixed step and a
// 0.25 s delta clamp.
func DefaultSettings() Settings {
	return Settings{
		TargetFrameRate:     DefaultTargetFrameRate,
		FixedTimeStep:       DefaultFixedTimeStep,
		MaxAllowedDeltaTime: DefaultMaxAllowedDeltaTime,
		UseFixedTimeStep:    true,
	}
}

// NewSettings builds and validates a Settings value.
func NewSettings(targetFrameRate, fixedTimeStep, maxAllowedDeltaTime float64, useFixedTimeStep bool) (Settings, error) {
	s := Settings{
		TargetFrameRate:     targetFrameRate,
		FixedTimeStep:       fixedTimeStep,
		MaxAllowedDeltaTime: maxAllowedDeltaTime,
		UseFixedTimeStep:    useFixedTimeStep,
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports an ErrInvalidSettings error when the fixed step is not
// positive while enabled, the delta clamp is not positive, or the target
// rate is negative.
func (s Settings) Validate() error {
	if !isFinite(s.TargetFrameRate) || s.TargetFrameRate < 0 {
		return wrapf(ErrInvalidSettings, "target frame rate must be >= 0, got %v", s.TargetFrameRate)
	}
	if s.UseFixedTimeStep && (!isFinite(s.FixedTimeStep) || s.FixedTimeStep <= 0) {
		return wrapf(ErrInvalidSettings, "fixed time step must be positive, got %v", s.FixedTimeStep)
	}
	if !isFinite(s.MaxAllowedDeltaTime) || s.MaxAllowedDeltaTime <= 0 {
		return wrapf(ErrInvalidSettings, "max allowed delta time must be positive, got %v", s.MaxAllowedDeltaTime)
	}
	return nil
}

// FramePeriod returns the wall time budget of one paced frame, or zero when
// pacing is disabled. Rates too small to express saturate at the largest
// time.Duration.
func (s Settings) FramePeriod() time.Duration {
	if s.TargetFrameRate <= 0 {
		return 0
	}
	period := float64(time.Second) / s.TargetFrameRate
	if period >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(period)
}

// clamp bounds dt to [0, MaxAllowedDeltaTime]. NaN counts as no elapsed time.
func (s Settings) clamp(dt float64) float64 {
	if math.IsNaN(dt) || dt < 0 {
		return 0
	}
	return math.Min(dt, s.MaxAllowedDeltaTime)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
