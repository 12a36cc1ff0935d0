package loop

import "time"

// TimeInfo is a snapshot of a loop's clocks, published at the end of every
// executed frame. All values are in seconds unless stated otherwise.
type TimeInfo struct {
	// DeltaTime is the clamped, scaled delta of the last frame.
	DeltaTime float64
	// UnscaledDeltaTime is the clamped delta of the last frame before the
	// time scale was applied.
	UnscaledDeltaTime float64
	TimeScale         float64
	// Time is the sum of DeltaTime over every frame since Start.
	Time float64
	// FixedTime is the simulation time advanced by fixed steps since Start.
	FixedTime float64
	// Realtime is the wall time elapsed since Start.
	Realtime       time.Duration
	FrameCount     uint64
	FixedStepCount uint64
}

// frameView is the observable part of the frame state.
type frameView struct {
	accumulator   float64
	interpolation float64
	time          TimeInfo
}
