package loop

// Phase is the stage of frame execution a Loop is currently in.
type Phase int32

const (
	// PhaseNone is reported while the loop is idle, stopped or between frames.
	PhaseNone Phase = iota
	// PhaseInitializing is reported while Start runs Initialize on every group.
	PhaseInitializing
	// PhaseBeforeUpdate runs once per frame with the variable delta time.
	PhaseBeforeUpdate
	// PhaseFixedUpdate runs the catch-up loop in fixed-step mode.
	PhaseFixedUpdate
	// PhaseUpdate runs a single variable-step update.
	PhaseUpdate
	// PhaseAfterUpdate runs once per frame with the interpolation factor.
	PhaseAfterUpdate
	// PhaseDisposing is reported while Stop runs Dispose on every group.
	PhaseDisposing
)

// String returns the string representation of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "None"
	case PhaseInitializing:
		return "Initializing"
	case PhaseBeforeUpdate:
		return "BeforeUpdate"
	case PhaseFixedUpdate:
		return "FixedUpdate"
	case PhaseUpdate:
		return "Update"
	case PhaseAfterUpdate:
		return "AfterUpdate"
	case PhaseDisposing:
		return "Disposing"
	default:
		return "Unknown"
	}
}
