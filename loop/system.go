package loop

// System is a unit of per-frame logic driven by a Loop. Every hook is
// synchronous, and an error returned from any of them aborts the current
// pass and surfaces unchanged to the caller of Start, Tick or Stop.
//
// BeforeUpdate receives the clamped variable delta time, Update receives the
// fixed step (or the variable delta time when fixed stepping is off), and
// AfterUpdate receives the interpolation factor.
type System interface {
	Initialize() error
	BeforeUpdate(dt float64) error
	Update(dt float64) error
	AfterUpdate(dt float64) error
	Dispose() error
}

// BaseSystem implements every System hook as a no-op. Embed it in concrete
// systems to override only the hooks they need.
type BaseSystem struct{}

func (BaseSystem) Initialize() error             { return nil }
func (BaseSystem) BeforeUpdate(dt float64) error { return nil }
func (BaseSystem) Update(dt float64) error       { return nil }
func (BaseSystem) AfterUpdate(dt float64) error  { return nil }
func (BaseSystem) Dispose() error                { return nil }
