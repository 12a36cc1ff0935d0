package loop

// Group is a named, ordered sequence of systems. Member order is fixed at
// construction and every lifecycle call visits members in that order.
type Group struct {
	name    string
	systems []System
}

// NewGroup creates a group that runs systems in the given order.
func NewGroup(name string, systems ...System) *Group {
	return &Group{
		name:    name,
		systems: append([]System(nil), systems...),
	}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Len returns the number of member systems.
func (g *Group) Len() int { return len(g.systems) }

// Systems returns a copy of the member systems in execution order.
func (g *Group) Systems() []System {
	return append([]System(nil), g.systems...)
}

// Initialize calls Initialize on every member, stopping at the first error.
func (g *Group) Initialize() error {
	for _, system := range g.systems {
		if err := system.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

// BeforeUpdate calls BeforeUpdate on every member, stopping at the first error.
func (g *Group) BeforeUpdate(dt float64) error {
	for _, system := range g.systems {
		if err := system.BeforeUpdate(dt); err != nil {
			return err
		}
	}
	return nil
}

// Update calls Update on every member, stopping at the first error.
func (g *Group) Update(dt float64) error {
	for _, system := range g.systems {
		if err := system.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

// AfterUpdate calls AfterUpdate on every member, stopping at the first error.
func (g *Group) AfterUpdate(dt float64) error {
	for _, system := range g.systems {
		if err := system.AfterUpdate(dt); err != nil {
			return err
		}
	}
	return nil
}

// Dispose calls Dispose on every member, stopping at the first error.
func (g *Group) Dispose() error {
	for _, system := range g.systems {
		if err := system.Dispose(); err != nil {
			return err
		}
	}
	return nil
}
