package loop

import "sync"

// Hooks lets a host react to loop lifecycle events. OnInitialize and
// OnShutdown errors abort the corresponding Start or Stop.
type Hooks interface {
	OnInitialize() error
	OnShutdown() error
	OnPause()
	OnResume()
	PreUpdate()
	PostUpdate()
}

// NopHooks implements every Hooks method as a no-op. Embed it to override
// only the hooks a host needs.
type NopHooks struct{}

func (NopHooks) OnInitialize() error { return nil }
func (NopHooks) OnShutdown() error   { return nil }
func (NopHooks) OnPause()            {}
func (NopHooks) OnResume()           {}
func (NopHooks) PreUpdate()          {}
func (NopHooks) PostUpdate()         {}

// Adapter binds a host to an externally pumped Loop. The host declares its
// group topology up front, fills a registry from CreateRegistry, and hands it
// back to Initialize exactly once. Every driver call made before Initialize
// fails with ErrNotInitialized.
type Adapter struct {
	hooks    Hooks
	topology *Topology
	opts     []Option

	mu   sync.Mutex
	loop *Loop
}

// NewAdapter validates the group topology and returns an uninitialized
// adapter. A nil hooks value behaves like NopHooks.
func NewAdapter(hooks Hooks, groups []GroupConfig, opts ...Option) (*Adapter, error) {
	topology, err := NewTopology(groups...)
	if err != nil {
		return nil, err
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Adapter{hooks: hooks, topology: topology, opts: opts}, nil
}

// CreateRegistry returns an empty registry bound to the adapter's topology.
func (a *Adapter) CreateRegistry() (*Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loop != nil {
		return nil, ErrAlreadyInitialized
	}
	return NewRegistry(a.topology), nil
}

// Initialize builds the registry's groups and creates the loop.
func (a *Adapter) Initialize(registry *Registry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loop != nil {
		return ErrAlreadyInitialized
	}
	if registry == nil {
		return wrapf(ErrInvalidGroup, "nil registry")
	}

	groups, err := registry.Build()
	if err != nil {
		return err
	}
	l, err := New(groups, a.opts...)
	if err != nil {
		return err
	}
	a.loop = l
	return nil
}

// IsInitialized reports whether Initialize has succeeded.
func (a *Adapter) IsInitialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loop != nil
}

// Loop returns the underlying loop.
func (a *Adapter) Loop() (*Loop, error) {
	return a.ensureInitialized()
}

// IsRunning reports whether the loop is running. It is false before Initialize.
func (a *Adapter) IsRunning() bool {
	l, err := a.ensureInitialized()
	return err == nil && l.IsRunning()
}

// IsPaused reports whether the loop is paused. It is false before Initialize.
func (a *Adapter) IsPaused() bool {
	l, err := a.ensureInitialized()
	return err == nil && l.IsPaused()
}

// Phase returns the loop phase, PhaseNone before Initialize.
func (a *Adapter) Phase() Phase {
	l, err := a.ensureInitialized()
	if err != nil {
		return PhaseNone
	}
	return l.Phase()
}

// Start runs OnInitialize and starts the loop. Starting a running loop
// does nothing.
func (a *Adapter) Start() error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	if l.IsRunning() {
		return nil
	}
	if err := a.hooks.OnInitialize(); err != nil {
		return err
	}
	return l.Start()
}

// Stop runs OnShutdown and stops the loop. Stopping a stopped loop does
// nothing.
func (a *Adapter) Stop() error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	if !l.IsRunning() {
		return nil
	}
	if err := a.hooks.OnShutdown(); err != nil {
		return err
	}
	return l.Stop()
}

// Pause runs OnPause and pauses the loop.
func (a *Adapter) Pause() error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	a.hooks.OnPause()
	l.Pause()
	return nil
}

// Resume runs OnResume and resumes the loop.
func (a *Adapter) Resume() error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	a.hooks.OnResume()
	l.Resume()
	return nil
}

// Tick wraps Loop.Tick with PreUpdate and PostUpdate. Neither hook runs
// while the loop is stopped or paused.
func (a *Adapter) Tick(deltaTime float64) error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	if !l.IsRunning() || l.IsPaused() {
		return nil
	}

	a.hooks.PreUpdate()
	if err := l.Tick(deltaTime); err != nil {
		return err
	}
	a.hooks.PostUpdate()
	return nil
}

// UpdateSettings forwards to Loop.UpdateSettings.
func (a *Adapter) UpdateSettings(settings Settings) error {
	l, err := a.ensureInitialized()
	if err != nil {
		return err
	}
	return l.UpdateSettings(settings)
}

// Close stops the loop if the adapter was initialized.
func (a *Adapter) Close() error {
	if !a.IsInitialized() {
		return nil
	}
	return a.Stop()
}

func (a *Adapter) ensureInitialized() (*Loop, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loop == nil {
		return nil, ErrNotInitialized
	}
	return a.loop, nil
}
