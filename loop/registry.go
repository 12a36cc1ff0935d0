package loop

import (
	"cmp"
	"slices"
)

// DefaultGroup is the group a system lands in when registered without InGroup.
const DefaultGroup = "Default"

// GroupConfig declares a group and its position among the other groups.
type GroupConfig struct {
	Name  string `yaml:"name"`
	Order int    `yaml:"order"`
}

// Topology is a validated, immutable set of group declarations keyed by name.
type Topology struct {
	byName  map[string]GroupConfig
	configs []GroupConfig
}

// NewTopology validates configs and returns the resulting topology. Group
// names and orders must both be unique.
func NewTopology(configs ...GroupConfig) (*Topology, error) {
	t := &Topology{
		byName:  make(map[string]GroupConfig, len(configs)),
		configs: make([]GroupConfig, 0, len(configs)),
	}
	orders := make(map[int]string, len(configs))

	for _, cfg := range configs {
		if cfg.Name == "" {
			return nil, wrapf(ErrInvalidGroup, "group at order %d has no name", cfg.Order)
		}
		if _, ok := t.byName[cfg.Name]; ok {
			return nil, wrapf(ErrDuplicateGroup, "%s", cfg.Name)
		}
		if other, ok := orders[cfg.Order]; ok {
			return nil, wrapf(ErrDuplicateOrder, "%q and %q both use order %d", other, cfg.Name, cfg.Order)
		}
		t.byName[cfg.Name] = cfg
		orders[cfg.Order] = cfg.Name
		t.configs = append(t.configs, cfg)
	}

	slices.SortStableFunc(t.configs, func(a, b GroupConfig) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return t, nil
}

// Lookup returns the declaration for name.
func (t *Topology) Lookup(name string) (GroupConfig, bool) {
	cfg, ok := t.byName[name]
	return cfg, ok
}

// Groups returns the declarations sorted by ascending order.
func (t *Topology) Groups() []GroupConfig { return slices.Clone(t.configs) }

// RegisterOption tags a system registration.
type RegisterOption func(*registration)

// InGroup places the system in the named group.
func InGroup(name string) RegisterOption {
	return func(r *registration) { r.group = name }
}

// WithPriority sets the in-group priority. Higher priorities run first.
func WithPriority(priority int) RegisterOption {
	return func(r *registration) { r.priority = priority }
}

type registration struct {
	system   System
	group    string
	priority int
	seq      int
}

// Registry collects systems against a topology and builds the Groups a
// loop runs. It is used once, at composition time.
type Registry struct {
	topology      *Topology
	registrations []registration
	built         bool
}

// NewRegistry creates a registry for the given topology. A nil topology
// makes Register and Build fail with ErrInvalidGroup.
func NewRegistry(topology *Topology) *Registry {
	return &Registry{topology: topology}
}

// Topology returns the topology the registry validates against.
func (r *Registry) Topology() *Topology { return r.topology }

// Register adds system to its group. Systems default to DefaultGroup with
// priority 0. Naming a group the topology does not declare is an error.
func (r *Registry) Register(system System, opts ...RegisterOption) error {
	if r.built {
		return wrapf(ErrAlreadyBuilt, "cannot register after Build")
	}
	if r.topology == nil {
		return wrapf(ErrInvalidGroup, "registry has no topology")
	}
	if system == nil {
		return wrapf(ErrInvalidSystem, "nil system")
	}

	reg := registration{system: system, group: DefaultGroup, seq: len(r.registrations)}
	for _, opt := range opts {
		opt(&reg)
	}

	if _, ok := r.topology.Lookup(reg.group); !ok {
		return wrapf(ErrUnknownGroup, "%q", reg.group)
	}

	r.registrations = append(r.registrations, reg)
	return nil
}

// RegisterMany registers every system with the same options, stopping at the
// first error.
func (r *Registry) RegisterMany(systems []System, opts ...RegisterOption) error {
	for _, system := range systems {
		if err := r.Register(system, opts...); err != nil {
			return err
		}
	}
	return nil
}

// Build assembles one Group per declared group, members sorted by
// descending priority with registration order breaking ties. Build may be
// called only once.
func (r *Registry) Build() (*Groups, error) {
	if r.built {
		return nil, wrapf(ErrAlreadyBuilt, "Build called twice")
	}
	if r.topology == nil {
		return nil, wrapf(ErrInvalidGroup, "registry has no topology")
	}
	r.built = true

	buckets := make(map[string][]registration, len(r.topology.configs))
	for _, reg := range r.registrations {
		buckets[reg.group] = append(buckets[reg.group], reg)
	}

	groups := NewGroups()
	for _, cfg := range r.topology.configs {
		bucket := buckets[cfg.Name]
		slices.SortStableFunc(bucket, func(a, b registration) int {
			if a.priority != b.priority {
				return cmp.Compare(b.priority, a.priority)
			}
			return cmp.Compare(a.seq, b.seq)
		})

		systems := make([]System, len(bucket))
		for i, reg := range bucket {
			systems[i] = reg.system
		}

		if err := groups.AddGroup(NewGroup(cfg.Name, systems...), cfg.Order); err != nil {
			return nil, err
		}
	}

	return groups, nil
}
