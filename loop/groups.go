package loop

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// Groups is the ordered aggregate a Loop drives. Groups run in ascending
// order; members of a group run in the group's fixed order.
type Groups struct {
	byOrder *intmap.Map[int, *Group]
	orders  []int
	frozen  bool
}

// NewGroups creates an empty aggregate. Populate it with AddGroup before the
// owning loop starts, or let Registry.Build assemble it.
func NewGroups() *Groups {
	return &Groups{
		byOrder: intmap.New[int, *Group](8),
	}
}

// AddGroup inserts group at the given order. It fails once the aggregate
// has been initialized or when another group already holds that order.
func (gs *Groups) AddGroup(group *Group, order int) error {
	if group == nil {
		return wrapf(ErrInvalidGroup, "nil group at order %d", order)
	}
	if gs.frozen {
		return wrapf(ErrFrozen, "cannot add group %q", group.Name())
	}
	if existing, ok := gs.byOrder.Get(order); ok {
		return wrapf(ErrDuplicateOrder, "order %d is held by %q, cannot add %q", order, existing.Name(), group.Name())
	}

	gs.byOrder.Put(order, group)
	idx, _ := slices.BinarySearch(gs.orders, order)
	gs.orders = slices.Insert(gs.orders, idx, order)
	return nil
}

// Len returns the number of groups.
func (gs *Groups) Len() int { return len(gs.orders) }

// Orders returns the group orders in execution order.
func (gs *Groups) Orders() []int { return slices.Clone(gs.orders) }

// Group returns the group registered at order.
func (gs *Groups) Group(order int) (*Group, bool) {
	return gs.byOrder.Get(order)
}

// Each calls fn for every group in execution order until fn returns false.
func (gs *Groups) Each(fn func(order int, group *Group) bool) {
	for _, order := range gs.orders {
		group, _ := gs.byOrder.Get(order)
		if !fn(order, group) {
			return
		}
	}
}

// Initialize initializes every group and freezes the topology.
func (gs *Groups) Initialize() error {
	gs.frozen = true
	return gs.forEach(func(g *Group) error { return g.Initialize() })
}

// BeforeUpdate forwards to every group in order.
func (gs *Groups) BeforeUpdate(dt float64) error {
	return gs.forEach(func(g *Group) error { return g.BeforeUpdate(dt) })
}

// Update forwards to every group in order.
func (gs *Groups) Update(dt float64) error {
	return gs.forEach(func(g *Group) error { return g.Update(dt) })
}

// AfterUpdate forwards to every group in order.
func (gs *Groups) AfterUpdate(dt float64) error {
	return gs.forEach(func(g *Group) error { return g.AfterUpdate(dt) })
}

// Dispose forwards to every group in order.
func (gs *Groups) Dispose() error {
	return gs.forEach(func(g *Group) error { return g.Dispose() })
}

func (gs *Groups) forEach(call func(*Group) error) error {
	for _, order := range gs.orders {
		group, _ := gs.byOrder.Get(order)
		if err := call(group); err != nil {
			return err
		}
	}
	return nil
}
