package loop_test

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/plus3/frameloop/loop"
)

// callLog records lifecycle calls across systems in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// RecordingSystem logs every hook it receives into a shared callLog.
type RecordingSystem struct {
	Name string
	Log  *callLog
}

func (s *RecordingSystem) Initialize() error {
	s.Log.add("%s.Initialize", s.Name)
	return nil
}

func (s *RecordingSystem) BeforeUpdate(dt float64) error {
	s.Log.add("%s.BeforeUpdate", s.Name)
	return nil
}

func (s *RecordingSystem) Update(dt float64) error {
	s.Log.add("%s.Update", s.Name)
	return nil
}

func (s *RecordingSystem) AfterUpdate(dt float64) error {
	s.Log.add("%s.AfterUpdate", s.Name)
	return nil
}

func (s *RecordingSystem) Dispose() error {
	s.Log.add("%s.Dispose", s.Name)
	return nil
}

// CountingSystem counts hook invocations. Counters are atomic so a Runner's
// pump goroutine can drive it while tests observe.
type CountingSystem struct {
	Initialized  atomic.Int64
	BeforeCount  atomic.Int64
	UpdateCount  atomic.Int64
	AfterCount   atomic.Int64
	Disposed     atomic.Int64
	mu           sync.Mutex
	UpdateDeltas []float64
	BeforeDeltas []float64
	AfterValues  []float64
}

func (s *CountingSystem) Initialize() error {
	s.Initialized.Add(1)
	return nil
}

func (s *CountingSystem) BeforeUpdate(dt float64) error {
	s.BeforeCount.Add(1)
	s.mu.Lock()
	s.BeforeDeltas = append(s.BeforeDeltas, dt)
	s.mu.Unlock()
	return nil
}

func (s *CountingSystem) Update(dt float64) error {
	s.UpdateCount.Add(1)
	s.mu.Lock()
	s.UpdateDeltas = append(s.UpdateDeltas, dt)
	s.mu.Unlock()
	return nil
}

func (s *CountingSystem) AfterUpdate(dt float64) error {
	s.AfterCount.Add(1)
	s.mu.Lock()
	s.AfterValues = append(s.AfterValues, dt)
	s.mu.Unlock()
	return nil
}

func (s *CountingSystem) Dispose() error {
	s.Disposed.Add(1)
	return nil
}

func (s *CountingSystem) updateDeltas() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.UpdateDeltas...)
}

// FailingSystem fails the hook named by FailOn.
type FailingSystem struct {
	loop.BaseSystem
	FailOn string
	Err    error
}

func (s *FailingSystem) Initialize() error    { return s.fail("Initialize") }
func (s *FailingSystem) Update(float64) error { return s.fail("Update") }
func (s *FailingSystem) Dispose() error       { return s.fail("Dispose") }

func (s *FailingSystem) fail(hook string) error {
	if s.FailOn == hook {
		return s.Err
	}
	return nil
}

func singleGroup(systems ...loop.System) *loop.Groups {
	groups := loop.NewGroups()
	if err := groups.AddGroup(loop.NewGroup(loop.DefaultGroup, systems...), 0); err != nil {
		panic(err)
	}
	return groups
}
