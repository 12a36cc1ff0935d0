package main

import (
	"math"

	"github.com/plus3/frameloop/loop"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// pingPong moves a value back and forth between two bounds with an eased
// tween. The tween advances only in fixed steps; AfterUpdate blends the last
// two steps so readers see a smooth value between updates.
//
// Fields are owned by the goroutine that drives the loop.
type pingPong struct {
	loop.BaseSystem

	from, to float32
	duration float32
	fn       ease.TweenFunc

	tween    *gween.Tween
	previous float32
	current  float32
	rendered float32
	bounces  int
}

func newPingPong(from, to, duration float32) *pingPong {
	return &pingPong{from: from, to: to, duration: duration, fn: ease.InOutQuad}
}

func (p *pingPong) Initialize() error {
	p.tween = gween.New(p.from, p.to, p.duration, p.fn)
	p.previous, p.current, p.rendered = p.from, p.from, p.from
	p.bounces = 0
	return nil
}

func (p *pingPong) Update(dt float64) error {
	value, finished := p.tween.Update(float32(dt))
	p.previous, p.current = p.current, value
	if finished {
		p.from, p.to = p.to, p.from
		p.tween = gween.New(p.from, p.to, p.duration, p.fn)
		p.bounces++
	}
	return nil
}

func (p *pingPong) AfterUpdate(alpha float64) error {
	p.rendered = p.previous + (p.current-p.previous)*float32(alpha)
	return nil
}

// Value returns the interpolated value of the last frame.
func (p *pingPong) Value() float32 { return p.rendered }

// workload burns a fixed amount of floating point work per update so the
// stress command has something to measure.
type workload struct {
	loop.BaseSystem

	iterations int
	sink       float64
}

func newWorkload(iterations int) *workload {
	return &workload{iterations: iterations}
}

func (w *workload) Update(dt float64) error {
	x := w.sink + dt
	for i := range w.iterations {
		x = math.Sin(x) + float64(i)*1e-9
	}
	w.sink = x
	return nil
}

// frameCounter counts BeforeUpdate calls, one per executed frame.
type frameCounter struct {
	loop.BaseSystem
	frames int
}

func (c *frameCounter) BeforeUpdate(float64) error {
	c.frames++
	return nil
}
