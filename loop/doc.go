// Package loop schedules ordered groups of systems through a fixed set of
// frame phases.
//
// Systems are composed once: declare a Topology of named, ordered groups,
// register systems against it in a Registry, and Build the Groups aggregate.
// A Loop then runs every frame as
//
//	BeforeUpdate(dt)            once, with the clamped real delta
//	Update(FixedTimeStep) x N   zero or more catch-up steps
//	AfterUpdate(interpolation)  once, with the fraction of a step left over
//
// Groups run in ascending order and systems inside a group run by descending
// priority. A host either calls Loop.Tick every frame or hands the groups to
// a Runner, which paces frames from its own goroutine.
package loop
