// internal/model/core/types.go
package core

import "time"

// Point is a 2D position in arena coordinates (units, origin top-left).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Animal represents one tracked animal in the arena.
type Animal struct {
	ID  uint  `json:"id"`
	Pos Point `json:"pos"`

	// Velocity components, re-derived every tick by the wander step.
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// BaseSpeed is the per-individual gait, fixed at creation,
	// drawn uniformly from [0.6, 1.8).
	BaseSpeed float64 `json:"baseSpeed"`

	// SpeedMultiplier is the global scale applied to BaseSpeed.
	SpeedMultiplier float64 `json:"speedMultiplier"`

	// Inside is the last classified containment state. New animals are
	// assumed compliant until the first tick proves otherwise.
	Inside bool `json:"inside"`
}

// AlertKind is the direction of a fence crossing.
type AlertKind string

const (
	AlertLeft      AlertKind = "LEFT"
	AlertReentered AlertKind = "RE-ENTERED"
)

// Alert is an immutable record of a single fence crossing.
// Alerts are appended to an ordered log and never mutated.
type Alert struct {
	Time     time.Time `json:"time"`
	AnimalID uint      `json:"animalId"`
	Pos      Point     `json:"pos"`
	Kind     AlertKind `json:"kind"`
	Message  string    `json:"message"`
}

// AnimalStatus is the per-animal slice of a tick snapshot handed to
// presentation and storage after each tick.
type AnimalStatus struct {
	Pos    Point `json:"pos"`
	Inside bool  `json:"inside"`
}

// TickResult is the outcome of advancing the simulation by one tick.
type TickResult struct {
	Tick    uint64                `json:"tick"`
	Animals map[uint]AnimalStatus `json:"animals"`
	Inside  int                   `json:"inside"`
	Outside int                   `json:"outside"`
	Alerts  []Alert               `json:"alerts"`
}

// Arena is the bounded region animals are reflected back into,
// independent of any fence.
type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
