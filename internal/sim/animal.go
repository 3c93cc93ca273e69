// Package sim implements the containment simulation engine: the per-animal
// motion model, the fence classifier, the crossing detector, and the
// discrete-time clock that drives them.
package sim

import (
	"math"
	"math/rand"

	"github.com/herdfence/simulator/internal/model/core"
)

const (
	// baseSpeedMin/Max bound the per-individual gait drawn at creation.
	baseSpeedMin = 0.6
	baseSpeedMax = 1.8

	// wanderJitter is the uniform velocity perturbation per tick,
	// modelling grazing drift.
	wanderJitter = 0.25

	// speedFloor prevents division blow-up when wander cancels the
	// velocity to near zero.
	speedFloor = 1e-6

	// arenaMargin and bounceDamping define the inelastic bounce that
	// keeps animals inside the arena regardless of fence geometry.
	arenaMargin   = 5.0
	bounceDamping = 0.6

	// spawnMargin keeps random spawns away from the arena edges.
	spawnMargin = 40.0
)

// NewAnimal creates an animal at pos with a random initial heading and a
// gait drawn from [baseSpeedMin, baseSpeedMax).
func NewAnimal(id uint, pos core.Point, speedMultiplier float64, rng *rand.Rand) *core.Animal {
	angle := rng.Float64() * 2 * math.Pi
	return &core.Animal{
		ID:              id,
		Pos:             pos,
		VX:              math.Cos(angle),
		VY:              math.Sin(angle),
		BaseSpeed:       baseSpeedMin + rng.Float64()*(baseSpeedMax-baseSpeedMin),
		SpeedMultiplier: speedMultiplier,
		Inside:          true,
	}
}

// StepAnimal advances one animal by one tick: wander, renormalize to the
// target speed, then Euler-integrate position. Mutates a in place and
// never fails; a zero multiplier just degenerates to near-stationary
// motion.
func StepAnimal(a *core.Animal, rng *rand.Rand) {
	speed := a.BaseSpeed * a.SpeedMultiplier

	a.VX += uniform(rng, -wanderJitter, wanderJitter)
	a.VY += uniform(rng, -wanderJitter, wanderJitter)

	n := math.Max(speedFloor, math.Hypot(a.VX, a.VY))
	a.VX = a.VX / n * speed
	a.VY = a.VY / n * speed

	a.Pos.X += a.VX
	a.Pos.Y += a.VY
}

// ReflectIntoArena clamps an animal that has crossed an arena edge back
// to the margin and inverts that axis's velocity, damped. Runs every tick
// immediately after integration, before containment classification.
func ReflectIntoArena(a *core.Animal, arena core.Arena) {
	if a.Pos.X < arenaMargin {
		a.Pos.X = arenaMargin
		a.VX *= -bounceDamping
	}
	if a.Pos.X > arena.Width-arenaMargin {
		a.Pos.X = arena.Width - arenaMargin
		a.VX *= -bounceDamping
	}
	if a.Pos.Y < arenaMargin {
		a.Pos.Y = arenaMargin
		a.VY *= -bounceDamping
	}
	if a.Pos.Y > arena.Height-arenaMargin {
		a.Pos.Y = arena.Height - arenaMargin
		a.VY *= -bounceDamping
	}
}

// randomSpawnPoint picks a spawn position away from the arena edges.
func randomSpawnPoint(arena core.Arena, rng *rand.Rand) core.Point {
	return core.Point{
		X: uniform(rng, spawnMargin, math.Max(spawnMargin, arena.Width-spawnMargin)),
		Y: uniform(rng, spawnMargin, math.Max(spawnMargin, arena.Height-spawnMargin)),
	}
}

// centerSpawnPoint picks a jittered position near the arena center.
func centerSpawnPoint(arena core.Arena, rng *rand.Rand) core.Point {
	return core.Point{
		X: arena.Width/2 + uniform(rng, -10, 10),
		Y: arena.Height/2 + uniform(rng, -10, 10),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
