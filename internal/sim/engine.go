package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/queue"
)

type commandKind int

const (
	commandSpawn commandKind = iota
	commandRemove
)

// command is a pending registry mutation, applied at the top of the next
// tick so the registry is never modified mid-tick.
type command struct {
	kind   commandKind
	animal *core.Animal
	id     uint
}

// Config holds engine construction parameters.
type Config struct {
	Arena           core.Arena
	SpeedMultiplier float64
	// Seed makes spawn and wander reproducible; 0 seeds from the clock.
	Seed int64
	// Now is the alert clock, defaulting to time.Now. Injectable for
	// tests.
	Now func() time.Time
}

// Engine owns the animal registry, the active fence, and the global
// speed multiplier, and advances them all by exactly one discrete tick
// per Tick call. Exactly one Tick may execute at a time; registry
// mutations requested while a tick could be in flight are queued and
// applied before the next tick begins.
type Engine struct {
	mu       sync.Mutex
	arena    core.Arena
	fence    Fence
	speedMul float64

	rng     *rand.Rand
	now     func() time.Time
	animals map[uint]*core.Animal
	nextID  uint
	tick    uint64

	inside  int
	outside int

	commands *queue.Queue[command]

	ticksProcessed metric.Int64Counter
	alertsEmitted  metric.Int64Counter
}

// NewEngine creates an engine with an empty registry and no active
// fence.
func NewEngine(cfg Config) (*Engine, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		arena:    cfg.Arena,
		speedMul: cfg.SpeedMultiplier,
		rng:      rand.New(rand.NewSource(seed)),
		now:      now,
		animals:  make(map[uint]*core.Animal),
		nextID:   1,
		commands: queue.New[command](),
	}

	m := meter()
	var err error

	e.ticksProcessed, err = m.Int64Counter(
		"sim.ticks.processed",
		metric.WithDescription("Number of simulation ticks advanced"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	e.alertsEmitted, err = m.Int64Counter(
		"sim.alerts.emitted",
		metric.WithDescription("Number of fence crossing alerts emitted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating alert counter: %w", err)
	}

	_, err = m.Int64ObservableGauge(
		"sim.animals.inside",
		metric.WithDescription("Animals classified inside the fence"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			inside, _ := e.Counts()
			o.Observe(int64(inside))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating inside gauge: %w", err)
	}

	_, err = m.Int64ObservableGauge(
		"sim.animals.outside",
		metric.WithDescription("Animals classified outside the fence"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			_, outside := e.Counts()
			o.Observe(int64(outside))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating outside gauge: %w", err)
	}

	return e, nil
}

// SpawnAnimal queues a new animal for insertion before the next tick and
// returns its assigned id. A nil position spawns at a random point away
// from the arena edges. IDs are monotonic and never reused.
func (e *Engine) SpawnAnimal(pos *core.Point) uint {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	var p core.Point
	if pos != nil {
		p = *pos
	} else {
		p = randomSpawnPoint(e.arena, e.rng)
	}
	a := NewAnimal(id, p, e.speedMul, e.rng)
	e.mu.Unlock()

	e.commands.Push(command{kind: commandSpawn, animal: a})
	return id
}

// SpawnAnimalAtCenter queues a new animal near the arena center.
func (e *Engine) SpawnAnimalAtCenter() uint {
	e.mu.Lock()
	p := centerSpawnPoint(e.arena, e.rng)
	e.mu.Unlock()
	return e.SpawnAnimal(&p)
}

// RemoveAnimal queues removal of the animal with the given id. Unknown
// ids are ignored when the command is applied.
func (e *Engine) RemoveAnimal(id uint) {
	e.commands.Push(command{kind: commandRemove, id: id})
}

// RemoveLastAnimal queues removal of the highest-id animal currently
// registered. ok is false when the registry is empty.
func (e *Engine) RemoveLastAnimal() (uint, bool) {
	e.mu.Lock()
	var last uint
	for id := range e.animals {
		if id > last {
			last = id
		}
	}
	e.mu.Unlock()
	if last == 0 {
		return 0, false
	}
	e.RemoveAnimal(last)
	return last, true
}

// ResetAnimals queues removal of every registered animal and spawns n
// fresh ones at random positions.
func (e *Engine) ResetAnimals(n int) {
	e.mu.Lock()
	ids := make([]uint, 0, len(e.animals))
	for id := range e.animals {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.RemoveAnimal(id)
	}
	for i := 0; i < n; i++ {
		e.SpawnAnimal(nil)
	}
}

// SetFence replaces the active fence wholesale. Fewer than three
// vertices is rejected and the current fence (or its absence) is kept.
func (e *Engine) SetFence(vertices []core.Point) error {
	fence, err := NewFence(vertices)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.fence = fence
	e.mu.Unlock()
	return nil
}

// ClearFence deactivates containment; every animal is inside an absent
// fence.
func (e *Engine) ClearFence() {
	e.mu.Lock()
	e.fence = Fence{}
	e.mu.Unlock()
}

// FenceVertices returns the active fence's vertex sequence, nil when no
// fence is active.
func (e *Engine) FenceVertices() []core.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fence.Vertices()
}

// SetSpeedMultiplier sets the global gait scale. Takes effect on the
// next tick, never mid-tick.
func (e *Engine) SetSpeedMultiplier(v float64) {
	e.mu.Lock()
	e.speedMul = v
	e.mu.Unlock()
}

// SetArena resizes the bounded region. Takes effect on the next tick.
func (e *Engine) SetArena(arena core.Arena) {
	e.mu.Lock()
	e.arena = arena
	e.mu.Unlock()
}

// Arena returns the current arena extent.
func (e *Engine) Arena() core.Arena {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arena
}

// Counts returns the aggregate containment counts from the last tick.
func (e *Engine) Counts() (inside, outside int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inside, e.outside
}

// Animals returns a snapshot copy of the registry, for session saving.
func (e *Engine) Animals() []core.Animal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Animal, 0, len(e.animals))
	for _, a := range e.animals {
		out = append(out, *a)
	}
	return out
}

// RestoreAnimals replaces the registry wholesale, resetting the next-id
// counter to one past the highest restored id (or 1 if none). Used by
// session load; must not race a tick in flight.
func (e *Engine) RestoreAnimals(animals []core.Animal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.commands.Clear()
	e.animals = make(map[uint]*core.Animal, len(animals))
	e.nextID = 1
	for _, a := range animals {
		cp := a
		e.animals[cp.ID] = &cp
		if cp.ID >= e.nextID {
			e.nextID = cp.ID + 1
		}
	}
	e.recountLocked()
}

// Tick advances the whole system by exactly one discrete tick: pending
// registry commands, then per animal motion, arena reflection,
// containment classification and crossing detection, then aggregate
// counts. Alerts are appended in animal-id order so the log is
// deterministic within a tick.
func (e *Engine) Tick() core.TickResult {
	e.mu.Lock()

	for _, cmd := range e.commands.Drain() {
		switch cmd.kind {
		case commandSpawn:
			e.animals[cmd.animal.ID] = cmd.animal
		case commandRemove:
			delete(e.animals, cmd.id)
		}
	}

	// Fence and multiplier are snapshots for the whole tick.
	fence := e.fence
	speedMul := e.speedMul
	arena := e.arena
	e.tick++
	tick := e.tick
	now := e.now()

	ids := sortedIDs(e.animals)
	result := core.TickResult{
		Tick:    tick,
		Animals: make(map[uint]core.AnimalStatus, len(e.animals)),
	}

	for _, id := range ids {
		a := e.animals[id]
		a.SpeedMultiplier = speedMul

		StepAnimal(a, e.rng)
		ReflectIntoArena(a, arena)

		nowInside := fence.Contains(a.Pos)
		if alert, ok := DetectCrossing(a, nowInside, now); ok {
			result.Alerts = append(result.Alerts, alert)
		}

		result.Animals[id] = core.AnimalStatus{Pos: a.Pos, Inside: a.Inside}
	}

	e.recountLocked()
	result.Inside = e.inside
	result.Outside = e.outside
	e.mu.Unlock()

	ctx := context.Background()
	e.ticksProcessed.Add(ctx, 1)
	if len(result.Alerts) > 0 {
		e.alertsEmitted.Add(ctx, int64(len(result.Alerts)))
	}

	return result
}

// recountLocked recomputes the aggregate counts. Caller holds e.mu.
func (e *Engine) recountLocked() {
	inside := 0
	for _, a := range e.animals {
		if a.Inside {
			inside++
		}
	}
	e.inside = inside
	e.outside = len(e.animals) - inside
}

// sortedIDs fixes the processing order so alert order and rng draws are
// deterministic for a given seed.
func sortedIDs(animals map[uint]*core.Animal) []uint {
	ids := make([]uint, 0, len(animals))
	for id := range animals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
