// Package worker provides a write-behind decorator for storage
// backends. Tick results and alerts queue up in memory and flush to the
// wrapped backend on an interval, keeping database latency out of the
// tick loop.
package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/queue"
	"github.com/herdfence/simulator/internal/storage"
)

// Queues holds the pending write queues.
type Queues struct {
	Ticks   *queue.Queue[core.TickResult]
	Alerts  *queue.Queue[core.Alert]
	Fences  *queue.Queue[[]core.Point]
	Animals *queue.Queue[core.Animal]
}

// NewQueues creates the queue set.
func NewQueues() *Queues {
	return &Queues{
		Ticks:   queue.New[core.TickResult](),
		Alerts:  queue.New[core.Alert](),
		Fences:  queue.New[[]core.Point](),
		Animals: queue.New[core.Animal](),
	}
}

// Manager wraps a storage backend with write-behind queues. It
// implements storage.Backend itself, so callers use it in place of the
// wrapped backend.
type Manager struct {
	backend       storage.Backend
	log           zerolog.Logger
	queues        *Queues
	flushInterval time.Duration

	mu        sync.Mutex
	lastWrite time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewManager creates a write-behind manager around backend.
func NewManager(backend storage.Backend, log zerolog.Logger, flushInterval time.Duration) *Manager {
	return &Manager{
		backend:       backend,
		log:           log,
		queues:        NewQueues(),
		flushInterval: flushInterval,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Queues exposes the pending queues for status monitoring.
func (m *Manager) Queues() *Queues {
	return m.queues
}

// GetLastDBWriteDuration returns the duration of the last flush cycle.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastWrite
}

// Init initializes the wrapped backend and starts the flush loop.
func (m *Manager) Init() error {
	if err := m.backend.Init(); err != nil {
		return err
	}
	go m.flushLoop()
	return nil
}

func (m *Manager) flushLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Flush()
		case <-m.stopChan:
			return
		}
	}
}

// Flush drains every queue into the wrapped backend.
func (m *Manager) Flush() {
	start := time.Now()

	for _, verts := range m.queues.Fences.Drain() {
		if err := m.backend.RecordFence(verts); err != nil {
			m.log.Error().Err(err).Msg("Failed to flush fence record")
		}
	}
	for _, a := range m.queues.Animals.Drain() {
		if err := m.backend.RecordAnimal(a); err != nil {
			m.log.Error().Err(err).Uint("animalId", a.ID).Msg("Failed to flush animal record")
		}
	}
	for _, result := range m.queues.Ticks.Drain() {
		if err := m.backend.RecordTick(result); err != nil {
			m.log.Error().Err(err).Uint64("tick", result.Tick).Msg("Failed to flush tick record")
		}
	}
	for _, alert := range m.queues.Alerts.Drain() {
		if err := m.backend.RecordAlert(alert); err != nil {
			m.log.Error().Err(err).Uint("animalId", alert.AnimalID).Msg("Failed to flush alert record")
		}
	}

	m.mu.Lock()
	m.lastWrite = time.Since(start)
	m.mu.Unlock()
}

// Close stops the flush loop, writes everything still queued and closes
// the wrapped backend.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.done
	m.Flush()
	return m.backend.Close()
}

// StartSession passes through synchronously; the session row must exist
// before any queued record lands.
func (m *Manager) StartSession(info storage.SessionInfo) error {
	return m.backend.StartSession(info)
}

// EndSession flushes pending records before closing out the session.
func (m *Manager) EndSession() error {
	m.Flush()
	return m.backend.EndSession()
}

func (m *Manager) RecordFence(vertices []core.Point) error {
	m.queues.Fences.Push(vertices)
	return nil
}

func (m *Manager) RecordAnimal(a core.Animal) error {
	m.queues.Animals.Push(a)
	return nil
}

func (m *Manager) RecordTick(result core.TickResult) error {
	m.queues.Ticks.Push(result)
	return nil
}

func (m *Manager) RecordAlert(alert core.Alert) error {
	m.queues.Alerts.Push(alert)
	return nil
}

// Alerts flushes and reads back from the wrapped backend.
func (m *Manager) Alerts() ([]core.Alert, error) {
	m.Flush()
	return m.backend.Alerts()
}
