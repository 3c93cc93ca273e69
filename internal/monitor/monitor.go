// Package monitor periodically writes a status snapshot of the running
// simulation to a file, so an operator can watch a long session without
// attaching to the process.
package monitor

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/sim"
	"github.com/herdfence/simulator/internal/worker"
)

// Dependencies holds all dependencies for the monitor service.
// Worker may be nil when storage writes are synchronous.
type Dependencies struct {
	Engine   *sim.Engine
	Worker   *worker.Manager
	Logger   zerolog.Logger
	Path     string
	Interval time.Duration
}

// Status is the snapshot written to the status file.
type Status struct {
	Time                time.Time `json:"time"`
	Animals             int       `json:"animals"`
	Inside              int       `json:"inside"`
	Outside             int       `json:"outside"`
	FenceActive         bool      `json:"fenceActive"`
	PendingTicks        int       `json:"pendingTicks,omitempty"`
	PendingAlerts       int       `json:"pendingAlerts,omitempty"`
	LastWriteDurationMs float64   `json:"lastWriteDurationMs,omitempty"`
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot builds the current status.
func (s *Service) Snapshot() Status {
	inside, outside := s.deps.Engine.Counts()
	status := Status{
		Time:        time.Now(),
		Animals:     inside + outside,
		Inside:      inside,
		Outside:     outside,
		FenceActive: len(s.deps.Engine.FenceVertices()) > 0,
	}

	if s.deps.Worker != nil {
		queues := s.deps.Worker.Queues()
		status.PendingTicks = queues.Ticks.Len()
		status.PendingAlerts = queues.Alerts.Len()
		status.LastWriteDurationMs = float64(s.deps.Worker.GetLastDBWriteDuration().Milliseconds())
	}
	return status
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.write(); err != nil {
					s.deps.Logger.Error().Err(err).Msg("Failed to write status file")
				}
			}
		}
	}()

	return nil
}

func (s *Service) write() error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.deps.Path, data, 0644)
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
