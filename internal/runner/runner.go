// Package runner drives the simulation clock. One goroutine advances
// the engine at a fixed tick period and fans each tick's result out to
// the storage backend, the metrics pipeline and the log.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/channel"
	"github.com/herdfence/simulator/internal/influx"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/sim"
	"github.com/herdfence/simulator/internal/storage"
)

// Dependencies holds everything the runner fans tick results out to.
// Influx and Alerts may be nil when metrics and the dashboard notifier
// are disabled.
type Dependencies struct {
	Engine      *sim.Engine
	Storage     storage.Backend
	Influx      *influx.Manager
	Alerts      channel.Sender[core.Alert]
	Logger      zerolog.Logger
	SessionName string
	TickPeriod  time.Duration
}

// Service runs the tick loop.
type Service struct {
	deps     Dependencies
	recorded map[uint]bool

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
}

// NewService creates a new runner service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		recorded: make(map[uint]bool),
		stopChan: make(chan struct{}),
	}
}

// IsRunning reports whether the tick loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Run advances the simulation until ctx is cancelled, Stop is called,
// or maxTicks ticks have been processed (0 means run until stopped).
// It blocks for the duration of the run.
func (s *Service) Run(ctx context.Context, maxTicks uint64) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.deps.TickPeriod)
	defer ticker.Stop()

	s.deps.Logger.Info().
		Dur("tickPeriod", s.deps.TickPeriod).
		Uint64("maxTicks", maxTicks).
		Msg("Simulation started")

	var processed uint64
	for {
		select {
		case <-ctx.Done():
			s.deps.Logger.Info().Uint64("ticks", processed).Msg("Simulation stopped")
			return ctx.Err()
		case <-stop:
			s.deps.Logger.Info().Uint64("ticks", processed).Msg("Simulation stopped")
			return nil
		case <-ticker.C:
			result := s.deps.Engine.Tick()
			s.publish(result)

			processed++
			if maxTicks > 0 && processed >= maxTicks {
				s.deps.Logger.Info().Uint64("ticks", processed).Msg("Simulation finished")
				return nil
			}
		}
	}
}

// Stop ends the tick loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}

func (s *Service) publish(result core.TickResult) {
	if s.deps.Storage != nil {
		s.registerNewAnimals(result)
		if err := s.deps.Storage.RecordTick(result); err != nil {
			s.deps.Logger.Error().Err(err).Uint64("tick", result.Tick).
				Msg("Failed to record tick")
		}
		for _, alert := range result.Alerts {
			if err := s.deps.Storage.RecordAlert(alert); err != nil {
				s.deps.Logger.Error().Err(err).Uint("animalId", alert.AnimalID).
					Msg("Failed to record alert")
			}
		}
	}

	for _, alert := range result.Alerts {
		event := s.deps.Logger.Warn()
		if alert.Kind == core.AlertReentered {
			event = s.deps.Logger.Info()
		}
		event.
			Uint64("tick", result.Tick).
			Uint("animalId", alert.AnimalID).
			Str("kind", string(alert.Kind)).
			Msg(alert.Message)

		if s.deps.Alerts != nil {
			s.deps.Alerts.Send(alert)
		}
	}

	if s.deps.Influx != nil {
		s.publishMetrics(result)
	}
}

// registerNewAnimals records animals the first time they appear in a
// tick; spawns apply at the top of a tick, so registration happens here
// rather than at enqueue time.
func (s *Service) registerNewAnimals(result core.TickResult) {
	var unseen bool
	for id := range result.Animals {
		if !s.recorded[id] {
			unseen = true
			break
		}
	}
	if !unseen {
		return
	}

	for _, a := range s.deps.Engine.Animals() {
		if s.recorded[a.ID] {
			continue
		}
		if _, ok := result.Animals[a.ID]; !ok {
			continue
		}
		if err := s.deps.Storage.RecordAnimal(a); err != nil {
			s.deps.Logger.Error().Err(err).Uint("animalId", a.ID).
				Msg("Failed to record animal")
		}
		s.recorded[a.ID] = true
	}
}

func (s *Service) publishMetrics(result core.TickResult) {
	ctx := context.Background()
	point := influx.TickPoint(s.deps.SessionName, result, time.Now())
	if err := s.deps.Influx.WritePoint(ctx, influx.BucketContainment, point); err != nil {
		s.deps.Logger.Error().Err(err).Msg("Failed to write containment point")
	}
	for _, alert := range result.Alerts {
		point := influx.AlertPoint(s.deps.SessionName, alert)
		if err := s.deps.Influx.WritePoint(ctx, influx.BucketAlerts, point); err != nil {
			s.deps.Logger.Error().Err(err).Msg("Failed to write alert point")
		}
	}
}
