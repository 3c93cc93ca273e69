// internal/storage/memory/memory.go
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
)

// FenceActivation groups one fence replacement with its tick context.
type FenceActivation struct {
	Vertices []core.Point `json:"vertices"`
}

// AnimalRecord groups an animal's registration with its time series.
type AnimalRecord struct {
	Animal core.Animal         `json:"animal"`
	States []core.AnimalStatus `json:"states"`
}

// sessionExport is the JSON document written at EndSession.
type sessionExport struct {
	Info    storage.SessionInfo    `json:"info"`
	Fences  []FenceActivation      `json:"fences"`
	Animals map[uint]*AnimalRecord `json:"animals"`
	Ticks   []core.TickResult      `json:"ticks"`
	Alerts  []core.Alert           `json:"alerts"`
}

// Backend stores session data in memory and exports to JSON on
// EndSession.
type Backend struct {
	cfg  config.MemoryConfig
	info storage.SessionInfo

	fences  []FenceActivation
	animals map[uint]*AnimalRecord
	ticks   []core.TickResult
	alerts  []core.Alert

	mu sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		animals: make(map[uint]*AnimalRecord),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, resetting all
// collections.
func (b *Backend) StartSession(info storage.SessionInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.info = info
	b.fences = nil
	b.animals = make(map[uint]*AnimalRecord)
	b.ticks = nil
	b.alerts = nil
	return nil
}

// EndSession finalizes the session and exports it as JSON.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// RecordFence appends a fence activation.
func (b *Backend) RecordFence(vertices []core.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vs := make([]core.Point, len(vertices))
	copy(vs, vertices)
	b.fences = append(b.fences, FenceActivation{Vertices: vs})
	return nil
}

// RecordAnimal registers a new animal.
func (b *Backend) RecordAnimal(a core.Animal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.animals[a.ID] = &AnimalRecord{Animal: a}
	return nil
}

// RecordTick appends every animal's status for the tick.
func (b *Backend) RecordTick(result core.TickResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ticks = append(b.ticks, result)
	for id, status := range result.Animals {
		rec, ok := b.animals[id]
		if !ok {
			rec = &AnimalRecord{Animal: core.Animal{ID: id}}
			b.animals[id] = rec
		}
		rec.States = append(rec.States, status)
	}
	return nil
}

// RecordAlert appends one crossing alert.
func (b *Backend) RecordAlert(alert core.Alert) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.alerts = append(b.alerts, alert)
	return nil
}

// Alerts returns the session's alerts in append order.
func (b *Backend) Alerts() ([]core.Alert, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Alert, len(b.alerts))
	copy(out, b.alerts)
	return out, nil
}

// TickCount returns the number of recorded ticks.
func (b *Backend) TickCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ticks)
}

// exportJSON writes the session document to the output directory. Caller
// holds b.mu.
func (b *Backend) exportJSON() error {
	if b.cfg.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	doc := sessionExport{
		Info:    b.info,
		Fences:  b.fences,
		Animals: b.animals,
		Ticks:   b.ticks,
		Alerts:  b.alerts,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session export: %w", err)
	}

	name := fmt.Sprintf("session_%s.json", b.info.StartTime.Format("20060102_150405"))
	path := filepath.Join(b.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing session export: %w", err)
	}
	return nil
}
