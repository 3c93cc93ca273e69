// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/herdfence/simulator/internal/model/core"
)

// SessionInfo describes one simulation run for the storage layer.
type SessionInfo struct {
	Name            string
	StartTime       time.Time
	Arena           core.Arena
	TickMs          int
	SpeedMultiplier float64
	AnimalSize      int
	FenceColor      string

	// Origin3857 is the WKB projected arena origin, empty when the
	// session is not georeferenced.
	Origin3857 []byte
}

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(info SessionInfo) error
	EndSession() error

	// Registration and state recording
	RecordFence(vertices []core.Point) error
	RecordAnimal(a core.Animal) error
	RecordTick(result core.TickResult) error
	RecordAlert(alert core.Alert) error

	// Alerts returns the session's alerts in append order.
	Alerts() ([]core.Alert, error)
}
