// Package gormstorage implements the storage.Backend interface on top of
// a GORM database handle. SQLite and Postgres backends share it; the
// dialect-specific concerns (connection, schema migration, disk dumps)
// live with the caller that opens the handle.
package gormstorage

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/herdfence/simulator/internal/model"
	"github.com/herdfence/simulator/internal/model/convert"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
)

// Dependencies holds what the backend needs to operate.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend records session data through GORM.
type Backend struct {
	db  *gorm.DB
	log zerolog.Logger

	mu        sync.Mutex
	sessionID uint
	info      storage.SessionInfo
}

// New creates a new GORM-backed storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		db:  deps.DB,
		log: deps.Logger,
	}
}

// Init is a no-op; the caller migrates the schema before handing over
// the DB handle.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("nil DB handle")
	}
	return nil
}

// Close is a no-op; the owning database manager closes the connection.
func (b *Backend) Close() error {
	return nil
}

// StartSession creates the session row all other records reference.
func (b *Backend) StartSession(info storage.SessionInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session := model.Session{
		Name:            info.Name,
		StartTime:       info.StartTime,
		ArenaWidth:      info.Arena.Width,
		ArenaHeight:     info.Arena.Height,
		TickMs:          info.TickMs,
		SpeedMultiplier: info.SpeedMultiplier,
		AnimalSize:      info.AnimalSize,
		FenceColor:      info.FenceColor,
		Origin3857:      info.Origin3857,
	}
	if err := b.db.Create(&session).Error; err != nil {
		return fmt.Errorf("creating session row: %w", err)
	}

	b.sessionID = session.ID
	b.info = info
	b.log.Info().Uint("sessionId", session.ID).Msg("Session recording started")
	return nil
}

// EndSession closes out the session row.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessionID == 0 {
		return nil
	}
	b.log.Info().Uint("sessionId", b.sessionID).Msg("Session recording ended")
	b.sessionID = 0
	return nil
}

// RecordFence stores one fence activation.
func (b *Backend) RecordFence(vertices []core.Point) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	rec := convert.FenceToRecord(vertices, sessionID, b.db.NowFunc())
	if err := b.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("recording fence: %w", err)
	}
	return nil
}

// RecordAnimal registers one animal for the session.
func (b *Backend) RecordAnimal(a core.Animal) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	rec := convert.CoreToAnimalRecord(a, sessionID, b.db.NowFunc())
	if err := b.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("recording animal: %w", err)
	}
	return nil
}

// RecordTick stores every animal's state for the tick in one batch.
func (b *Backend) RecordTick(result core.TickResult) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	if len(result.Animals) == 0 {
		return nil
	}

	at := b.db.NowFunc()
	states := make([]model.AnimalState, 0, len(result.Animals))
	for id, status := range result.Animals {
		states = append(states, convert.StatusToAnimalState(id, status, sessionID, result.Tick, at))
	}
	if err := b.db.Create(&states).Error; err != nil {
		return fmt.Errorf("recording tick states: %w", err)
	}
	return nil
}

// RecordAlert appends one crossing alert.
func (b *Backend) RecordAlert(alert core.Alert) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	rec := convert.CoreToAlertRecord(alert, sessionID)
	if err := b.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("recording alert: %w", err)
	}
	return nil
}

// Alerts returns the current session's alerts in append order.
func (b *Backend) Alerts() ([]core.Alert, error) {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	return AlertsForSession(b.db, sessionID)
}

// AlertsForSession reads a session's alerts in append order, also used
// by the export command against saved databases.
func AlertsForSession(db *gorm.DB, sessionID uint) ([]core.Alert, error) {
	var records []model.AlertRecord
	q := db.Model(&model.AlertRecord{}).Order("id asc")
	if sessionID != 0 {
		q = q.Where("session_id = ?", sessionID)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("reading alerts: %w", err)
	}

	alerts := make([]core.Alert, 0, len(records))
	for _, rec := range records {
		alerts = append(alerts, convert.AlertRecordToCore(rec))
	}
	return alerts, nil
}
