// Package sqlitestorage records sessions into an in-memory SQLite
// database and periodically vacuums it to disk, so a crash mid-run
// loses at most one dump interval of data.
package sqlitestorage

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/database"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
	gormstorage "github.com/herdfence/simulator/internal/storage/gorm"
)

// Backend wraps the GORM backend with the in-memory/dump lifecycle.
type Backend struct {
	cfg   config.SQLiteConfig
	log   zerolog.Logger
	mgr   *database.Manager
	inner *gormstorage.Backend

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg config.SQLiteConfig, log zerolog.Logger) *Backend {
	return &Backend{
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Init opens the in-memory database, migrates the schema and starts
// the periodic disk dump when a path is configured.
func (b *Backend) Init() error {
	b.mgr = database.NewManager(b.log)
	b.mgr.SqliteFilePath = b.cfg.Path

	db, err := b.mgr.GetSqliteDB("")
	if err != nil {
		return err
	}
	b.mgr.DB = db
	b.mgr.IsValid = true
	b.mgr.ShouldSaveLocal = true

	if err := b.mgr.Setup(); err != nil {
		return err
	}

	b.inner = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.log})
	if err := b.inner.Init(); err != nil {
		return err
	}

	if b.cfg.Path != "" && b.cfg.DumpIntervalSec > 0 {
		go b.dumpLoop(time.Duration(b.cfg.DumpIntervalSec) * time.Second)
	} else {
		close(b.done)
	}
	return nil
}

func (b *Backend) dumpLoop(interval time.Duration) {
	defer close(b.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.mgr.DumpMemoryToDisk(); err != nil {
				b.log.Error().Err(err).Msg("Failed to dump DB to disk")
			} else {
				b.log.Debug().Str("path", b.cfg.Path).Msg("Dumped DB to disk")
			}
		case <-b.stopChan:
			return
		}
	}
}

// Close stops the dump loop and writes the final database file.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	<-b.done

	if b.cfg.Path != "" && b.mgr != nil && b.mgr.IsValid {
		if err := b.mgr.DumpMemoryToDisk(); err != nil {
			return err
		}
		b.log.Info().Str("path", b.cfg.Path).Msg("Session database written")
	}
	return b.inner.Close()
}

func (b *Backend) StartSession(info storage.SessionInfo) error {
	return b.inner.StartSession(info)
}

func (b *Backend) EndSession() error {
	return b.inner.EndSession()
}

func (b *Backend) RecordFence(vertices []core.Point) error {
	return b.inner.RecordFence(vertices)
}

func (b *Backend) RecordAnimal(a core.Animal) error {
	return b.inner.RecordAnimal(a)
}

func (b *Backend) RecordTick(result core.TickResult) error {
	return b.inner.RecordTick(result)
}

func (b *Backend) RecordAlert(alert core.Alert) error {
	return b.inner.RecordAlert(alert)
}

func (b *Backend) Alerts() ([]core.Alert, error) {
	return b.inner.Alerts()
}
