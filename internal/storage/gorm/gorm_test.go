package gormstorage

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/herdfence/simulator/internal/model"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
)

func testBackend(t *testing.T) *Backend {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))

	b := New(Dependencies{DB: db, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	return b
}

func startedBackend(t *testing.T) *Backend {
	t.Helper()

	b := testBackend(t)
	err := b.StartSession(storage.SessionInfo{
		Name:      "test session",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Arena:     core.Arena{Width: 900, Height: 600},
		TickMs:    100,
	})
	require.NoError(t, err)
	return b
}

func TestInitRequiresDB(t *testing.T) {
	b := New(Dependencies{Logger: zerolog.Nop()})
	assert.Error(t, b.Init())
}

func TestStartSessionCreatesRow(t *testing.T) {
	b := startedBackend(t)

	var count int64
	require.NoError(t, b.db.Model(&model.Session{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.NotZero(t, b.sessionID)
}

func TestAlertsRoundTrip(t *testing.T) {
	b := startedBackend(t)

	first := core.Alert{
		Time:     time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
		AnimalID: 3,
		Pos:      core.Point{X: 120.5, Y: 44.25},
		Kind:     core.AlertLeft,
		Message:  "Animal #3 LEFT fence at (120,44)",
	}
	second := core.Alert{
		Time:     time.Date(2026, 3, 1, 12, 0, 4, 0, time.UTC),
		AnimalID: 3,
		Pos:      core.Point{X: 80, Y: 51},
		Kind:     core.AlertReentered,
		Message:  "Animal #3 re-entered fence at (80,51)",
	}
	require.NoError(t, b.RecordAlert(first))
	require.NoError(t, b.RecordAlert(second))

	alerts, err := b.Alerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, core.AlertLeft, alerts[0].Kind)
	assert.Equal(t, first.Message, alerts[0].Message)
	assert.Equal(t, second.Message, alerts[1].Message)
	assert.Equal(t, uint(3), alerts[1].AnimalID)
	assert.InDelta(t, 80.0, alerts[1].Pos.X, 1e-9)
}

func TestRecordTickStoresAllAnimals(t *testing.T) {
	b := startedBackend(t)

	result := core.TickResult{
		Tick: 7,
		Animals: map[uint]core.AnimalStatus{
			1: {Pos: core.Point{X: 10, Y: 20}, Inside: true},
			2: {Pos: core.Point{X: 700, Y: 90}, Inside: false},
		},
	}
	require.NoError(t, b.RecordTick(result))

	var states []model.AnimalState
	require.NoError(t, b.db.Find(&states).Error)
	require.Len(t, states, 2)
	for _, s := range states {
		assert.EqualValues(t, 7, s.Tick)
	}
}

func TestRecordTickEmptyIsNoop(t *testing.T) {
	b := startedBackend(t)
	require.NoError(t, b.RecordTick(core.TickResult{Tick: 1}))

	var count int64
	require.NoError(t, b.db.Model(&model.AnimalState{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordFenceAndAnimal(t *testing.T) {
	b := startedBackend(t)

	fence := []core.Point{{X: 100, Y: 100}, {X: 400, Y: 100}, {X: 250, Y: 350}}
	require.NoError(t, b.RecordFence(fence))
	require.NoError(t, b.RecordAnimal(core.Animal{ID: 1, Pos: core.Point{X: 5, Y: 5}, BaseSpeed: 1.1}))

	var fences []model.FenceRecord
	require.NoError(t, b.db.Find(&fences).Error)
	require.Len(t, fences, 1)
	assert.Equal(t, 3, fences[0].VertexCount)

	var animals []model.AnimalRecord
	require.NoError(t, b.db.Find(&animals).Error)
	require.Len(t, animals, 1)
	assert.Equal(t, uint(1), animals[0].AnimalID)
}

func TestEndSessionClears(t *testing.T) {
	b := startedBackend(t)
	require.NoError(t, b.EndSession())
	assert.Zero(t, b.sessionID)
	// ending twice is fine
	require.NoError(t, b.EndSession())
}
