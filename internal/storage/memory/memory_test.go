package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
)

func testInfo() storage.SessionInfo {
	return storage.SessionInfo{
		Name:            "test",
		StartTime:       time.Date(2026, 6, 7, 8, 9, 10, 0, time.UTC),
		Arena:           core.Arena{Width: 900, Height: 600},
		TickMs:          100,
		SpeedMultiplier: 1.0,
	}
}

func TestBackend_RecordAndReadAlerts(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(testInfo()))

	first := core.Alert{AnimalID: 1, Kind: core.AlertLeft, Message: "left"}
	second := core.Alert{AnimalID: 1, Kind: core.AlertReentered, Message: "back"}
	require.NoError(t, b.RecordAlert(first))
	require.NoError(t, b.RecordAlert(second))

	alerts, err := b.Alerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, first, alerts[0], "append order preserved")
	assert.Equal(t, second, alerts[1])
}

func TestBackend_RecordTickTracksStates(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.StartSession(testInfo()))
	require.NoError(t, b.RecordAnimal(core.Animal{ID: 1, BaseSpeed: 1.0}))

	result := core.TickResult{
		Tick: 1,
		Animals: map[uint]core.AnimalStatus{
			1: {Pos: core.Point{X: 10, Y: 20}, Inside: true},
		},
		Inside: 1,
	}
	require.NoError(t, b.RecordTick(result))
	require.NoError(t, b.RecordTick(result))

	assert.Equal(t, 2, b.TickCount())
}

func TestBackend_StartSessionResets(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.StartSession(testInfo()))
	require.NoError(t, b.RecordAlert(core.Alert{AnimalID: 1}))

	require.NoError(t, b.StartSession(testInfo()))

	alerts, err := b.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Zero(t, b.TickCount())
}

func TestBackend_EndSessionExportsJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.StartSession(testInfo()))
	require.NoError(t, b.RecordFence([]core.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}))
	require.NoError(t, b.RecordAlert(core.Alert{AnimalID: 3, Kind: core.AlertLeft}))

	require.NoError(t, b.EndSession())

	path := filepath.Join(dir, "session_20260607_080910.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "info")
	assert.Contains(t, doc, "fences")
	assert.Contains(t, doc, "alerts")
}

func TestBackend_EndSessionWithoutOutputDirIsNoop(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.StartSession(testInfo()))
	assert.NoError(t, b.EndSession())
}
