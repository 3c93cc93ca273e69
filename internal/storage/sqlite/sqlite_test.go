package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/storage"
)

func TestInitAndRecord(t *testing.T) {
	b := New(config.SQLiteConfig{}, zerolog.Nop())
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.StartSession(storage.SessionInfo{
		Name:      "test",
		StartTime: time.Now(),
		Arena:     core.Arena{Width: 900, Height: 600},
	}))

	alert := core.Alert{
		Time:     time.Now(),
		AnimalID: 1,
		Pos:      core.Point{X: 10, Y: 20},
		Kind:     core.AlertLeft,
		Message:  "Animal #1 LEFT fence at (10,20)",
	}
	require.NoError(t, b.RecordAlert(alert))

	alerts, err := b.Alerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.Message, alerts[0].Message)

	require.NoError(t, b.EndSession())
}

func TestCloseWritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	b := New(config.SQLiteConfig{Path: path}, zerolog.Nop())
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(storage.SessionInfo{
		Name:      "dump test",
		StartTime: time.Now(),
	}))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(config.SQLiteConfig{}, zerolog.Nop())
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
