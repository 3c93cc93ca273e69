package runner

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/model/core"
	"github.com/herdfence/simulator/internal/sim"
	"github.com/herdfence/simulator/internal/storage"
	"github.com/herdfence/simulator/internal/storage/memory"
)

func testService(t *testing.T) (*Service, *memory.Backend) {
	t.Helper()

	engine, err := sim.NewEngine(sim.Config{
		Arena:           core.Arena{Width: 900, Height: 600},
		SpeedMultiplier: 1.0,
		Seed:            42,
	})
	require.NoError(t, err)
	engine.ResetAnimals(3)

	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	require.NoError(t, backend.StartSession(storage.SessionInfo{
		Name:      "runner test",
		StartTime: time.Now(),
	}))

	svc := NewService(Dependencies{
		Engine:      engine,
		Storage:     backend,
		Logger:      zerolog.Nop(),
		SessionName: "runner test",
		TickPeriod:  time.Millisecond,
	})
	return svc, backend
}

func TestRunProcessesMaxTicks(t *testing.T) {
	svc, backend := testService(t)

	err := svc.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 10, backend.TickCount())
	assert.False(t, svc.IsRunning())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	svc, _ := testService(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx, 0) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	assert.False(t, svc.IsRunning())
}

func TestStopEndsRun(t *testing.T) {
	svc, backend := testService(t)

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(context.Background(), 0) }()

	time.Sleep(20 * time.Millisecond)
	svc.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Greater(t, backend.TickCount(), 0)
}
