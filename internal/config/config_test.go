package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"sim": { "tickMs": 50, "initialAnimals": 3 },
		"storage": { "type": "sqlite", "sqlite": { "path": "/tmp/session.db" } }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 50, viper.GetInt("sim.tickMs"))
	assert.Equal(t, 3, viper.GetInt("sim.initialAnimals"))
	assert.Equal(t, "sqlite", viper.GetString("storage.type"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, 900.0, viper.GetFloat64("sim.arenaWidth"))
	assert.Equal(t, 600.0, viper.GetFloat64("sim.arenaHeight"))
	assert.Equal(t, 100, viper.GetInt("sim.tickMs"))
	assert.Equal(t, 8, viper.GetInt("sim.initialAnimals"))
	assert.Equal(t, 1.0, viper.GetFloat64("sim.speedMultiplier"))
	assert.Equal(t, 6, viper.GetInt("sim.animalSize"))
	assert.Equal(t, "#2563eb", viper.GetString("fence.color"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.False(t, viper.GetBool("influx.enabled"))
	assert.False(t, viper.GetBool("graylog.enabled"))
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestGetSimConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"sim": {"arenaWidth": 400, "arenaHeight": 300, "tickMs": 25, "seed": 7}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	sim := GetSimConfig()
	assert.Equal(t, 400.0, sim.ArenaWidth)
	assert.Equal(t, 300.0, sim.ArenaHeight)
	assert.Equal(t, 25, sim.TickMs)
	assert.Equal(t, int64(7), sim.Seed)
	// defaults fill the rest
	assert.Equal(t, 8, sim.InitialAnimals)
	assert.Equal(t, 1.0, sim.SpeedMultiplier)
}

func TestGetStorageConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"storage": {"type": "memory", "memory": {"outputDir": "/tmp/out"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	storage := GetStorageConfig()
	assert.Equal(t, "memory", storage.Type)
	assert.Equal(t, "/tmp/out", storage.Memory.OutputDir)
}

func TestTickPeriod_Floor(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"sim": {"tickMs": 1}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	assert.Equal(t, 10*time.Millisecond, TickPeriod())
}
