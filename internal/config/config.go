package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the JSON config file looked up in the config dir.
const ConfigFileName = "herdfence.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// SQLiteConfig holds SQLite storage backend settings. The backend runs
// in memory and periodically vacuums to Path; DumpIntervalSec of 0
// disables the periodic dump, leaving only the final dump on close.
type SQLiteConfig struct {
	Path            string `json:"path" mapstructure:"path"`
	DumpIntervalSec int    `json:"dumpIntervalSec" mapstructure:"dumpIntervalSec"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type            string       `json:"type" mapstructure:"type"`
	Memory          MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite          SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	AsyncWrites     bool         `json:"asyncWrites" mapstructure:"asyncWrites"`
	FlushIntervalMs int          `json:"flushIntervalMs" mapstructure:"flushIntervalMs"`
}

// SimConfig holds the simulation parameters.
type SimConfig struct {
	ArenaWidth      float64 `json:"arenaWidth" mapstructure:"arenaWidth"`
	ArenaHeight     float64 `json:"arenaHeight" mapstructure:"arenaHeight"`
	TickMs          int     `json:"tickMs" mapstructure:"tickMs"`
	InitialAnimals  int     `json:"initialAnimals" mapstructure:"initialAnimals"`
	SpeedMultiplier float64 `json:"speedMultiplier" mapstructure:"speedMultiplier"`
	AnimalSize      int     `json:"animalSize" mapstructure:"animalSize"`
	Seed            int64   `json:"seed" mapstructure:"seed"`
}

// Load reads configuration from the JSON file in configDir and sets
// default values for every key.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./herdfencelogs")

	viper.SetDefault("sim.arenaWidth", 900)
	viper.SetDefault("sim.arenaHeight", 600)
	viper.SetDefault("sim.tickMs", 100)
	viper.SetDefault("sim.initialAnimals", 8)
	viper.SetDefault("sim.speedMultiplier", 1.0)
	viper.SetDefault("sim.animalSize", 6)
	viper.SetDefault("sim.seed", 0)

	viper.SetDefault("fence.color", "#2563eb")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./herdfence_sessions")
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpIntervalSec", 60)
	viper.SetDefault("storage.asyncWrites", true)
	viper.SetDefault("storage.flushIntervalMs", 2000)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "herdfence")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "herdfence-metrics")
	viper.SetDefault("influx.bucket", "containment")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.intervalMs", 1000)

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.url", "http://localhost:8080")
	viper.SetDefault("api.key", "")
	viper.SetDefault("api.alertBuffer", 256)

	viper.SetDefault("geo.originLongitude", 0.0)
	viper.SetDefault("geo.originLatitude", 0.0)

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetSimConfig returns the simulation parameters section.
func GetSimConfig() SimConfig {
	var cfg SimConfig
	if err := viper.UnmarshalKey("sim", &cfg); err != nil {
		return SimConfig{}
	}
	return cfg
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	var cfg StorageConfig
	if err := viper.UnmarshalKey("storage", &cfg); err != nil {
		return StorageConfig{}
	}
	return cfg
}

// TickPeriod returns the configured tick cadence, floored at 10ms like
// the interactive original.
func TickPeriod() time.Duration {
	ms := viper.GetInt("sim.tickMs")
	if ms < 10 {
		ms = 10
	}
	return time.Duration(ms) * time.Millisecond
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}
