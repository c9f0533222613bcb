// Package config loads engine configuration from a JSON file through
// viper, with defaults for every key so a minimal file is enough.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// StoreConfig holds voyage store settings for the selected backend.
type StoreConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// MemoryConfig holds in-memory/JSON store backend settings.
type MemoryConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// SQLiteConfig holds sqlite store backend settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds postgres store backend settings.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// PlaybackConfig holds playback tuning.
type PlaybackConfig struct {
	FrameInterval   time.Duration `json:"frameInterval" mapstructure:"frameInterval"`
	ShowVesselNames bool          `json:"showVesselNames" mapstructure:"showVesselNames"`
}

// MeasureConfig holds measurement tool defaults.
type MeasureConfig struct {
	DefaultUnit       string  `json:"defaultUnit" mapstructure:"defaultUnit"`
	DefaultSpeedKnots float64 `json:"defaultSpeedKnots" mapstructure:"defaultSpeedKnots"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "http://localhost:5000/api")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("ws.enabled", true)
	viper.SetDefault("ws.url", "ws://localhost:5001/render")
	viper.SetDefault("ws.secret", "")

	viper.SetDefault("store.type", "memory")
	viper.SetDefault("store.memory.outputDir", "./voyages")
	viper.SetDefault("store.sqlite.path", "./fleetengine.db")
	viper.SetDefault("store.postgres.host", "localhost")
	viper.SetDefault("store.postgres.port", "5432")
	viper.SetDefault("store.postgres.username", "postgres")
	viper.SetDefault("store.postgres.password", "postgres")
	viper.SetDefault("store.postgres.database", "fleetengine")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "fleet-metrics")

	viper.SetDefault("playback.frameInterval", "50ms")
	viper.SetDefault("playback.showVesselNames", false)

	viper.SetDefault("measure.defaultUnit", "nm")
	viper.SetDefault("measure.defaultSpeedKnots", 0.0)

	viper.SetConfigName("fleetengine.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
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

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetStoreConfig returns the typed voyage store configuration.
func GetStoreConfig() StoreConfig {
	var cfg StoreConfig
	if err := viper.UnmarshalKey("store", &cfg); err != nil {
		return StoreConfig{Type: "memory"}
	}
	return cfg
}

// GetPlaybackConfig returns the typed playback configuration.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		FrameInterval:   viper.GetDuration("playback.frameInterval"),
		ShowVesselNames: viper.GetBool("playback.showVesselNames"),
	}
}

// GetMeasureConfig returns the typed measurement tool configuration.
func GetMeasureConfig() MeasureConfig {
	return MeasureConfig{
		DefaultUnit:       viper.GetString("measure.defaultUnit"),
		DefaultSpeedKnots: viper.GetFloat64("measure.defaultSpeedKnots"),
	}
}
