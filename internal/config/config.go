// Package config assembles the service configuration from defaults, an
// optional TOML file and APOS_* environment variables, in that order.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/naoina/toml"

	"github.com/star/apos/internal/auth"
	"github.com/star/apos/internal/httputil"
)

// EnvConfigFile names the environment variable holding the TOML file path.
const EnvConfigFile = "APOS_CONFIG"

type EphemerisConfig struct {
	File string `toml:"file"`
}

type DataConfig struct {
	Dir string `toml:"dir"` // empty selects the embedded tables
}

type HTTPConfig struct {
	Addr       string  `toml:"addr"`
	RateLimit  float64 `toml:"rate_limit"` // requests per second per client IP
	RateBurst  int     `toml:"rate_burst"`
	TrustProxy bool    `toml:"trust_proxy"`
}

type SeriesConfig struct {
	Workers   int `toml:"workers"`
	MaxPoints int `toml:"max_points"`
}

type TimescaleConfig struct {
	EpochCacheSize int `toml:"epoch_cache_size"`
}

type CLIConfig struct {
	TimezoneOffset int `toml:"timezone_offset"` // hours east of UTC for CLI input
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Config is the complete service configuration.
type Config struct {
	Ephemeris EphemerisConfig `toml:"ephemeris"`
	Data      DataConfig      `toml:"data"`
	HTTP      HTTPConfig      `toml:"http"`
	Auth      auth.Config     `toml:"auth"`
	Series    SeriesConfig    `toml:"series"`
	Timescale TimescaleConfig `toml:"timescale"`
	CLI       CLIConfig       `toml:"cli"`
	Log       LogConfig       `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Ephemeris: EphemerisConfig{File: "JPLEPH"},
		HTTP: HTTPConfig{
			Addr:      ":8080",
			RateLimit: 5,
			RateBurst: 10,
		},
		Series: SeriesConfig{
			Workers:   runtime.NumCPU(),
			MaxPoints: 1000,
		},
		Timescale: TimescaleConfig{EpochCacheSize: 1024},
		CLI:       CLIConfig{TimezoneOffset: 9},
		Log:       LogConfig{Level: "info"},
	}
}

// RateLimitConfig returns the HTTP rate limiter settings.
func (c Config) RateLimitConfig() httputil.RateLimitConfig {
	return httputil.RateLimitConfig{
		PerSecond:  c.HTTP.RateLimit,
		Burst:      c.HTTP.RateBurst,
		TrustProxy: c.HTTP.TrustProxy,
	}
}

// LogLevel parses Log.Level, falling back to Info.
func (c Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the file named by
// APOS_CONFIG (if set) and the environment. Invalid environment values are
// logged and ignored; an unreadable config file or an incomplete auth
// section is an error.
func Load(logger *slog.Logger) (Config, error) {
	return load(logger, os.Getenv)
}

func load(logger *slog.Logger, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path := getenv(EnvConfigFile); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
		logger.Info("config file loaded", "path", path)
	}

	e := env{logger: logger, getenv: getenv}
	loadEphemerisConfig(e, &cfg.Ephemeris, &cfg.Data)
	loadHTTPConfig(e, &cfg.HTTP)
	loadSeriesConfig(e, &cfg.Series, &cfg.Timescale)
	loadCLIConfig(e, &cfg.CLI, &cfg.Log)
	if err := loadAuthConfig(e, &cfg.Auth); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadEphemerisConfig(e env, eph *EphemerisConfig, data *DataConfig) {
	e.str("APOS_EPHEMERIS_FILE", &eph.File)
	e.str("APOS_DATA_DIR", &data.Dir)

	e.logger.Info("ephemeris config",
		"ephemeris_file", eph.File,
		"data_dir", data.Dir,
	)
}

func loadHTTPConfig(e env, cfg *HTTPConfig) {
	e.str("APOS_HTTP_ADDR", &cfg.Addr)
	if v := e.getenv("APOS_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			e.logger.Warn("invalid APOS_RATE_LIMIT value, using default", "value", v, "default", cfg.RateLimit)
		} else {
			cfg.RateLimit = f
		}
	}
	e.positiveInt("APOS_RATE_BURST", &cfg.RateBurst)
	e.boolean("APOS_TRUST_PROXY", &cfg.TrustProxy)

	e.logger.Info("http config",
		"addr", cfg.Addr,
		"rate_limit", cfg.RateLimit,
		"rate_burst", cfg.RateBurst,
		"trust_proxy", cfg.TrustProxy,
	)
}

func loadSeriesConfig(e env, cfg *SeriesConfig, ts *TimescaleConfig) {
	e.positiveInt("APOS_SERIES_WORKERS", &cfg.Workers)
	e.positiveInt("APOS_SERIES_MAX_POINTS", &cfg.MaxPoints)
	e.positiveInt("APOS_EPOCH_CACHE_SIZE", &ts.EpochCacheSize)

	e.logger.Info("series config",
		"workers", cfg.Workers,
		"max_points", cfg.MaxPoints,
		"epoch_cache_size", ts.EpochCacheSize,
	)
}

func loadCLIConfig(e env, cfg *CLIConfig, log *LogConfig) {
	if v := e.getenv("APOS_TIMEZONE_OFFSET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -12 || n > 14 {
			e.logger.Warn("invalid APOS_TIMEZONE_OFFSET value, using default", "value", v, "default", cfg.TimezoneOffset)
		} else {
			cfg.TimezoneOffset = n
		}
	}
	e.str("APOS_LOG_LEVEL", &log.Level)
}

func loadAuthConfig(e env, cfg *auth.Config) error {
	if v := e.getenv("APOS_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("APOS_AUTH_ENABLED must be a boolean value (true/false/1/0): %q", v)
		}
		cfg.Enabled = enabled
	}
	e.str("APOS_AUTH_TOKEN", &cfg.Token)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("APOS_AUTH_TOKEN: %w", err)
	}
	if cfg.Enabled {
		e.logger.Info("auth enabled")
	}
	return nil
}

// env reads APOS_* variables into config fields. Invalid values are logged
// and leave the field unchanged.
type env struct {
	logger *slog.Logger
	getenv func(string) string
}

func (e env) str(name string, dst *string) {
	if v := e.getenv(name); v != "" {
		*dst = v
	}
}

func (e env) positiveInt(name string, dst *int) {
	v := e.getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		e.logger.Warn("invalid "+name+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = n
}

func (e env) boolean(name string, dst *bool) {
	v := e.getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.logger.Warn("invalid "+name+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = b
}
