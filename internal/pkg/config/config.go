package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend names accepted in storage.backends.
const (
	BackendBridge   = "bridge"
	BackendValkey   = "valkey"
	BackendPostgres = "postgres"
	BackendTemporal = "temporal"
)

var knownBackends = []string{BackendBridge, BackendValkey, BackendPostgres, BackendTemporal}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Drawing   DrawingConfig   `mapstructure:"drawing"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	OpenAPIPath  string `mapstructure:"openapi_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig configures event forwarding. An empty URL disables NATS.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// StorageConfig selects where drawings are persisted. Backends are tried in
// order on load; every backend is written on save.
type StorageConfig struct {
	Backends    []string      `mapstructure:"backends"`
	BridgePath  string        `mapstructure:"bridge_path"`
	PalettePath string        `mapstructure:"palette_path"`
	StorageKey  string        `mapstructure:"storage_key"`
	PaletteKey  string        `mapstructure:"palette_key"`
	DocumentKey string        `mapstructure:"document_key"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
}

// Uses reports whether backend is enabled.
func (s StorageConfig) Uses(backend string) bool {
	return slices.Contains(s.Backends, backend)
}

type DrawingConfig struct {
	HistoryLimit        int     `mapstructure:"history_limit"`
	DefaultColor        string  `mapstructure:"default_color"`
	DefaultWeight       float64 `mapstructure:"default_weight"`
	DefaultCircleRadius float64 `mapstructure:"default_circle_radius"`
	CircleSteps         int     `mapstructure:"circle_steps"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.openapi_path", "api/openapi.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mapdraw")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "mapdraw")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "mapdraw-archive")
	v.SetDefault("storage.backends", []string{BackendBridge, BackendValkey})
	v.SetDefault("storage.bridge_path", "drawn_map.geojson")
	v.SetDefault("storage.palette_path", "palette.json")
	v.SetDefault("storage.storage_key", "mapdraw_drawings")
	v.SetDefault("storage.palette_key", "mapdraw_custom_palette")
	v.SetDefault("storage.document_key", "default")
	v.SetDefault("storage.save_timeout", 5*time.Second)
	v.SetDefault("drawing.history_limit", 50)
	v.SetDefault("drawing.default_color", "#ff3232")
	v.SetDefault("drawing.default_weight", 5.0)
	v.SetDefault("drawing.default_circle_radius", 1000.0)
	v.SetDefault("drawing.circle_steps", 64)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPDRAW_STORAGE_BACKENDS → storage.backends
	v.SetEnvPrefix("MAPDRAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// Backend sections are only checked when the backend is enabled.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	for _, b := range c.Storage.Backends {
		if !slices.Contains(knownBackends, b) {
			errs = append(errs, fmt.Sprintf("storage.backends: unknown backend %q", b))
		}
	}
	if c.Storage.Uses(BackendBridge) && c.Storage.BridgePath == "" {
		errs = append(errs, "storage.bridge_path is required for the bridge backend")
	}
	if c.Storage.Uses(BackendValkey) && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required for the valkey backend")
	}
	if c.Storage.Uses(BackendPostgres) || c.Storage.Uses(BackendTemporal) {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.Storage.Uses(BackendTemporal) && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required for the temporal backend")
	}
	if c.Storage.StorageKey == "" {
		errs = append(errs, "storage.storage_key is required")
	}
	if c.Storage.DocumentKey == "" {
		errs = append(errs, "storage.document_key is required")
	}
	if c.Storage.SaveTimeout <= 0 {
		errs = append(errs, "storage.save_timeout must be positive")
	}

	if c.Drawing.HistoryLimit <= 0 {
		errs = append(errs, "drawing.history_limit must be positive")
	}
	if c.Drawing.DefaultColor == "" {
		errs = append(errs, "drawing.default_color is required")
	}
	if c.Drawing.DefaultWeight <= 0 {
		errs = append(errs, "drawing.default_weight must be positive")
	}
	if c.Drawing.DefaultCircleRadius < 0 {
		errs = append(errs, "drawing.default_circle_radius must be >= 0")
	}
	if c.Drawing.CircleSteps < 0 {
		errs = append(errs, "drawing.circle_steps must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
