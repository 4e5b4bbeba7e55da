package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/mapdraw/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("mapdraw-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Storage.Uses(config.BackendBridge) || !cfg.Storage.Uses(config.BackendValkey) {
		t.Errorf("expected bridge and valkey by default, got %v", cfg.Storage.Backends)
	}
	if cfg.Storage.StorageKey != "mapdraw_drawings" || cfg.Storage.PaletteKey != "mapdraw_custom_palette" {
		t.Errorf("unexpected storage keys %q %q", cfg.Storage.StorageKey, cfg.Storage.PaletteKey)
	}
	if cfg.Storage.SaveTimeout != 5*time.Second {
		t.Errorf("expected 5s save timeout, got %v", cfg.Storage.SaveTimeout)
	}
	if cfg.Drawing.HistoryLimit != 50 || cfg.Drawing.DefaultCircleRadius != 1000 {
		t.Errorf("unexpected drawing defaults %+v", cfg.Drawing)
	}
	if cfg.Telemetry.ServiceName != "mapdraw-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MAPDRAW_SERVER_PORT", "9090")
	t.Setenv("MAPDRAW_STORAGE_BACKENDS", "bridge,postgres")
	t.Setenv("MAPDRAW_STORAGE_SAVE_TIMEOUT", "250ms")

	cfg, err := config.Load("mapdraw-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Storage.Backends) != 2 || !cfg.Storage.Uses(config.BackendPostgres) {
		t.Errorf("expected [bridge postgres], got %v", cfg.Storage.Backends)
	}
	if cfg.Storage.SaveTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Storage.SaveTimeout)
	}
}

func validConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Storage: config.StorageConfig{
			Backends:    []string{config.BackendBridge},
			BridgePath:  "drawn_map.geojson",
			StorageKey:  "mapdraw_drawings",
			DocumentKey: "default",
			SaveTimeout: time.Second,
		},
		Drawing: config.DrawingConfig{HistoryLimit: 50, DefaultColor: "#ff3232", DefaultWeight: 5},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown backend", func(c *config.Config) { c.Storage.Backends = []string{"s3"} }, `unknown backend "s3"`},
		{"postgres needs database", func(c *config.Config) { c.Storage.Backends = []string{config.BackendPostgres} }, "database.host"},
		{"temporal needs host", func(c *config.Config) {
			c.Storage.Backends = []string{config.BackendTemporal}
			c.Database = config.DatabaseConfig{Host: "db", Port: 5432, User: "u", DBName: "d"}
		}, "temporal.host_port"},
		{"valkey needs addr", func(c *config.Config) { c.Storage.Backends = []string{config.BackendValkey} }, "valkey.addr"},
		{"history limit", func(c *config.Config) { c.Drawing.HistoryLimit = 0 }, "drawing.history_limit"},
		{"weight", func(c *config.Config) { c.Drawing.DefaultWeight = -1 }, "drawing.default_weight"},
		{"save timeout", func(c *config.Config) { c.Storage.SaveTimeout = 0 }, "storage.save_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "mapdraw", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@db:5432/mapdraw?sslmode=disable" {
		t.Errorf("unexpected DSN %s", got)
	}
}
