package tools_test

import (
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/tools"
)

func TestConfig_WithWeightUpdatesEraser(t *testing.T) {
	cfg := tools.DefaultConfig()
	if cfg.EraserRadius != tools.DefaultEraserRadius {
		t.Fatalf("expected default eraser radius %v, got %v", tools.DefaultEraserRadius, cfg.EraserRadius)
	}

	next := cfg.WithWeight(10)
	if next.Weight != 10 {
		t.Errorf("expected weight 10, got %v", next.Weight)
	}
	if next.EraserRadius != 28 {
		t.Errorf("expected eraser radius 10+1.8*10=28, got %v", next.EraserRadius)
	}
	if cfg.Weight != tools.DefaultWeight {
		t.Error("WithWeight modified the receiver")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  tools.Config
		ok   bool
	}{
		{"default", tools.DefaultConfig(), true},
		{"zero weight", tools.DefaultConfig().WithWeight(0), false},
		{"no color", tools.DefaultConfig().WithColor(""), false},
		{"unknown tool", tools.DefaultConfig().WithTool("spray"), false},
		{"negative circle radius", func() tools.Config {
			c := tools.DefaultConfig()
			c.DefaultCircleRadius = -1
			return c
		}(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
