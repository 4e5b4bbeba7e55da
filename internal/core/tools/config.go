// Package tools holds the drawing tool state and turns pointer gestures into
// document operations.
package tools

import (
	"fmt"
	"math"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolFreehand Tool = "freehand"
	ToolMarker   Tool = "marker"
	ToolLine     Tool = "line"
	ToolCircle   Tool = "circle"
	ToolEraser   Tool = "eraser"
)

// Valid reports whether t names a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolFreehand, ToolMarker, ToolLine, ToolCircle, ToolEraser:
		return true
	}
	return false
}

const (
	DefaultColor        = "#ff3232"
	DefaultWeight       = 5.0
	DefaultCircleRadius = 1000.0

	// DefaultEraserRadius is the eraser size before the weight is first changed.
	DefaultEraserRadius = 24.0
)

// EraserRadiusFor returns the eraser radius in pixels that goes with a stroke
// weight, so a thicker pen erases a wider swath.
func EraserRadiusFor(weight float64) float64 {
	return 10 + 1.8*weight
}

// Config is the tool configuration passed into placement and erase
// operations. It is a value; the With methods return modified copies.
type Config struct {
	Tool                   Tool    `json:"tool"`
	Color                  string  `json:"color"`
	Weight                 float64 `json:"weight"`
	EraserRadius           float64 `json:"eraser_radius"`
	DefaultCircleRadius    float64 `json:"default_circle_radius"`
	UseDefaultCircleRadius bool    `json:"use_default_circle_radius"`
}

// DefaultConfig returns the configuration a fresh session starts with.
func DefaultConfig() Config {
	return Config{
		Tool:                ToolFreehand,
		Color:               DefaultColor,
		Weight:              DefaultWeight,
		EraserRadius:        DefaultEraserRadius,
		DefaultCircleRadius: DefaultCircleRadius,
	}
}

// Style is the stroke style new shapes are drawn with.
func (c Config) Style() domain.Style {
	return domain.Style{Color: c.Color, Weight: c.Weight}
}

// WithTool returns a copy using tool t.
func (c Config) WithTool(t Tool) Config {
	c.Tool = t
	return c
}

// WithColor returns a copy drawing in color.
func (c Config) WithColor(color string) Config {
	c.Color = color
	return c
}

// WithWeight returns a copy with the given stroke weight and the matching
// eraser radius.
func (c Config) WithWeight(weight float64) Config {
	c.Weight = weight
	c.EraserRadius = EraserRadiusFor(weight)
	return c
}

// Validate checks the configuration can be used to draw.
func (c Config) Validate() error {
	if !c.Tool.Valid() {
		return fmt.Errorf("unknown tool %q", c.Tool)
	}
	if err := c.Style().Validate(); err != nil {
		return err
	}
	if !(c.EraserRadius >= 0) || math.IsInf(c.EraserRadius, 0) {
		return fmt.Errorf("eraser radius must be >= 0, got %v", c.EraserRadius)
	}
	if !(c.DefaultCircleRadius >= 0) || math.IsInf(c.DefaultCircleRadius, 0) {
		return fmt.Errorf("default circle radius must be >= 0, got %v", c.DefaultCircleRadius)
	}
	return nil
}
