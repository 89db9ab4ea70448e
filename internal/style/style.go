// Package style maps a camera-to-point distance to label styling.
package style

import (
	"fmt"
	"math"
	"strings"

	"github.com/snar-ar/overlay/pkg/core"
)

// Default styling constants. A label shrinks from MaxTextScale at the
// camera to MinTextScale at MaxVisibleDistance and disappears beyond it.
const (
	DefaultMaxTextScale       = 16.0
	DefaultMinTextScale       = 8.0
	DefaultMaxVisibleDistance = 500.0
)

// Config holds the mapper constants.
type Config struct {
	MaxTextScale       float64 `json:"maxTextScale" mapstructure:"maxTextScale"`
	MinTextScale       float64 `json:"minTextScale" mapstructure:"minTextScale"`
	MaxVisibleDistance float64 `json:"maxVisibleDistance" mapstructure:"maxVisibleDistance"`
}

// DefaultConfig returns the stock styling constants.
func DefaultConfig() Config {
	return Config{
		MaxTextScale:       DefaultMaxTextScale,
		MinTextScale:       DefaultMinTextScale,
		MaxVisibleDistance: DefaultMaxVisibleDistance,
	}
}

// Validate rejects constants that would break monotonicity or produce a
// non-positive scale.
func (c Config) Validate() error {
	if c.MinTextScale <= 0 {
		return fmt.Errorf("minTextScale must be positive, got %v", c.MinTextScale)
	}
	if c.MaxTextScale < c.MinTextScale {
		return fmt.Errorf("maxTextScale (%v) must not be below minTextScale (%v)", c.MaxTextScale, c.MinTextScale)
	}
	if !(c.MaxVisibleDistance > 0) {
		return fmt.Errorf("maxVisibleDistance must be positive, got %v", c.MaxVisibleDistance)
	}
	return nil
}

// Mapper turns distances into text scale and visibility.
type Mapper struct {
	cfg Config
}

// NewMapper validates cfg and returns a Mapper.
func NewMapper(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid style config: %w", err)
	}
	return &Mapper{cfg: cfg}, nil
}

// Config returns the constants the mapper was built with.
func (m *Mapper) Config() Config {
	return m.cfg
}

// Style returns the text scale for a distance in metres and whether a
// label at that distance is shown. Non-positive and NaN distances get the
// nearest styling.
func (m *Mapper) Style(distance float64) (textScale float64, visible bool) {
	switch {
	case !(distance > 0):
		return m.cfg.MaxTextScale, true
	case distance >= m.cfg.MaxVisibleDistance:
		return m.cfg.MinTextScale, false
	}
	span := m.cfg.MaxTextScale - m.cfg.MinTextScale
	return m.cfg.MaxTextScale - span*(distance/m.cfg.MaxVisibleDistance), true
}

// Label formats the annotation text for a point: its name and rounded
// distance on the first line, the description (if any) on the second.
func Label(p core.PointOfInterest, distance float64) string {
	var b strings.Builder
	b.WriteString(p.Name)
	fmt.Fprintf(&b, " (%d m)", int64(math.Round(math.Max(distance, 0))))
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.Description)
	}
	return b.String()
}
