package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/match"
)

var ErrInvalidPosition = errors.New("sequence position must be 1 or greater")

// DefaultSequenceMultipliers rewards longer combos super-linearly.
var DefaultSequenceMultipliers = []float64{1.0, 1.5, 2.5, 4.0, 6.0}

type Config struct {
	MinDurationMs       float64   `yaml:"min_duration_ms"`
	MaxPerEvent         int       `yaml:"max_per_event"`
	BaseMultiplier      float64   `yaml:"base_multiplier"`
	SequenceMultipliers []float64 `yaml:"sequence_multipliers"`
}

func DefaultConfig() Config {
	table := make([]float64, len(DefaultSequenceMultipliers))
	copy(table, DefaultSequenceMultipliers)
	return Config{
		MinDurationMs:       500,
		MaxPerEvent:         1000,
		BaseMultiplier:      100,
		SequenceMultipliers: table,
	}
}

// WithCap returns a copy of cfg with a per-level cap. A non-positive cap
// keeps the configured one.
func (c Config) WithCap(maxPerEvent int) Config {
	if maxPerEvent > 0 {
		c.MaxPerEvent = maxPerEvent
	}
	return c
}

// Delta is the points awarded for one match.
type Delta struct {
	Points int
}

// Multiplier returns the combo multiplier for a 1-based position.
func (c Config) Multiplier(position int) float64 {
	if len(c.SequenceMultipliers) == 0 {
		return 1
	}
	if position > len(c.SequenceMultipliers) {
		position = len(c.SequenceMultipliers)
	}
	return c.SequenceMultipliers[position-1]
}

// Compute converts a completed match into points.
func Compute(r match.Result, cfg Config) (Delta, error) {
	if r.Position < 1 {
		return Delta{}, fmt.Errorf("%w: %d", ErrInvalidPosition, r.Position)
	}
	if r.DurationMs < cfg.MinDurationMs || math.IsNaN(r.DurationMs) {
		return Delta{}, nil
	}

	raw := cfg.BaseMultiplier * (r.DurationMs / 1000) * cfg.Multiplier(r.Position)
	points := math.Round(raw)
	if points < 0 || math.IsNaN(points) {
		return Delta{}, nil
	}
	// A negative cap counts as zero.
	limit := max(cfg.MaxPerEvent, 0)
	if points > float64(limit) {
		points = float64(limit)
	}
	return Delta{Points: int(points)}, nil
}
