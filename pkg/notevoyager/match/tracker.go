package match

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
)

var ErrInvalidElapsed = errors.New("elapsed time must be a non-negative number")

// Phase of the tracker for the current target.
type Phase int

const (
	Idle Phase = iota
	Approaching
	Sustaining
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Approaching:
		return "approaching"
	case Sustaining:
		return "sustaining"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

type Config struct {
	ToleranceCents int     `yaml:"tolerance_cents"`
	SustainMs      float64 `yaml:"sustain_ms"`
}

func DefaultConfig() Config {
	return Config{
		ToleranceCents: 30,
		SustainMs:      700,
	}
}

// State is passed into and returned from Update by value; callers keep the
// only copy.
type State struct {
	Phase         Phase
	Target        note.Note
	Position      int // 1-based index in the current note sequence
	AccumulatedMs float64
}

// Result is emitted once per completed sustained match.
type Result struct {
	Target     note.Note
	DurationMs float64
	Position   int
}

// Arm starts tracking a new target.
func Arm(target note.Note, position int) State {
	return State{Phase: Approaching, Target: target, Position: position}
}

// Reset discards any target and accumulated time.
func Reset() State {
	return State{Phase: Idle}
}

// Matches reports whether r hits target within tolerance.
func Matches(target note.Note, r *note.Reading, toleranceCents int) bool {
	if r == nil || r.Note != target {
		return false
	}
	cents := r.Cents
	if cents < 0 {
		cents = -cents
	}
	return cents <= toleranceCents
}

// Update advances s by one analysis frame. r is nil when the frame had no
// pitch. Interrupted holds lose all accumulated time.
func Update(s State, r *note.Reading, elapsedMs float64, cfg Config) (State, *Result, error) {
	if elapsedMs < 0 || math.IsNaN(elapsedMs) || math.IsInf(elapsedMs, 0) {
		return s, nil, fmt.Errorf("%w: %v", ErrInvalidElapsed, elapsedMs)
	}
	if s.Phase == Idle {
		return s, nil, nil
	}

	if !Matches(s.Target, r, cfg.ToleranceCents) {
		s.Phase = Approaching
		s.AccumulatedMs = 0
		return s, nil, nil
	}

	s.Phase = Sustaining
	s.AccumulatedMs += elapsedMs
	if s.AccumulatedMs < cfg.SustainMs {
		return s, nil, nil
	}

	res := &Result{
		Target:     s.Target,
		DurationMs: s.AccumulatedMs,
		Position:   s.Position,
	}
	// Re-armed on the same target until the caller issues the next one.
	return Arm(s.Target, s.Position), res, nil
}
