package game

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/match"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/score"
)

var (
	ErrNoLevels   = errors.New("at least one level is required")
	ErrEmptyLevel = errors.New("level has no target notes")
)

// Level is one planet: a phrase of target notes sung in order.
type Level struct {
	Name             string      `yaml:"name" json:"name"`
	Targets          []note.Note `yaml:"targets" json:"targets"`
	MaxScorePerEvent int         `yaml:"max_score_per_event" json:"max_score_per_event"`
	AttemptTimeoutMs float64     `yaml:"attempt_timeout_ms" json:"attempt_timeout_ms"`
}

func validateLevels(levels []Level) error {
	if len(levels) == 0 {
		return ErrNoLevels
	}
	for i, l := range levels {
		if len(l.Targets) == 0 {
			return fmt.Errorf("level %d (%s): %w", i+1, l.Name, ErrEmptyLevel)
		}
	}
	return nil
}

// Config bundles the tuning of every engine stage.
type Config struct {
	Pitch pitch.Config `yaml:"pitch"`
	Match match.Config `yaml:"match"`
	Score score.Config `yaml:"score"`
	Lives int          `yaml:"lives"`
}

func DefaultConfig() Config {
	return Config{
		Pitch: pitch.DefaultConfig(),
		Match: match.DefaultConfig(),
		Score: score.DefaultConfig(),
		Lives: 3,
	}
}

func n(class note.PitchClass, octave int) note.Note {
	return note.Note{Class: class, Octave: octave}
}

// DefaultLevels is a short C-major tour used when the host supplies none.
func DefaultLevels() []Level {
	return []Level{
		{
			Name:             "Mercury",
			Targets:          []note.Note{n(note.C, 4), n(note.D, 4), n(note.E, 4)},
			AttemptTimeoutMs: 8000,
		},
		{
			Name:             "Venus",
			Targets:          []note.Note{n(note.C, 4), n(note.E, 4), n(note.G, 4), n(note.C, 5)},
			AttemptTimeoutMs: 7000,
		},
		{
			Name:             "Earth",
			Targets:          []note.Note{n(note.A, 3), n(note.C, 4), n(note.E, 4), n(note.A, 4), n(note.E, 4)},
			AttemptTimeoutMs: 6000,
		},
		{
			Name:             "Mars",
			Targets:          []note.Note{n(note.G, 3), n(note.B, 3), n(note.D, 4), n(note.F, 4), n(note.G, 4)},
			MaxScorePerEvent: 800,
			AttemptTimeoutMs: 6000,
		},
	}
}
