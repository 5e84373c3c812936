// Package jsbridge turns engine values into the plain maps and slices that
// syscall/js.ValueOf accepts, so the browser build stays thin.
package jsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
)

var ErrUnknownGame = errors.New("unknown game id")

func Reading(r *note.Reading) any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"note":      r.Note.String(),
		"class":     r.Class.String(),
		"octave":    r.Octave,
		"cents":     r.Cents,
		"frequency": r.Frequency,
	}
}

// Estimate reports a pitch estimate together with its nearest note.
func Estimate(est pitch.Estimate) map[string]any {
	out := map[string]any{
		"detected":  est.Detected,
		"frequency": est.Frequency,
		"reading":   nil,
	}
	if est.Detected {
		if r, err := note.FrequencyToNote(est.Frequency); err == nil {
			out["reading"] = Reading(&r)
		}
	}
	return out
}

func Hit(h game.Hit) map[string]any {
	return map[string]any{
		"level":      h.Level,
		"target":     h.Target.String(),
		"position":   h.Position,
		"durationMs": h.DurationMs,
		"points":     h.Points,
		"atMs":       h.AtMs,
	}
}

func Report(r game.FrameReport) map[string]any {
	out := map[string]any{
		"detected":       r.Estimate.Detected,
		"frequency":      r.Estimate.Frequency,
		"reading":        Reading(r.Reading),
		"target":         r.Target.String(),
		"phase":          r.Phase.String(),
		"accumulatedMs":  r.AccumulatedMs,
		"level":          r.Level,
		"position":       r.Position,
		"hit":            nil,
		"missed":         r.Missed,
		"levelCompleted": r.LevelCompleted,
		"gameOver":       r.GameOver,
		"victory":        r.Victory,
		"score":          r.Score,
		"lives":          r.Lives,
	}
	if r.Hit != nil {
		out["hit"] = Hit(*r.Hit)
	}
	return out
}

func Summary(s game.Summary) map[string]any {
	hits := make([]any, len(s.Hits))
	for i, h := range s.Hits {
		hits[i] = Hit(h)
	}
	return map[string]any{
		"player":          s.Player,
		"startedAt":       s.StartedAt.UnixMilli(),
		"durationMs":      s.DurationMs,
		"score":           s.Score,
		"hits":            hits,
		"misses":          s.Misses,
		"levelsCompleted": s.LevelsCompleted,
		"livesLeft":       s.LivesLeft,
		"victory":         s.Victory,
		"abandoned":       s.Abandoned,
	}
}

// ParseLevels reads levels from JSON; an empty string means the default tour.
func ParseLevels(text string) ([]game.Level, error) {
	if text == "" {
		return game.DefaultLevels(), nil
	}
	var levels []game.Level
	if err := json.Unmarshal([]byte(text), &levels); err != nil {
		return nil, fmt.Errorf("parsing levels: %w", err)
	}
	return levels, nil
}

// StereoToMono averages interleaved left/right samples, dropping a trailing
// odd sample.
func StereoToMono(stereo []float64) []float64 {
	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2
	}
	return mono
}

// Registry hands out integer handles for sessions living in the page.
type Registry struct {
	mu    sync.Mutex
	next  int
	games map[int]*game.Session
}

func NewRegistry() *Registry {
	return &Registry{next: 1, games: make(map[int]*game.Session)}
}

func (r *Registry) Add(s *game.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.games[id] = s
	return id
}

func (r *Registry) Get(id int) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGame, id)
	}
	return s, nil
}

// Remove forgets the session and returns it.
func (r *Registry) Remove(id int) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGame, id)
	}
	delete(r.games, id)
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
