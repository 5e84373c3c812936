package jsbridge

import (
	"errors"
	"testing"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
)

func TestEstimate(t *testing.T) {
	out := Estimate(pitch.Estimate{Frequency: 440, Detected: true})
	r, ok := out["reading"].(map[string]any)
	if !ok {
		t.Fatalf("Expected a reading map, got %T", out["reading"])
	}
	if r["note"] != "A4" || r["cents"] != 0 {
		t.Errorf("Unexpected reading: %v", r)
	}

	if out := Estimate(pitch.NoPitch); out["reading"] != nil || out["detected"] != false {
		t.Errorf("Expected no reading for NoPitch, got %v", out)
	}
}

func TestReportWithHit(t *testing.T) {
	a4 := note.Note{Class: note.A, Octave: 4}
	rep := game.FrameReport{
		Target: a4,
		Hit:    &game.Hit{Level: "Mercury", Target: a4, Position: 1, Points: 70},
		Score:  70,
		Lives:  3,
	}
	out := Report(rep)
	hit, ok := out["hit"].(map[string]any)
	if !ok || hit["points"] != 70 || hit["target"] != "A4" {
		t.Errorf("Unexpected hit: %v", out["hit"])
	}
	if out["reading"] != nil {
		t.Errorf("Expected nil reading, got %v", out["reading"])
	}
	if out["phase"] != "idle" {
		t.Errorf("Expected idle phase, got %v", out["phase"])
	}
}

func TestSummary(t *testing.T) {
	sum := game.Summary{Player: "ada", Score: 5, Hits: []game.Hit{{Points: 5}}}
	out := Summary(sum)
	hits, ok := out["hits"].([]any)
	if !ok || len(hits) != 1 {
		t.Errorf("Expected one hit, got %v", out["hits"])
	}
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels(`[{"name":"Pluto","targets":["C4","Bb3"],"attempt_timeout_ms":5000}]`)
	if err != nil {
		t.Fatalf("ParseLevels failed: %v", err)
	}
	if levels[0].Targets[1] != (note.Note{Class: note.ASharp, Octave: 3}) || levels[0].AttemptTimeoutMs != 5000 {
		t.Errorf("Unexpected levels: %+v", levels)
	}

	def, err := ParseLevels("")
	if err != nil || len(def) != len(game.DefaultLevels()) {
		t.Errorf("Expected default levels, got %d (%v)", len(def), err)
	}

	if _, err := ParseLevels(`[{"targets":["X9"]}]`); err == nil {
		t.Error("Expected error for invalid note")
	}
}

func TestStereoToMono(t *testing.T) {
	got := StereoToMono([]float64{1, 0, 0.5, 0.5, 9})
	if len(got) != 2 || got[0] != 0.5 || got[1] != 0.5 {
		t.Errorf("Unexpected mono samples: %v", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	s, err := game.NewSession("ada", game.DefaultLevels(), game.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	id := reg.Add(s)
	if got, err := reg.Get(id); err != nil || got != s {
		t.Fatalf("Expected stored session, got %v (%v)", got, err)
	}
	if other := reg.Add(s); other == id {
		t.Error("Expected distinct handles")
	}

	if _, err := reg.Remove(id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := reg.Get(id); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("Expected ErrUnknownGame, got %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Expected one session left, got %d", reg.Len())
	}
}
