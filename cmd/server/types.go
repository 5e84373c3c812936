package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
)

// Limits for POST /api/pitch
const (
	// MaxPitchSamples is a little over 185 ms at 44.1 kHz.
	MaxPitchSamples = 8192
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
)

// PitchRequest is the request body for POST /api/pitch
type PitchRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

// Validate checks if the request is valid
func (r *PitchRequest) Validate() error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("samples cannot be empty")
	}
	if len(r.Samples) > MaxPitchSamples {
		return fmt.Errorf("too many samples: %d (maximum: %d)", len(r.Samples), MaxPitchSamples)
	}
	if r.SampleRate < MinSampleRate || r.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample_rate must be between %d and %d", MinSampleRate, MaxSampleRate)
	}
	return nil
}

// ReadingDTO is a detected pitch expressed as a note
type ReadingDTO struct {
	Note      string  `json:"note"`
	Class     string  `json:"class"`
	Octave    int     `json:"octave"`
	Cents     int     `json:"cents"`
	Frequency float64 `json:"frequency"`
}

func toReadingDTO(r *note.Reading) *ReadingDTO {
	if r == nil {
		return nil
	}
	return &ReadingDTO{
		Note:      r.Note.String(),
		Class:     r.Class.String(),
		Octave:    r.Octave,
		Cents:     r.Cents,
		Frequency: r.Frequency,
	}
}

// PitchResponse is the response for POST /api/pitch
type PitchResponse struct {
	Detected  bool        `json:"detected"`
	Frequency float64     `json:"frequency"`
	Reading   *ReadingDTO `json:"reading,omitempty"`
}

// FrameDTO is one analysis window of an uploaded take
type FrameDTO struct {
	Index     int         `json:"index"`
	StartMs   float64     `json:"start_ms"`
	Detected  bool        `json:"detected"`
	Frequency float64     `json:"frequency"`
	Reading   *ReadingDTO `json:"reading,omitempty"`
}

// AnalyzeResponse is the response for POST /api/analyze
type AnalyzeResponse struct {
	Frames   []FrameDTO `json:"frames"`
	Count    int        `json:"count"`
	Detected int        `json:"detected"`
}

// HitDTO is one scored note of a session
type HitDTO struct {
	Level      string  `json:"level"`
	Target     string  `json:"target"`
	Position   int     `json:"position"`
	DurationMs float64 `json:"duration_ms"`
	Points     int     `json:"points"`
	AtMs       float64 `json:"at_ms"`
}

// SessionDTO represents a stored session in API responses
type SessionDTO struct {
	ID              string    `json:"id"`
	Player          string    `json:"player"`
	StartedAt       time.Time `json:"started_at"`
	DurationMs      float64   `json:"duration_ms"`
	Score           int       `json:"score"`
	Misses          int       `json:"misses"`
	LevelsCompleted int       `json:"levels_completed"`
	LivesLeft       int       `json:"lives_left"`
	Victory         bool      `json:"victory"`
	Abandoned       bool      `json:"abandoned"`
	Hits            []HitDTO  `json:"hits,omitempty"`
}

func toSessionDTO(rec notevoyager.SessionRecord) SessionDTO {
	dto := SessionDTO{
		ID:              rec.ID,
		Player:          rec.Player,
		StartedAt:       rec.StartedAt,
		DurationMs:      rec.DurationMs,
		Score:           rec.Score,
		Misses:          rec.Misses,
		LevelsCompleted: rec.LevelsCompleted,
		LivesLeft:       rec.LivesLeft,
		Victory:         rec.Victory,
		Abandoned:       rec.Abandoned,
	}
	for _, h := range rec.Hits {
		dto.Hits = append(dto.Hits, HitDTO{
			Level:      h.Level,
			Target:     h.Target.String(),
			Position:   h.Position,
			DurationMs: h.DurationMs,
			Points:     h.Points,
			AtMs:       h.AtMs,
		})
	}
	return dto
}

// SaveSessionRequest is the request body for POST /api/sessions, sent by
// clients that ran the game locally.
type SaveSessionRequest struct {
	SessionDTO
}

// Summary validates the request and converts it into a game summary
func (r *SaveSessionRequest) Summary() (game.Summary, error) {
	if r.Player == "" {
		return game.Summary{}, fmt.Errorf("player is required")
	}
	if r.Score < 0 || r.Misses < 0 || r.LivesLeft < 0 || r.LevelsCompleted < 0 || r.DurationMs < 0 {
		return game.Summary{}, fmt.Errorf("counts cannot be negative")
	}
	if r.Victory && r.Abandoned {
		return game.Summary{}, fmt.Errorf("a session cannot be both won and abandoned")
	}

	sum := game.Summary{
		Player:          r.Player,
		StartedAt:       r.StartedAt,
		DurationMs:      r.DurationMs,
		Score:           r.Score,
		Misses:          r.Misses,
		LevelsCompleted: r.LevelsCompleted,
		LivesLeft:       r.LivesLeft,
		Victory:         r.Victory,
		Abandoned:       r.Abandoned,
	}
	if sum.StartedAt.IsZero() {
		sum.StartedAt = time.Now()
	}

	total := 0
	for i, h := range r.Hits {
		target, err := note.ParseNote(h.Target)
		if err != nil {
			return game.Summary{}, fmt.Errorf("hit %d: %w", i+1, err)
		}
		if h.Position < 1 || h.Points < 0 {
			return game.Summary{}, fmt.Errorf("hit %d: invalid position or points", i+1)
		}
		total += h.Points
		sum.Hits = append(sum.Hits, game.Hit{
			Level:      h.Level,
			Target:     target,
			Position:   h.Position,
			DurationMs: h.DurationMs,
			Points:     h.Points,
			AtMs:       h.AtMs,
		})
	}
	if total != r.Score {
		return game.Summary{}, fmt.Errorf("score %d does not match hit points %d", r.Score, total)
	}
	return sum, nil
}

// SaveSessionResponse is the response for successful session storage
type SaveSessionResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ListSessionsResponse is the response for GET /api/sessions and GET /api/highscores
type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
	Count    int          `json:"count"`
}

// DeleteSessionResponse is the response for DELETE /api/sessions/{id}
type DeleteSessionResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status         string  `json:"status"`
	DatabasePath   string  `json:"database_path"`
	SessionCount   int     `json:"session_count"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	PitchRateLimit float64 `json:"pitch_rate_limit"`
	SustainMs      float64 `json:"sustain_ms"`
	ToleranceCents int     `json:"tolerance_cents"`
	PitchMethod    string  `json:"pitch_method"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
