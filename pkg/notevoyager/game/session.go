package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/match"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/score"
)

var ErrSessionOver = errors.New("session is over")

// Hit is one scored sustained match.
type Hit struct {
	Level      string
	Target     note.Note
	Position   int
	DurationMs float64
	Points     int
	AtMs       float64 // session clock when the hit completed
}

// FrameReport describes what a single frame did to the session.
type FrameReport struct {
	Estimate       pitch.Estimate
	Reading        *note.Reading
	Target         note.Note
	Phase          match.Phase
	AccumulatedMs  float64
	Level          int // 0-based
	Position       int
	Hit            *Hit
	Missed         bool
	LevelCompleted bool
	GameOver       bool
	Victory        bool
	Score          int
	Lives          int
}

// Summary is the end-of-game record.
type Summary struct {
	Player          string
	StartedAt       time.Time
	DurationMs      float64
	Score           int
	Hits            []Hit
	Misses          int
	LevelsCompleted int
	LivesLeft       int
	Victory         bool
	Abandoned       bool
}

// Session drives the tracker through a list of levels. Frame updates are
// serialized so capture callbacks on other goroutines cannot interleave.
type Session struct {
	mu sync.Mutex

	cfg       Config
	levels    []Level
	player    string
	startedAt time.Time

	level     int
	position  int
	state     match.State
	attemptMs float64
	clockMs   float64

	score           int
	lives           int
	hits            []Hit
	levelHits       int
	misses          int
	levelsCompleted int
	over            bool
	victory         bool
	abandoned       bool
}

func NewSession(player string, levels []Level, cfg Config) (*Session, error) {
	if err := validateLevels(levels); err != nil {
		return nil, err
	}
	if cfg.Lives <= 0 {
		cfg.Lives = DefaultConfig().Lives
	}

	s := &Session{
		cfg:       cfg,
		levels:    append([]Level(nil), levels...),
		player:    player,
		startedAt: time.Now(),
		lives:     cfg.Lives,
		position:  1,
	}
	s.state = match.Arm(s.currentTarget(), s.position)
	return s, nil
}

func (s *Session) currentTarget() note.Note {
	return s.levels[s.level].Targets[s.position-1]
}

// Frame analyzes one buffer and advances the game by elapsedMs.
func (s *Session) Frame(samples []float64, sampleRate int, elapsedMs float64) (FrameReport, error) {
	est, err := pitch.EstimatePitch(samples, sampleRate, s.cfg.Pitch)
	if err != nil {
		return FrameReport{}, fmt.Errorf("estimating pitch: %w", err)
	}

	var reading *note.Reading
	if est.Detected {
		r, err := note.FrequencyToNote(est.Frequency)
		if err != nil {
			return FrameReport{}, fmt.Errorf("mapping frequency: %w", err)
		}
		reading = &r
	}

	report, err := s.Observe(reading, elapsedMs)
	report.Estimate = est
	return report, err
}

// Observe advances the game with a reading produced elsewhere; nil means no
// pitch this frame.
func (s *Session) Observe(reading *note.Reading, elapsedMs float64) (FrameReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.over {
		return s.reportLocked(reading), ErrSessionOver
	}

	state, res, err := match.Update(s.state, reading, elapsedMs, s.cfg.Match)
	if err != nil {
		return s.reportLocked(reading), err
	}
	s.state = state
	s.attemptMs += elapsedMs
	s.clockMs += elapsedMs

	report := s.reportLocked(reading)
	lvl := s.levels[s.level]

	switch {
	case res != nil:
		delta, err := score.Compute(*res, s.cfg.Score.WithCap(lvl.MaxScorePerEvent))
		if err != nil {
			return report, fmt.Errorf("scoring match: %w", err)
		}
		hit := Hit{
			Level:      lvl.Name,
			Target:     res.Target,
			Position:   res.Position,
			DurationMs: res.DurationMs,
			Points:     delta.Points,
			AtMs:       s.clockMs,
		}
		s.score += delta.Points
		s.hits = append(s.hits, hit)
		s.levelHits++
		report.Hit = &hit
		report.Phase = match.Completed
		report.AccumulatedMs = res.DurationMs
		report.LevelCompleted = s.advanceLocked(true)

	case lvl.AttemptTimeoutMs > 0 && s.attemptMs >= lvl.AttemptTimeoutMs:
		s.lives--
		s.misses++
		report.Missed = true
		if s.lives <= 0 {
			s.endLocked(false)
		} else {
			report.LevelCompleted = s.advanceLocked(false)
		}
	}

	report.Score = s.score
	report.Lives = s.lives
	report.GameOver = s.over
	report.Victory = s.victory
	return report, nil
}

// advanceLocked moves past the current target, hit or missed, and reports
// whether a level was completed on the way. A level counts as completed only
// if at least one of its targets was hit. The game is won only when every
// level was completed and the final target was hit.
func (s *Session) advanceLocked(hit bool) bool {
	s.attemptMs = 0
	s.position++
	if s.position <= len(s.levels[s.level].Targets) {
		s.state = match.Arm(s.currentTarget(), s.position)
		return false
	}

	completed := s.levelHits > 0
	if completed {
		s.levelsCompleted++
	}
	s.levelHits = 0
	s.level++
	s.position = 1
	if s.level >= len(s.levels) {
		s.level = len(s.levels) - 1
		s.position = len(s.levels[s.level].Targets)
		s.endLocked(hit && s.levelsCompleted == len(s.levels))
		return completed
	}
	s.state = match.Arm(s.currentTarget(), s.position)
	return completed
}

func (s *Session) endLocked(victory bool) {
	s.over = true
	s.victory = victory
	s.state = match.Reset()
}

func (s *Session) reportLocked(reading *note.Reading) FrameReport {
	return FrameReport{
		Reading:       reading,
		Target:        s.state.Target,
		Phase:         s.state.Phase,
		AccumulatedMs: s.state.AccumulatedMs,
		Level:         s.level,
		Position:      s.position,
		Score:         s.score,
		Lives:         s.lives,
		GameOver:      s.over,
		Victory:       s.victory,
	}
}

// Abandon discards the current match and ends the session.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return
	}
	s.abandoned = true
	s.endLocked(false)
}

func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// Current returns the active target and its 1-based position; ok is false
// once the session has ended.
func (s *Session) Current() (target note.Note, level Level, position int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return note.Note{}, Level{}, 0, false
	}
	return s.currentTarget(), s.levels[s.level], s.position, true
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Player:          s.player,
		StartedAt:       s.startedAt,
		DurationMs:      s.clockMs,
		Score:           s.score,
		Hits:            append([]Hit(nil), s.hits...),
		Misses:          s.misses,
		LevelsCompleted: s.levelsCompleted,
		LivesLeft:       s.lives,
		Victory:         s.victory,
		Abandoned:       s.abandoned,
	}
}
