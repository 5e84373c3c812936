package notevoyager

import (
	"context"
	"errors"
	"fmt"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/audio"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
)

var ErrTakeTooShort = errors.New("take is shorter than one analysis frame")

// voyagerService is the default implementation of the Service interface.
type voyagerService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().Named("notevoyager")
	}
	if cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		return nil, fmt.Errorf("%w: frame size and hop must be positive", ErrInvalidConfig)
	}
	if err := ValidateEngineConfig(cfg.Engine); err != nil {
		return nil, err
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &voyagerService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

func (s *voyagerService) EngineConfig() EngineConfig {
	return s.config.Engine
}

// AnalyzeFile reads a take and reports the pitch of every analysis window.
func (s *voyagerService) AnalyzeFile(ctx context.Context, audioPath string) ([]FrameAnalysis, error) {
	s.log.Infof("Analyzing take: %s", audioPath)

	samples, sampleRate, err := audio.LoadTake(ctx, audioPath, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to load take: %w", err)
	}
	return s.AnalyzeSamples(samples, sampleRate)
}

func (s *voyagerService) AnalyzeSamples(samples []float64, sampleRate int) ([]FrameAnalysis, error) {
	frames := audio.Frames(samples, s.config.FrameSize, s.config.HopSize)
	if len(frames) == 0 {
		return nil, ErrTakeTooShort
	}

	hopMs := audio.FrameDurationMs(s.config.HopSize, sampleRate)
	out := make([]FrameAnalysis, 0, len(frames))
	detected := 0
	for i, frame := range frames {
		est, err := pitch.EstimatePitch(frame, sampleRate, s.config.Engine.Pitch)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		fa := FrameAnalysis{
			Index:     i,
			StartMs:   float64(i) * hopMs,
			Frequency: est.Frequency,
			Detected:  est.Detected,
		}
		if est.Detected {
			r, err := note.FrequencyToNote(est.Frequency)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			fa.Reading = &r
			detected++
		}
		out = append(out, fa)
	}

	s.log.Debugf("Detected pitch in %d/%d frames", detected, len(frames))
	return out, nil
}

// PlayFile runs a game against a recorded take as if it were sung live. A
// take that ends before the game does counts as abandoned.
func (s *voyagerService) PlayFile(ctx context.Context, audioPath, player string, levels []game.Level) (*game.Summary, error) {
	samples, sampleRate, err := audio.LoadTake(ctx, audioPath, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to load take: %w", err)
	}

	session, err := s.NewSession(player, levels)
	if err != nil {
		return nil, err
	}

	frames := audio.Frames(samples, s.config.FrameSize, s.config.HopSize)
	if len(frames) == 0 {
		return nil, ErrTakeTooShort
	}
	hopMs := audio.FrameDurationMs(s.config.HopSize, sampleRate)

	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			session.Abandon()
			return nil, err
		}
		report, err := session.Frame(frame, sampleRate, hopMs)
		if err != nil {
			return nil, err
		}
		if report.Hit != nil {
			s.log.Infof("Hit %s on %s (+%d, total %d)", report.Hit.Target, report.Hit.Level, report.Hit.Points, report.Score)
		}
		if report.Missed {
			s.log.Infof("Missed %s, %d lives left", report.Target, report.Lives)
		}
		if report.GameOver {
			break
		}
	}

	if !session.Over() {
		s.log.Warnf("Take ended before the game did; recording as abandoned")
		session.Abandon()
	}

	sum := session.Summary()
	return &sum, nil
}

// NewSession starts a game with the service's engine tuning. Nil levels use
// the built-in tour.
func (s *voyagerService) NewSession(player string, levels []game.Level) (*game.Session, error) {
	if len(levels) == 0 {
		levels = game.DefaultLevels()
	}
	session, err := game.NewSession(player, levels, s.config.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	s.log.Debugf("Started session for %q with %d levels", player, len(levels))
	return session, nil
}

func (s *voyagerService) SaveSummary(summary game.Summary) (string, error) {
	id, err := s.storage.SaveSession(SessionRecord{Summary: summary})
	if err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	s.log.Infof("Saved session %s for %q (score %d)", id, summary.Player, summary.Score)
	return id, nil
}

func (s *voyagerService) GetSession(sessionID string) (*SessionRecord, error) {
	return s.storage.GetSession(sessionID)
}

func (s *voyagerService) ListSessions(limit int) ([]SessionRecord, error) {
	return s.storage.ListSessions(limit)
}

func (s *voyagerService) HighScores(limit int) ([]SessionRecord, error) {
	return s.storage.HighScores(limit)
}

func (s *voyagerService) CountSessions() (int, error) {
	return s.storage.CountSessions()
}

func (s *voyagerService) DeleteSession(sessionID string) error {
	return s.storage.DeleteSession(sessionID)
}

// Close releases all resources held by the service.
func (s *voyagerService) Close() error {
	return s.storage.Close()
}
