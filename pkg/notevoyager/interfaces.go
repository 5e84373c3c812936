package notevoyager

import (
	"context"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
)

type Service interface {
	AnalyzeFile(ctx context.Context, audioPath string) ([]FrameAnalysis, error)
	AnalyzeSamples(samples []float64, sampleRate int) ([]FrameAnalysis, error)
	PlayFile(ctx context.Context, audioPath, player string, levels []game.Level) (*game.Summary, error)
	NewSession(player string, levels []game.Level) (*game.Session, error)
	SaveSummary(summary game.Summary) (string, error)
	GetSession(sessionID string) (*SessionRecord, error)
	ListSessions(limit int) ([]SessionRecord, error)
	HighScores(limit int) ([]SessionRecord, error)
	CountSessions() (int, error)
	DeleteSession(sessionID string) error
	EngineConfig() EngineConfig
	Close() error
}

type Storage interface {
	SaveSession(rec SessionRecord) (string, error)
	GetSession(sessionID string) (*SessionRecord, error)
	ListSessions(limit int) ([]SessionRecord, error)
	HighScores(limit int) ([]SessionRecord, error)
	CountSessions() (int, error)
	DeleteSession(sessionID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
