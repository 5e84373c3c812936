//go:build !js && !wasm

package notevoyager

import (
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db  *storage.DBClient
	log Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string, log Logger) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db, log: log}, nil
}

func (s *storageAdapter) SaveSession(rec SessionRecord) (string, error) {
	row := &storage.Session{
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
		Hits:            make([]storage.Hit, len(rec.Hits)),
	}
	for i, h := range rec.Hits {
		row.Hits[i] = storage.Hit{
			Level:      h.Level,
			Target:     h.Target.String(),
			Position:   h.Position,
			DurationMs: h.DurationMs,
			Points:     h.Points,
			AtMs:       h.AtMs,
		}
	}
	return s.db.SaveSession(row)
}

func (s *storageAdapter) GetSession(sessionID string) (*SessionRecord, error) {
	row, err := s.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	rec := s.toRecord(*row)
	return &rec, nil
}

func (s *storageAdapter) ListSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.ListSessions(limit)
	if err != nil {
		return nil, err
	}
	return s.toRecords(rows), nil
}

func (s *storageAdapter) HighScores(limit int) ([]SessionRecord, error) {
	rows, err := s.db.HighScores(limit)
	if err != nil {
		return nil, err
	}
	return s.toRecords(rows), nil
}

func (s *storageAdapter) CountSessions() (int, error) {
	return s.db.CountSessions()
}

func (s *storageAdapter) DeleteSession(sessionID string) error {
	return s.db.DeleteSession(sessionID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func (s *storageAdapter) toRecords(rows []storage.Session) []SessionRecord {
	out := make([]SessionRecord, len(rows))
	for i, row := range rows {
		out[i] = s.toRecord(row)
	}
	return out
}

func (s *storageAdapter) toRecord(row storage.Session) SessionRecord {
	rec := SessionRecord{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Summary: game.Summary{
			Player:          row.Player,
			StartedAt:       row.StartedAt,
			DurationMs:      row.DurationMs,
			Score:           row.Score,
			Misses:          row.Misses,
			LevelsCompleted: row.LevelsCompleted,
			LivesLeft:       row.LivesLeft,
			Victory:         row.Victory,
			Abandoned:       row.Abandoned,
		},
	}
	for _, h := range row.Hits {
		target, err := note.ParseNote(h.Target)
		if err != nil {
			s.log.Warnf("Session %s has unreadable hit target %q: %v", row.ID, h.Target, err)
			continue
		}
		rec.Hits = append(rec.Hits, game.Hit{
			Level:      h.Level,
			Target:     target,
			Position:   h.Position,
			DurationMs: h.DurationMs,
			Points:     h.Points,
			AtMs:       h.AtMs,
		})
	}
	return rec
}
