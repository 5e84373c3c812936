//go:build !js && !wasm

package notevoyager

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/audio"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/storage"
)

const testRate = 44100

var (
	a4 = note.Note{Class: note.A, Octave: 4}
	e4 = note.Note{Class: note.E, Octave: 4}
)

func quietLogger() Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func newTestService(t *testing.T, opts ...Option) Service {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{
		WithDBPath(filepath.Join(dir, "test.sqlite3")),
		WithTempDir(dir),
		WithLogger(quietLogger()),
	}, opts...)
	svc, err := NewService(opts...)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// writeTake writes consecutive one-second tones; a zero frequency is silence.
func writeTake(t *testing.T, freqs ...float64) string {
	t.Helper()
	var samples []float64
	for _, hz := range freqs {
		for i := 0; i < testRate; i++ {
			samples = append(samples, 0.8*math.Sin(2*math.Pi*hz*float64(i)/testRate))
		}
	}
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := audio.WriteWav(path, samples, testRate); err != nil {
		t.Fatalf("Failed to write take: %v", err)
	}
	return path
}

func TestAnalyzeFile(t *testing.T) {
	svc := newTestService(t)

	frames, err := svc.AnalyzeFile(context.Background(), writeTake(t, a4.Frequency()))
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if len(frames) != (testRate-2048)/1024+1 {
		t.Fatalf("Unexpected frame count %d", len(frames))
	}
	for _, f := range frames {
		if !f.Detected || f.Reading == nil || f.Reading.Note != a4 {
			t.Fatalf("Frame %d: expected A4, got %+v", f.Index, f)
		}
	}
	if frames[2].StartMs <= frames[1].StartMs {
		t.Error("Expected increasing frame offsets")
	}
}

func TestAnalyzeSilence(t *testing.T) {
	svc := newTestService(t)

	frames, err := svc.AnalyzeSamples(make([]float64, 8192), testRate)
	if err != nil {
		t.Fatalf("AnalyzeSamples failed: %v", err)
	}
	for _, f := range frames {
		if f.Detected || f.Reading != nil {
			t.Errorf("Expected no pitch in silence, got %+v", f)
		}
	}

	if _, err := svc.AnalyzeSamples(make([]float64, 100), testRate); !errors.Is(err, ErrTakeTooShort) {
		t.Errorf("Expected ErrTakeTooShort, got %v", err)
	}
}

func TestPlayFileSaveAndReload(t *testing.T) {
	svc := newTestService(t)
	levels := []game.Level{{Name: "Test", Targets: []note.Note{a4, e4}}}

	sum, err := svc.PlayFile(context.Background(), writeTake(t, a4.Frequency(), e4.Frequency()), "ada", levels)
	if err != nil {
		t.Fatalf("PlayFile failed: %v", err)
	}
	if !sum.Victory || sum.Abandoned || len(sum.Hits) != 2 {
		t.Fatalf("Expected a won game with two hits, got %+v", sum)
	}
	// 31 hops of 1024 samples is the first hold to reach 700 ms.
	if sum.Hits[0].Target != a4 || sum.Hits[0].Points != 72 {
		t.Errorf("Unexpected first hit: %+v", sum.Hits[0])
	}
	if sum.Hits[1].Target != e4 || sum.Score != sum.Hits[0].Points+sum.Hits[1].Points {
		t.Errorf("Unexpected second hit or score: %+v", sum)
	}

	id, err := svc.SaveSummary(*sum)
	if err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}

	rec, err := svc.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if rec.ID != id || rec.Score != sum.Score || len(rec.Hits) != 2 || rec.Hits[1].Target != e4 {
		t.Errorf("Unexpected stored session: %+v", rec)
	}

	top, err := svc.HighScores(5)
	if err != nil || len(top) != 1 || top[0].ID != id {
		t.Errorf("Expected the session in high scores, got %+v (%v)", top, err)
	}

	if err := svc.DeleteSession(id); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(id); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestPlayFileTakeEndsEarly(t *testing.T) {
	svc := newTestService(t)

	sum, err := svc.PlayFile(context.Background(), writeTake(t, 0), "bo", nil)
	if err != nil {
		t.Fatalf("PlayFile failed: %v", err)
	}
	if !sum.Abandoned || sum.Victory || sum.Score != 0 {
		t.Errorf("Expected an abandoned game, got %+v", sum)
	}
}

func TestPlayFileCancelled(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	path := writeTake(t, a4.Frequency())
	cancel()

	if _, err := svc.PlayFile(ctx, path, "cy", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type memStorage struct {
	saved  []SessionRecord
	closed bool
}

func (m *memStorage) SaveSession(rec SessionRecord) (string, error) {
	rec.ID = "mem-1"
	m.saved = append(m.saved, rec)
	return rec.ID, nil
}

func (m *memStorage) GetSession(id string) (*SessionRecord, error) {
	for i := range m.saved {
		if m.saved[i].ID == id {
			return &m.saved[i], nil
		}
	}
	return nil, storage.ErrSessionNotFound
}

func (m *memStorage) ListSessions(limit int) ([]SessionRecord, error) { return m.saved, nil }
func (m *memStorage) HighScores(limit int) ([]SessionRecord, error)   { return m.saved, nil }
func (m *memStorage) CountSessions() (int, error)                     { return len(m.saved), nil }
func (m *memStorage) DeleteSession(id string) error                   { return nil }
func (m *memStorage) Close() error                                    { m.closed = true; return nil }

func TestWithStorage(t *testing.T) {
	mem := &memStorage{}
	svc, err := NewService(WithStorage(mem), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	id, err := svc.SaveSummary(game.Summary{Player: "di", Score: 42})
	if err != nil || id != "mem-1" {
		t.Fatalf("Expected mem-1, got %q (%v)", id, err)
	}
	if len(mem.saved) != 1 || mem.saved[0].Score != 42 {
		t.Errorf("Expected summary in custom storage, got %+v", mem.saved)
	}

	svc.Close()
	if !mem.closed {
		t.Error("Expected Close to reach the custom storage")
	}
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	bad := DefaultEngineConfig()
	bad.Match.SustainMs = 0
	if _, err := NewService(WithStorage(&memStorage{}), WithEngineConfig(bad)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewService(WithStorage(&memStorage{}), WithFrameSize(0, 512)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for frame size, got %v", err)
	}
}

func TestParseEngineConfig(t *testing.T) {
	data := []byte(`
pitch:
  method: fft
match:
  tolerance_cents: 20
lives: 5
levels:
  - name: Pluto
    targets: [C4, "Eb4", G4]
    max_score_per_event: 300
`)
	cfg, levels, err := ParseEngineConfig(data)
	if err != nil {
		t.Fatalf("ParseEngineConfig failed: %v", err)
	}
	if cfg.Pitch.Method != pitch.MethodFFT || cfg.Match.ToleranceCents != 20 || cfg.Lives != 5 {
		t.Errorf("Unexpected overrides: %+v", cfg)
	}
	if cfg.Match.SustainMs != 700 || cfg.Score.MaxPerEvent != 1000 {
		t.Errorf("Expected untouched keys to keep defaults, got %+v", cfg)
	}
	if len(levels) != 1 || levels[0].Name != "Pluto" || len(levels[0].Targets) != 3 {
		t.Fatalf("Unexpected levels: %+v", levels)
	}
	if levels[0].Targets[1] != (note.Note{Class: note.DSharp, Octave: 4}) {
		t.Errorf("Expected Eb4 to parse as D#4, got %s", levels[0].Targets[1])
	}

	if _, _, err := ParseEngineConfig([]byte("match:\n  tolerance_cents: 80\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, _, err := ParseEngineConfig([]byte("pitch:\n  method: cepstrum\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown method, got %v", err)
	}
}

func TestLoadEngineConfigMissingFile(t *testing.T) {
	if _, _, err := LoadEngineConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
