//go:build !js && !wasm

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/audio"
)

func newTestServer(t *testing.T, rps float64, burst int) http.Handler {
	t.Helper()
	dir := t.TempDir()
	svc, err := notevoyager.NewService(
		notevoyager.WithDBPath(filepath.Join(dir, "server.sqlite3")),
		notevoyager.WithTempDir(dir),
		notevoyager.WithLogger(logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	s := NewServer(svc, &ServerConfig{
		DBPath:         "server.sqlite3",
		TempDir:        dir,
		AllowedOrigins: []string{"*"},
		PitchRPS:       rps,
		PitchBurst:     burst,
	})
	return s.setupRoutes()
}

func sine(hz float64, n, rate int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*hz*float64(i)/float64(rate))
	}
	return out
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, 100, 100)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/health/metrics", nil)
	m := decode[MetricsResponse](t, rec)
	if m.Status != "healthy" || m.SustainMs != 700 || m.PitchMethod != "direct" {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestPitchEndpoint(t *testing.T) {
	h := newTestServer(t, 100, 100)

	rec := doJSON(t, h, http.MethodPost, "/api/pitch", PitchRequest{Samples: sine(440, 2048, 44100), SampleRate: 44100})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[PitchResponse](t, rec)
	if !resp.Detected || resp.Reading == nil || resp.Reading.Note != "A4" {
		t.Errorf("Expected A4, got %+v", resp)
	}
	if math.Abs(resp.Frequency-440) > 5 {
		t.Errorf("Expected ~440 Hz, got %.2f", resp.Frequency)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/pitch", PitchRequest{Samples: make([]float64, 2048), SampleRate: 44100})
	if resp := decode[PitchResponse](t, rec); resp.Detected || resp.Reading != nil {
		t.Errorf("Expected no pitch for silence, got %+v", resp)
	}

	bad := []PitchRequest{
		{SampleRate: 44100},
		{Samples: []float64{0.1}, SampleRate: 100},
		{Samples: make([]float64, MaxPitchSamples+1), SampleRate: 44100},
	}
	for _, req := range bad {
		if rec := doJSON(t, h, http.MethodPost, "/api/pitch", req); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %d samples at %d Hz, got %d", len(req.Samples), req.SampleRate, rec.Code)
		}
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/pitch", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestPitchRateLimit(t *testing.T) {
	h := newTestServer(t, 0.001, 2)
	req := PitchRequest{Samples: sine(440, 1024, 44100), SampleRate: 44100}

	for i := 0; i < 2; i++ {
		if rec := doJSON(t, h, http.MethodPost, "/api/pitch", req); rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := doJSON(t, h, http.MethodPost, "/api/pitch", req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the burst is spent, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t, 100, 100)

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := audio.WriteWav(path, sine(329.63, 22050, 44100), 44100); err != nil {
		t.Fatalf("Failed to write take: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "take.wav")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read take: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[AnalyzeResponse](t, rec)
	if resp.Count == 0 || resp.Detected != resp.Count {
		t.Errorf("Expected every frame pitched, got %d/%d", resp.Detected, resp.Count)
	}
	if resp.Frames[0].Reading == nil || resp.Frames[0].Reading.Note != "E4" {
		t.Errorf("Expected E4, got %+v", resp.Frames[0].Reading)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/analyze", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a form, got %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t, 100, 100)

	save := SaveSessionRequest{SessionDTO{
		Player:          "ada",
		DurationMs:      1400,
		Score:           175,
		LevelsCompleted: 1,
		LivesLeft:       3,
		Victory:         true,
		Hits: []HitDTO{
			{Level: "Mercury", Target: "A4", Position: 1, DurationMs: 700, Points: 70, AtMs: 700},
			{Level: "Mercury", Target: "E4", Position: 2, DurationMs: 700, Points: 105, AtMs: 1400},
		},
	}}
	rec := doJSON(t, h, http.MethodPost, "/api/sessions", save)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[SaveSessionResponse](t, rec).ID

	if m := decode[MetricsResponse](t, doJSON(t, h, http.MethodGet, "/api/health/metrics", nil)); m.SessionCount != 1 {
		t.Errorf("Expected 1 session in metrics, got %d", m.SessionCount)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/sessions/"+id, nil)
	got := decode[SessionDTO](t, rec)
	if got.Player != "ada" || got.Score != 175 || len(got.Hits) != 2 || got.Hits[1].Target != "E4" {
		t.Errorf("Unexpected session: %+v", got)
	}

	list := decode[ListSessionsResponse](t, doJSON(t, h, http.MethodGet, "/api/sessions?limit=5", nil))
	if list.Count != 1 {
		t.Errorf("Expected 1 session, got %d", list.Count)
	}

	top := decode[ListSessionsResponse](t, doJSON(t, h, http.MethodGet, "/api/highscores", nil))
	if top.Count != 1 || top.Sessions[0].ID != id {
		t.Errorf("Expected the session in high scores, got %+v", top)
	}

	if rec := doJSON(t, h, http.MethodDelete, "/api/sessions/"+id, nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/api/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", rec.Code)
	}
}

func TestSaveSessionValidation(t *testing.T) {
	h := newTestServer(t, 100, 100)

	bad := []SessionDTO{
		{Score: 10},
		{Player: "x", Score: -1},
		{Player: "x", Victory: true, Abandoned: true},
		{Player: "x", Score: 70, Hits: []HitDTO{{Target: "Q4", Position: 1, Points: 70}}},
		{Player: "x", Score: 99, Hits: []HitDTO{{Target: "A4", Position: 1, Points: 70}}},
		{Player: "x", Score: 999999},
		{Player: "x", LevelsCompleted: -1},
	}
	for i, dto := range bad {
		if rec := doJSON(t, h, http.MethodPost, "/api/sessions", SaveSessionRequest{dto}); rec.Code != http.StatusBadRequest {
			t.Errorf("Case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, 100, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/pitch", nil)
	req.Header.Set("Origin", "https://game.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := corsMiddleware([]string{"https://ok.example"})(next)

	for origin, want := range map[string]string{
		"https://ok.example":  "https://ok.example",
		"https://bad.example": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("Origin %s: expected %q, got %q", origin, want, got)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := getClientIP(req); got != "10.0.0.1" {
		t.Errorf("Expected 10.0.0.1, got %s", got)
	}
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if got := getClientIP(req); got != "1.2.3.4" {
		t.Errorf("Expected 1.2.3.4, got %s", got)
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins("https://a.example, https://b.example")
	if len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", got)
	}
}
