package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/storage"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service notevoyager.Service
	config  *ServerConfig
	log     notevoyager.Logger
	limiter *rate.Limiter
	started time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
	PitchRPS       float64
	PitchBurst     int
	LogRequests    bool
}

// NewServer creates a new server instance
func NewServer(service notevoyager.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().Named("server"),
		limiter: rate.NewLimiter(rate.Limit(config.PitchRPS), config.PitchBurst),
		started: time.Now(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func queryLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "NoteVoyager API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"pitch":         "POST /api/pitch",
			"analyze":       "POST /api/analyze",
			"sessions":      "GET /api/sessions",
			"saveSession":   "POST /api/sessions",
			"getSession":    "GET /api/sessions/{id}",
			"deleteSession": "DELETE /api/sessions/{id}",
			"highScores":    "GET /api/highscores",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.CountSessions()
	if err != nil {
		s.log.Errorf("Failed to count sessions: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	engine := s.service.EngineConfig()
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:         "healthy",
		DatabasePath:   s.config.DBPath,
		SessionCount:   count,
		UptimeSeconds:  time.Since(s.started).Seconds(),
		PitchRateLimit: s.config.PitchRPS,
		SustainMs:      engine.Match.SustainMs,
		ToleranceCents: engine.Match.ToleranceCents,
		PitchMethod:    engine.Pitch.Method.String(),
	})
}

// handlePitch handles POST /api/pitch: one frame in, one reading out
func (s *Server) handlePitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		s.respondError(w, http.StatusTooManyRequests, "Pitch requests are rate limited")
		return
	}

	var req PitchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	est, err := pitch.EstimatePitch(req.Samples, req.SampleRate, s.service.EngineConfig().Pitch)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := PitchResponse{Detected: est.Detected, Frequency: est.Frequency}
	if est.Detected {
		reading, err := note.FrequencyToNote(est.Frequency)
		if err != nil {
			s.log.Errorf("Failed to map %.2f Hz: %v", est.Frequency, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to map frequency")
			return
		}
		resp.Reading = toReadingDTO(&reading)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleAnalyze handles POST /api/analyze (multipart file upload)
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// Parse multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("take_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Analyzing uploaded take: %s", header.Filename)
	frames, err := s.service.AnalyzeFile(ctx, tempFile)
	if err != nil {
		if errors.Is(err, notevoyager.ErrTakeTooShort) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Errorf("Failed to analyze take: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to analyze take: %v", err))
		return
	}

	resp := AnalyzeResponse{Frames: make([]FrameDTO, len(frames)), Count: len(frames)}
	for i, f := range frames {
		resp.Frames[i] = FrameDTO{
			Index:     f.Index,
			StartMs:   f.StartMs,
			Detected:  f.Detected,
			Frequency: f.Frequency,
			Reading:   toReadingDTO(f.Reading),
		}
		if f.Detected {
			resp.Detected++
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListSessions handles GET /api/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(queryLimit(r, 50))
	if err != nil {
		s.log.Errorf("Failed to list sessions: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}
	s.respondJSON(w, http.StatusOK, toListResponse(sessions))
}

// handleSaveSession handles POST /api/sessions
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sum, err := req.Summary()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.service.SaveSummary(sum)
	if err != nil {
		s.log.Errorf("Failed to save session: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	s.respondJSON(w, http.StatusCreated, SaveSessionResponse{
		Message: "Session saved successfully",
		ID:      id,
	})
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.service.GetSession(id)
	if err != nil {
		s.respondLookupError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSessionDTO(*rec))
}

// handleDeleteSession handles DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.DeleteSession(id); err != nil {
		s.respondLookupError(w, id, err)
		return
	}

	s.log.Infof("Deleted session %s", id)
	s.respondJSON(w, http.StatusOK, DeleteSessionResponse{
		Message: "Session deleted successfully",
		ID:      id,
	})
}

func (s *Server) respondLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Session with ID %s not found", id))
		return
	}
	s.log.Errorf("Session %s lookup failed: %v", id, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to access session")
}

// handleHighScores handles GET /api/highscores
func (s *Server) handleHighScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	top, err := s.service.HighScores(queryLimit(r, 10))
	if err != nil {
		s.log.Errorf("Failed to load high scores: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve high scores")
		return
	}
	s.respondJSON(w, http.StatusOK, toListResponse(top))
}

func toListResponse(recs []notevoyager.SessionRecord) ListSessionsResponse {
	dtos := make([]SessionDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toSessionDTO(rec)
	}
	return ListSessionsResponse{Sessions: dtos, Count: len(dtos)}
}

// handleSessions routes requests to /api/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSessions(w, r)
	case http.MethodPost:
		s.handleSaveSession(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSession routes requests to /api/sessions/{id}
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Session ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSession(w, r, id)
	case http.MethodDelete:
		s.handleDeleteSession(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
