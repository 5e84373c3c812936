//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
)

var (
	port           int
	dbPath         string
	tempDir        string
	configPath     string
	allowedOrigins string
	pitchRPS       float64
	pitchBurst     int
	logRequests    bool
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("NOTEVOYAGER_DB_PATH", "notevoyager.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("NOTEVOYAGER_TEMP_DIR", os.TempDir()), "Temporary directory")
	flag.StringVar(&configPath, "config", os.Getenv("NOTEVOYAGER_CONFIG"), "YAML engine config")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Float64Var(&pitchRPS, "pitch-rps", 60, "Sustained requests per second allowed on /api/pitch")
	flag.IntVar(&pitchBurst, "pitch-burst", 120, "Burst size allowed on /api/pitch")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every HTTP request")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(list string) []string {
	if list == "*" {
		return []string{"*"}
	}
	origins := strings.Split(list, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	engine := notevoyager.DefaultEngineConfig()
	if configPath != "" {
		var err error
		engine, _, err = notevoyager.LoadEngineConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load engine config: %v", err)
		}
	}

	service, err := notevoyager.NewService(
		notevoyager.WithDBPath(dbPath),
		notevoyager.WithTempDir(tempDir),
		notevoyager.WithEngineConfig(engine),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
		PitchRPS:       pitchRPS,
		PitchBurst:     pitchBurst,
		LogRequests:    logRequests,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
