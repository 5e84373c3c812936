package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	configPath string
	sampleRate int
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("NOTEVOYAGER_DB_PATH", "notevoyager.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("NOTEVOYAGER_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	flag.StringVar(&configPath, "config", os.Getenv("NOTEVOYAGER_CONFIG"), "YAML engine config (tuning and levels)")
	flag.IntVar(&sampleRate, "rate", 44100, "Sample rate used when converting non-WAV takes")
	flag.Usage = printUsage
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadEngine returns the engine tuning and levels from --config, or the
// defaults when no file is given.
func loadEngine() (notevoyager.EngineConfig, []game.Level, error) {
	if configPath == "" {
		return notevoyager.DefaultEngineConfig(), nil, nil
	}
	return notevoyager.LoadEngineConfig(configPath)
}

func createService() (notevoyager.Service, []game.Level, error) {
	engine, levels, err := loadEngine()
	if err != nil {
		return nil, nil, err
	}
	svc, err := notevoyager.NewService(
		notevoyager.WithDBPath(dbPath),
		notevoyager.WithTempDir(tempDir),
		notevoyager.WithEngineConfig(engine),
	)
	return svc, levels, err
}

func mustService() (notevoyager.Service, []game.Level) {
	log := logger.GetLogger()
	svc, levels, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc, levels
}

func main() {
	log := logger.GetLogger()

	flag.Parse()
	printBanner()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze(args)
	case "play":
		handlePlay(args)
	case "listen":
		handleListen(args)
	case "history":
		handleHistory(args)
	case "top":
		handleTop(args)
	case "delete":
		handleDelete(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _   _       _     __     __
| \ | | ___ | |_ __\ \   / /__  _   _  __ _  __ _  ___ _ __
|  \| |/ _ \| __/ _ \ \ / / _ \| | | |/ _' |/ _' |/ _ \ '__|
| |\  | (_) | ||  __/\ V / (_) | |_| | (_| | (_| |  __/ |
|_| \_|\___/ \__\___| \_/ \___/ \__, |\__,_|\__, |\___|_|
                                |___/       |___/
              Sing the planets home
`
	fmt.Println(banner)
}

func handleAnalyze(args []string) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	workers := fs.Int("workers", 4, "Files analyzed in parallel")
	verbose := fs.Bool("frames", false, "Print every frame, not just the note runs")
	files := parseInterspersed(fs, args)

	if len(files) == 0 {
		fmt.Println("Usage: notevoyager analyze <audio_file>... [--workers N] [--frames]")
		os.Exit(1)
	}

	svc, _ := mustService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	type outcome struct {
		frames []notevoyager.FrameAnalysis
		err    error
	}
	results := make([]outcome, len(files))

	fmt.Printf("🎙️  Analyzing %d take(s)...\n", len(files))
	swg := sizedwaitgroup.New(max(*workers, 1))
	for i, path := range files {
		swg.Add()
		go func(i int, path string) {
			defer swg.Done()
			frames, err := svc.AnalyzeFile(ctx, path)
			results[i] = outcome{frames: frames, err: err}
		}(i, path)
	}
	swg.Wait()

	failed := 0
	for i, path := range files {
		res := results[i]
		fmt.Printf("\n🎵 %s\n", path)
		if res.err != nil {
			failed++
			fmt.Printf("   ❌ %v\n", res.err)
			log.Errorf("AnalyzeFile %s failed: %v", path, res.err)
			continue
		}

		detected := 0
		for _, f := range res.frames {
			if f.Detected {
				detected++
			}
			if *verbose {
				fmt.Printf("   %s\n", formatFrame(f))
			}
		}
		fmt.Printf("   Frames: %s | Pitched: %s\n",
			humanize.Comma(int64(len(res.frames))), humanize.Comma(int64(detected)))
		runs := noteRuns(res.frames)
		if len(runs) == 0 {
			fmt.Println("   No sung notes found")
			continue
		}
		fmt.Printf("   Notes: %s\n", strings.Join(runs, " → "))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func handlePlay(args []string) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("play", flag.ExitOnError)
	player := fs.String("player", getEnvOrDefault("USER", "player"), "Player name stored with the session")
	notes := fs.String("notes", "", "Comma-separated target notes for a one-level game (e.g. A4,E4)")
	noSave := fs.Bool("no-save", false, "Do not store the session")
	positional := parseInterspersed(fs, args)

	if len(positional) != 1 {
		fmt.Println("Usage: notevoyager play <audio_file> [--player name] [--notes A4,E4] [--no-save]")
		os.Exit(1)
	}

	svc, levels := mustService()
	defer svc.Close()

	if *notes != "" {
		custom, err := customLevel(*notes)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		levels = custom
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Println("🚀 Playing take...")
	sum, err := svc.PlayFile(ctx, positional[0], *player, levels)
	if err != nil {
		fmt.Printf("\n❌ Failed to play take: %v\n", err)
		log.Errorf("PlayFile failed: %v", err)
		os.Exit(1)
	}

	printSummary(*sum)

	if *noSave {
		return
	}
	id, err := svc.SaveSummary(*sum)
	if err != nil {
		fmt.Printf("❌ Failed to save session: %v\n", err)
		log.Errorf("SaveSummary failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("   Session: %s\n", id)
}

func handleHistory(args []string) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of sessions to show (0 for all)")
	fs.Parse(args)

	svc, _ := mustService()
	defer svc.Close()

	sessions, err := svc.ListSessions(*limit)
	if err != nil {
		fmt.Printf("❌ Failed to list sessions: %v\n", err)
		log.Errorf("ListSessions failed: %v", err)
		os.Exit(1)
	}

	if len(sessions) == 0 {
		fmt.Println("\n📭 No sessions recorded yet")
		return
	}

	fmt.Printf("\n📚 %d session(s):\n\n", len(sessions))
	for i, s := range sessions {
		fmt.Printf("%d. %s (%s)\n", i+1, s.Player, s.ID)
		fmt.Printf("   %s | %s | score %s | %s\n",
			humanize.Time(s.StartedAt), formatDuration(s.DurationMs),
			humanize.Comma(int64(s.Score)), outcomeLabel(s.Summary))
	}
	log.Debugf("Listed %d sessions", len(sessions))
}

func handleTop(args []string) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("top", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of high scores to show")
	fs.Parse(args)

	svc, _ := mustService()
	defer svc.Close()

	top, err := svc.HighScores(*limit)
	if err != nil {
		fmt.Printf("❌ Failed to load high scores: %v\n", err)
		log.Errorf("HighScores failed: %v", err)
		os.Exit(1)
	}

	if len(top) == 0 {
		fmt.Println("\n📭 No high scores yet")
		return
	}

	fmt.Println("\n🏆 High scores:")
	fmt.Println()
	for i, s := range top {
		fmt.Printf("%2d. %-16s %8s  %d planet(s)  %s\n",
			i+1, s.Player, humanize.Comma(int64(s.Score)), s.LevelsCompleted, humanize.Time(s.StartedAt))
	}
}

func handleDelete(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: notevoyager delete <session_id>")
		os.Exit(1)
	}
	id := args[0]

	svc, _ := mustService()
	defer svc.Close()

	rec, err := svc.GetSession(id)
	if err != nil {
		fmt.Printf("❌ Session not found (ID: %s)\n", id)
		log.Warnf("Session %s not found: %v", id, err)
		os.Exit(1)
	}

	if err := svc.DeleteSession(id); err != nil {
		fmt.Printf("❌ Failed to delete session: %v\n", err)
		log.Errorf("DeleteSession failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Deleted session:\n")
	fmt.Printf("   ID:     %s\n", rec.ID)
	fmt.Printf("   Player: %s\n", rec.Player)
	fmt.Printf("   Score:  %d\n", rec.Score)
	log.Infof("Deleted session %s (%s, %d points)", rec.ID, rec.Player, rec.Score)
}

func printUsage() {
	fmt.Println("NoteVoyager - pitch-matching ear-training game")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        Path to SQLite database (env: NOTEVOYAGER_DB_PATH, default: notevoyager.sqlite3)")
	fmt.Println("  --temp <dir>       Temporary directory for audio conversion (env: NOTEVOYAGER_TEMP_DIR)")
	fmt.Println("  --config <file>    YAML engine tuning and levels (env: NOTEVOYAGER_CONFIG)")
	fmt.Println("  --rate <hz>        Sample rate for converted takes (default: 44100)")
	fmt.Println("\nUsage:")
	fmt.Println("  notevoyager [global-options] analyze <audio_file>... [--workers N] [--frames]")
	fmt.Println("  notevoyager [global-options] play <audio_file> [--player name] [--notes A4,E4] [--no-save]")
	fmt.Println("  notevoyager [global-options] listen [--seconds N] [--target A4] [--player name]")
	fmt.Println("  notevoyager [global-options] history [--limit N]")
	fmt.Println("  notevoyager [global-options] top [--limit N]")
	fmt.Println("  notevoyager [global-options] delete <session_id>")
	fmt.Println("\nExamples:")
	fmt.Println("  # Show which notes were sung in two takes")
	fmt.Println("  notevoyager analyze take1.wav take2.mp3")
	fmt.Println()
	fmt.Println("  # Replay a recorded take as a game and store the result")
	fmt.Println("  notevoyager play take.wav --player ada")
	fmt.Println()
	fmt.Println("  # Practice a single note on the microphone")
	fmt.Println("  notevoyager listen --target A4 --seconds 20")
}
