//go:build cgo

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/himanishpuri/NoteVoyager/internal/capture"
	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
)

func handleListen(args []string) {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	seconds := fs.Int("seconds", 60, "Stop after this many seconds")
	target := fs.String("target", "", "Practice these notes instead of the planet tour (e.g. A4 or C4,E4,G4)")
	player := fs.String("player", getEnvOrDefault("USER", "player"), "Player name stored with the session")
	noSave := fs.Bool("no-save", false, "Do not store the session")
	fs.Parse(args)

	svc, levels := mustService()
	defer svc.Close()

	if *target != "" {
		custom, err := customLevel(*target)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		levels = custom
	}

	session, err := svc.NewSession(*player, levels)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	cfg := capture.DefaultConfig()
	mic, err := capture.Open(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to open microphone: %v\n", err)
		log.Errorf("capture.Open failed: %v", err)
		os.Exit(1)
	}
	defer mic.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	deadline := time.After(time.Duration(*seconds) * time.Second)

	printTarget(session)
	hopMs := mic.HopMs()

loop:
	for {
		select {
		case <-quit:
			session.Abandon()
			break loop
		case <-deadline:
			session.Abandon()
			break loop
		case frame := <-mic.Frames():
			report, err := session.Frame(frame, mic.SampleRate(), hopMs)
			if err != nil {
				log.Warnf("Frame rejected: %v", err)
				continue
			}
			if report.Reading != nil {
				fmt.Printf("\r   🎤 %-4s %+3d¢  hold %4.0f ms   ", report.Reading.Note, report.Reading.Cents, report.AccumulatedMs)
			} else {
				fmt.Printf("\r   🎤 --                          ")
			}
			if report.Hit != nil {
				fmt.Printf("\n   ✅ %s +%d (score %d)\n", report.Hit.Target, report.Hit.Points, report.Score)
			}
			if report.Missed {
				fmt.Printf("\n   💥 missed %s, %d lives left\n", report.Target, report.Lives)
			}
			if report.GameOver {
				break loop
			}
			if report.Hit != nil || report.Missed {
				printTarget(session)
			}
		}
	}

	sum := session.Summary()
	printSummary(sum)
	if *noSave {
		return
	}
	id, err := svc.SaveSummary(sum)
	if err != nil {
		fmt.Printf("❌ Failed to save session: %v\n", err)
		log.Errorf("SaveSummary failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("   Session: %s\n", id)
}

func printTarget(s *game.Session) {
	target, level, pos, ok := s.Current()
	if !ok {
		return
	}
	fmt.Printf("\n🪐 %s %d/%d: sing %s (%.1f Hz)\n", level.Name, pos, len(level.Targets), target, target.Frequency())
}
