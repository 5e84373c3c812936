package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/hako/durafmt"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
)

// parseInterspersed lets flags follow positional arguments, which the flag
// package alone stops parsing at.
func parseInterspersed(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func customLevel(list string) ([]game.Level, error) {
	targets, err := note.ParseNotes(list)
	if err != nil {
		return nil, err
	}
	return []game.Level{{Name: "Custom", Targets: targets}}, nil
}

// noteRuns collapses consecutive frames on the same note; silence breaks a run.
func noteRuns(frames []notevoyager.FrameAnalysis) []string {
	var runs []string
	var last string
	for _, f := range frames {
		if f.Reading == nil {
			last = ""
			continue
		}
		name := f.Reading.Note.String()
		if name != last {
			runs = append(runs, name)
			last = name
		}
	}
	return runs
}

func formatFrame(f notevoyager.FrameAnalysis) string {
	if f.Reading == nil {
		return fmt.Sprintf("%8.1f ms  --", f.StartMs)
	}
	return fmt.Sprintf("%8.1f ms  %7.2f Hz  %-4s %+3d¢", f.StartMs, f.Frequency, f.Reading.Note, f.Reading.Cents)
}

func formatDuration(ms float64) string {
	return durafmt.Parse(time.Duration(ms * float64(time.Millisecond))).LimitFirstN(2).String()
}

func outcomeLabel(s game.Summary) string {
	switch {
	case s.Victory:
		return "🏁 victory"
	case s.Abandoned:
		return "🚪 abandoned"
	default:
		return "💥 out of lives"
	}
}

func printSummary(s game.Summary) {
	fmt.Printf("\n%s\n", outcomeLabel(s))
	fmt.Printf("   Player:  %s\n", s.Player)
	fmt.Printf("   Score:   %d\n", s.Score)
	fmt.Printf("   Planets: %d\n", s.LevelsCompleted)
	fmt.Printf("   Misses:  %d (lives left: %d)\n", s.Misses, s.LivesLeft)
	fmt.Printf("   Time:    %s\n", formatDuration(s.DurationMs))
	for _, h := range s.Hits {
		fmt.Printf("   ✅ %-8s #%d %-4s %5.0f ms  +%d\n", h.Level, h.Position, h.Target, h.DurationMs, h.Points)
	}
}
