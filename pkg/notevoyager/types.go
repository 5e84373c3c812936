package notevoyager

import (
	"time"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
)

// FrameAnalysis is the pitch read from one analysis window of a take.
type FrameAnalysis struct {
	Index     int           // window number
	StartMs   float64       // offset of the window in the take
	Frequency float64       // 0 when nothing was detected
	Detected  bool          // false for silence and unpitched frames
	Reading   *note.Reading // nearest note, nil without a pitch
}

// SessionRecord is a stored game summary.
type SessionRecord struct {
	ID string
	game.Summary
	CreatedAt time.Time
}
