package note

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Equal temperament reference.
const (
	ReferenceHz   = 440.0
	ReferenceMIDI = 69
)

var (
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
	ErrInvalidNote      = errors.New("invalid note name")
)

// PitchClass is one of the 12 chromatic pitch classes, C = 0.
type PitchClass int

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (p PitchClass) String() string {
	if p < 0 || int(p) >= len(classNames) {
		return "?"
	}
	return classNames[p]
}

// Note identifies exactly one equal-tempered semitone.
type Note struct {
	Class  PitchClass
	Octave int
}

func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

func (n Note) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Note) UnmarshalText(text []byte) error {
	parsed, err := ParseNote(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MIDI returns the MIDI note number (A4 = 69).
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + int(n.Class)
}

// Frequency returns the exact equal-tempered frequency of n.
func (n Note) Frequency() float64 {
	return ReferenceHz * math.Pow(2, float64(n.MIDI()-ReferenceMIDI)/12)
}

// FromMIDI builds the note for a MIDI number, using floored division so
// negative numbers stay consistent.
func FromMIDI(midi int) Note {
	return Note{
		Class:  PitchClass(floorMod(midi, 12)),
		Octave: floorDiv(midi, 12) - 1,
	}
}

// Reading is a detected frequency expressed as the nearest semitone plus a
// signed deviation in cents, always within (-50, 50].
type Reading struct {
	Note
	Cents     int
	Frequency float64
}

// centsEpsilon absorbs float noise so exact semitones floor to 0 cents, not -1.
const centsEpsilon = 1e-6

// FrequencyToNote maps hz onto the equal-tempered scale.
func FrequencyToNote(hz float64) (Reading, error) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return Reading{}, fmt.Errorf("%w: %v", ErrInvalidFrequency, hz)
	}

	totalCents := int(math.Floor(1200*math.Log2(hz/ReferenceHz) + centsEpsilon))
	semitone := floorDiv(totalCents+49, 100)
	cents := totalCents - semitone*100

	return Reading{
		Note:      FromMIDI(semitone + ReferenceMIDI),
		Cents:     cents,
		Frequency: hz,
	}, nil
}

var flatToSharp = map[string]string{
	"DB": "C#",
	"EB": "D#",
	"GB": "F#",
	"AB": "G#",
	"BB": "A#",
}

// ParseNote parses names like "A4", "C#3", "Bb2" or "F#-1".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}

	split := 1
	if len(s) > 2 && (s[1] == '#' || s[1] == 'b') {
		split = 2
	}
	name := strings.ToUpper(s[:split])
	if alias, ok := flatToSharp[name]; ok {
		name = alias
	}

	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}

	for i, cn := range classNames {
		if cn == name {
			return Note{Class: PitchClass(i), Octave: octave}, nil
		}
	}
	return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
}

// ParseNotes parses a comma separated list, e.g. "C4,E4,G4".
func ParseNotes(list string) ([]Note, error) {
	parts := strings.Split(list, ",")
	out := make([]Note, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		n, err := ParseNote(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
