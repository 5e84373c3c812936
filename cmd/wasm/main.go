//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/NoteVoyager/internal/jsbridge"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/game"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/note"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/pitch"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorUnknownGame
	ErrorGameOver
)

var (
	games  = jsbridge.NewRegistry()
	engine = game.DefaultConfig()
)

// estimatePitch(samples, sampleRate[, channels])
// Returns: {error: number, data: {detected, frequency, reading} | string}
func estimatePitch(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 2 arguments: samples, sampleRate")
	}
	samples, sampleRate, errResp := readFrame(args[0], args[1], args[2:])
	if errResp != nil {
		return errResp
	}

	est, err := pitch.EstimatePitch(samples, sampleRate, engine.Pitch)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	return makeResponse(jsbridge.Estimate(est))
}

// frequencyToNote(hz)
func frequencyToNote(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "frequency must be a number")
	}
	r, err := note.FrequencyToNote(args[0].Float())
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	return makeResponse(jsbridge.Reading(&r))
}

// newGame(player[, levelsJSON]) returns a game handle.
func newGame(this js.Value, args []js.Value) any {
	player := "player"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		player = args[0].String()
	}
	levelsText := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		levelsText = args[1].String()
	}

	levels, err := jsbridge.ParseLevels(levelsText)
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	session, err := game.NewSession(player, levels, engine)
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	target, level, pos, _ := session.Current()
	return makeResponse(map[string]any{
		"id":       games.Add(session),
		"target":   target.String(),
		"level":    level.Name,
		"position": pos,
		"lives":    engine.Lives,
	})
}

// gameFrame(id, samples, sampleRate, elapsedMs[, channels])
func gameFrame(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 4 arguments: id, samples, sampleRate, elapsedMs")
	}
	session, errResp := lookupGame(args[0])
	if errResp != nil {
		return errResp
	}
	if args[3].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "elapsedMs must be a number")
	}
	samples, sampleRate, errResp := readFrame(args[1], args[2], args[4:])
	if errResp != nil {
		return errResp
	}

	if session.Over() {
		return makeErrorResponse(ErrorGameOver, game.ErrSessionOver.Error())
	}
	report, err := session.Frame(samples, sampleRate, args[3].Float())
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}

	data := jsbridge.Report(report)
	if report.GameOver {
		data["summary"] = jsbridge.Summary(session.Summary())
	} else if target, level, pos, ok := session.Current(); ok {
		data["next"] = map[string]any{"target": target.String(), "level": level.Name, "position": pos}
	}
	return makeResponse(data)
}

// abandonGame(id) ends the game and releases its handle.
func abandonGame(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "id must be a number")
	}
	session, err := games.Remove(args[0].Int())
	if err != nil {
		return makeErrorResponse(ErrorUnknownGame, err.Error())
	}
	session.Abandon()
	return makeResponse(jsbridge.Summary(session.Summary()))
}

// gameSummary(id) reports the game so far without ending it.
func gameSummary(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: id")
	}
	session, errResp := lookupGame(args[0])
	if errResp != nil {
		return errResp
	}
	return makeResponse(jsbridge.Summary(session.Summary()))
}

func lookupGame(idJS js.Value) (*game.Session, any) {
	if idJS.Type() != js.TypeNumber {
		return nil, makeErrorResponse(ErrorInvalidArgs, "id must be a number")
	}
	session, err := games.Get(idJS.Int())
	if err != nil {
		return nil, makeErrorResponse(ErrorUnknownGame, err.Error())
	}
	return session, nil
}

// readFrame copies a JS Array or typed array into Go, folding stereo input
// down to mono.
func readFrame(samplesJS, rateJS js.Value, rest []js.Value) ([]float64, int, any) {
	if samplesJS.Type() != js.TypeObject {
		return nil, 0, makeErrorResponse(ErrorInvalidArgs, "samples must be an Array or Float32Array")
	}
	if rateJS.Type() != js.TypeNumber || rateJS.Int() <= 0 {
		return nil, 0, makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a positive number")
	}
	channels := 1
	if len(rest) > 0 && rest[0].Type() == js.TypeNumber {
		channels = rest[0].Int()
	}
	if channels < 1 || channels > 2 {
		return nil, 0, makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := samplesJS.Length()
	if length == 0 {
		return nil, 0, makeErrorResponse(ErrorInvalidArgs, "samples is empty")
	}
	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		v := samplesJS.Index(i)
		if v.Type() != js.TypeNumber {
			return nil, 0, makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("samples element %d is not a number", i))
		}
		samples[i] = v.Float()
	}
	if channels == 2 {
		samples = jsbridge.StereoToMono(samples)
	}
	return samples, rateJS.Int(), nil
}

func makeResponse(data any) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", js.ValueOf(data))
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(format string, args ...any) {
		if !console.IsUndefined() {
			console.Call("log", fmt.Sprintf(format, args...))
		}
	}
	logf("🔧 NoteVoyager WASM module initializing...")

	done := make(chan struct{})

	exports := map[string]func(js.Value, []js.Value) any{
		"estimatePitch":   estimatePitch,
		"frequencyToNote": frequencyToNote,
		"newGame":         newGame,
		"gameFrame":       gameFrame,
		"abandonGame":     abandonGame,
		"gameSummary":     gameSummary,
	}
	for name, fn := range exports {
		js.Global().Set(name, js.FuncOf(fn))
		logf("📝 %s registered", name)
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("notevoyagerReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
		logf("✅ notevoyagerReady event dispatched")
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	<-done
}
