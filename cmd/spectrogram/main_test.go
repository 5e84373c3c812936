package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/audio"
)

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a4.wav")

	samples := make([]float64, 22050)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/22050)
	}
	if err := audio.WriteWav(in, samples, 22050); err != nil {
		t.Fatalf("Failed to write take: %v", err)
	}

	out, err := renderFile(in, dir, renderOptions{Width: 256, Height: 128})
	if err != nil {
		t.Fatalf("renderFile failed: %v", err)
	}
	if filepath.Base(out) != "a4.png" {
		t.Errorf("Expected a4.png, got %s", out)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("Expected a non-empty PNG at %s", out)
	}
}

func TestRenderFileRejectsInvalidWav(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.wav")
	os.WriteFile(in, []byte("not a wav"), 0o644)

	if _, err := renderFile(in, dir, renderOptions{Width: 64, Height: 32}); err == nil {
		t.Error("Expected error for invalid WAV")
	}
}
