package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/NoteVoyager/pkg/logger"
	"github.com/himanishpuri/NoteVoyager/pkg/notevoyager/audio"
	"github.com/himanishpuri/NoteVoyager/pkg/utils"
)

type renderOptions struct {
	Width  int
	Height int
	Log10  bool
}

func main() {
	log := logger.GetLogger()

	outputDir := flag.String("out", "spectrograms", "Directory for PNG output")
	width := flag.Int("width", 2048, "Image width in pixels")
	height := flag.Int("height", 512, "Frequency bins (image height)")
	logScale := flag.Bool("log", false, "Log10 magnitude scale")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: spectrogram [--out dir] [--width N] [--height N] [--log] <take.wav|dir>...")
		os.Exit(1)
	}

	if err := utils.MakeDir(*outputDir); err != nil {
		log.Fatalf("Creating output dir: %v", err)
	}

	opts := renderOptions{Width: *width, Height: *height, Log10: *logScale}
	failed := 0
	for _, input := range flag.Args() {
		err := filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !audio.IsWav(path) {
				return nil
			}

			out, err := renderFile(path, *outputDir, opts)
			if err != nil {
				failed++
				log.Errorf("%s: %v", path, err)
				return nil
			}
			fmt.Printf("Saved spectrogram to %s\n", out)
			return nil
		})
		if err != nil {
			log.Errorf("Walking %s: %v", input, err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// renderFile draws the spectrogram of one WAV take and returns the PNG path.
func renderFile(path, outputDir string, opts renderOptions) (string, error) {
	samples, sampleRate, err := audio.ReadWav(path)
	if err != nil {
		return "", err
	}
	logger.GetLogger().Debugf("Read %d samples at %d Hz from %s", len(samples), sampleRate, path)

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(opts.Height),
		false,
		false,
		true,
		opts.Log10,
	)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputPath := filepath.Join(outputDir, base+".png")
	if err := spectrogram.SavePng(img, outputPath); err != nil {
		return "", fmt.Errorf("saving PNG: %w", err)
	}
	return outputPath, nil
}
