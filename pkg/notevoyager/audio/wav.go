package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidWav = errors.New("not a valid WAV file")
	ErrNoSamples  = errors.New("WAV file has no samples")
)

// ReadWav decodes a PCM WAV file into mono samples normalized to [-1, 1].
// Multi-channel audio is averaged.
func ReadWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWav, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoSamples, path)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))
	// 8-bit PCM is unsigned, centred on 128.
	var offset float64
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) - offset
		}
		out[i] = sum / float64(channels) * scale
	}

	return out, int(dec.SampleRate), nil
}

// WriteWav writes mono samples in [-1, 1] as a 16-bit PCM WAV file.
func WriteWav(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding WAV: %w", err)
	}
	return enc.Close()
}

// Frames splits samples into windows of size, advancing by hop. The tail
// shorter than size is dropped. Windows share the backing array.
func Frames(samples []float64, size, hop int) [][]float64 {
	if size <= 0 || hop <= 0 || len(samples) < size {
		return nil
	}
	frames := make([][]float64, 0, (len(samples)-size)/hop+1)
	for start := 0; start+size <= len(samples); start += hop {
		frames = append(frames, samples[start:start+size:start+size])
	}
	return frames
}

// FrameDurationMs is how much wall time a hop of n samples represents.
func FrameDurationMs(n, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n) * 1000 / float64(sampleRate)
}
