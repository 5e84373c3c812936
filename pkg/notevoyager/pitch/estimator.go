package pitch

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyBuffer       = errors.New("audio buffer is empty")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Method selects how the autocorrelation is computed. Both produce the same
// estimate; FFT is cheaper for large windows.
type Method int

const (
	MethodDirect Method = iota
	MethodFFT
)

func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodFFT:
		return "fft"
	default:
		return "unknown"
	}
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	switch string(text) {
	case "direct", "":
		*m = MethodDirect
	case "fft":
		*m = MethodFFT
	default:
		return fmt.Errorf("unknown pitch method %q", text)
	}
	return nil
}

// Config holds the estimator thresholds. SilenceRMS and TrimThreshold are
// independent knobs.
type Config struct {
	SilenceRMS    float64 `yaml:"silence_rms"`
	TrimThreshold float64 `yaml:"trim_threshold"`
	Method        Method  `yaml:"method"`
}

func DefaultConfig() Config {
	return Config{
		SilenceRMS:    0.01,
		TrimThreshold: 0.02,
		Method:        MethodDirect,
	}
}

// Estimate is either a detected fundamental frequency or no pitch.
type Estimate struct {
	Frequency float64
	Detected  bool
}

// NoPitch means the frame carried no usable signal.
var NoPitch = Estimate{}

func detected(hz float64) Estimate {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return NoPitch
	}
	return Estimate{Frequency: hz, Detected: true}
}

// RMS returns the root-mean-square amplitude of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// EstimatePitch finds the fundamental frequency of one analysis window by
// autocorrelation. The buffer is only read.
func EstimatePitch(samples []float64, sampleRate int, cfg Config) (Estimate, error) {
	if len(samples) == 0 {
		return NoPitch, ErrEmptyBuffer
	}
	if sampleRate <= 0 {
		return NoPitch, ErrInvalidSampleRate
	}

	if RMS(samples) < cfg.SilenceRMS {
		return NoPitch, nil
	}

	trimmed := trim(samples, cfg.TrimThreshold)
	if len(trimmed) < 2 {
		return NoPitch, nil
	}

	var r []float64
	if cfg.Method == MethodFFT {
		r = autocorrelateFFT(trimmed)
	} else {
		r = autocorrelate(trimmed)
	}

	lag, ok := peakLag(r)
	if !ok {
		return NoPitch, nil
	}

	return detected(float64(sampleRate) / refine(r, lag)), nil
}

// trim drops leading and trailing samples quieter than threshold.
func trim(samples []float64, threshold float64) []float64 {
	start, end := 0, len(samples)
	for start < end && math.Abs(samples[start]) < threshold {
		start++
	}
	for end > start && math.Abs(samples[end-1]) < threshold {
		end--
	}
	return samples[start:end]
}

// autocorrelate computes r[k] = sum x[j]*x[j+k] for every lag in [0, N).
func autocorrelate(x []float64) []float64 {
	n := len(x)
	r := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for j := 0; j < n-k; j++ {
			sum += x[j] * x[j+k]
		}
		r[k] = sum
	}
	return r
}

// peakLag skips the descending slope after lag 0 and returns the lag of the
// largest value beyond it. A maximum on either boundary cannot be refined.
func peakLag(r []float64) (int, bool) {
	n := len(r)
	d := 0
	for d < n-1 && r[d] > r[d+1] {
		d++
	}

	best := d
	for k := d; k < n; k++ {
		if r[k] > r[best] {
			best = k
		}
	}

	if best <= 0 || best >= n-1 {
		return 0, false
	}
	return best, true
}

// refine shifts lag to the vertex of the parabola through its neighbours.
func refine(r []float64, lag int) float64 {
	x1, x2, x3 := r[lag-1], r[lag], r[lag+1]
	a := (x1 + x3 - 2*x2) / 2
	b := (x3 - x1) / 2
	if a == 0 {
		return float64(lag)
	}
	return float64(lag) - b/(2*a)
}
