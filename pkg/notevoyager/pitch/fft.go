package pitch

import (
	"github.com/mjibson/go-dsp/fft"
)

// autocorrelateFFT returns the same lags as autocorrelate using the
// Wiener-Khinchin relation. The input is zero-padded to at least 2N so the
// circular correlation does not wrap.
func autocorrelateFFT(x []float64) []float64 {
	n := len(x)
	size := nextPow2(2 * n)

	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		re, im := real(c), imag(c)
		spectrum[i] = complex(re*re+im*im, 0)
	}

	inv := fft.IFFT(spectrum)
	r := make([]float64, n)
	for k := 0; k < n; k++ {
		r[k] = real(inv[k])
	}
	return r
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
