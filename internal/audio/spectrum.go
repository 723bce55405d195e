package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Bands is the spectral energy of a buffer split at roughly 200 Hz and
// 2 kHz, each normalized to [0, 1] against the loudest band.
type Bands struct {
	Bass, Mid, High float64
}

// Analyze windows samples with a Hann window and buckets the magnitude
// spectrum into three bands.
func Analyze(samples []float64, sampleRate int) Bands {
	n := len(samples)
	if n < 2 {
		return Bands{}
	}
	buf := make([]complex128, n)
	for i, v := range samples {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = complex(v*window, 0)
	}
	spectrum := fft.FFT(buf)

	binHz := float64(sampleRate) / float64(n)
	var bass, mid, high float64
	for i := 1; i < n/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		f := float64(i) * binHz
		switch {
		case f < 200:
			bass += mag
		case f < 2000:
			mid += mag
		default:
			high += mag
		}
	}

	peak := math.Max(bass, math.Max(mid, high))
	if peak == 0 {
		return Bands{}
	}
	return Bands{Bass: bass / peak, Mid: mid / peak, High: high / peak}
}

// Dominant returns the frequency of the strongest bin above DC.
func Dominant(samples []float64, sampleRate int) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	spectrum := fft.FFTReal(samples)
	best, bestMag := 0, 0.0
	for i := 1; i < n/2; i++ {
		if mag := cmplx.Abs(spectrum[i]); mag > bestMag {
			best, bestMag = i, mag
		}
	}
	return float64(best) * float64(sampleRate) / float64(n)
}
