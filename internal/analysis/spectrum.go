package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the one-sided magnitude spectrum of samples taken
// every dt seconds, after removing the mean. freqs are in hertz.
func PowerSpectrum(samples []float64, dt float64) (freqs, power []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := stat.Mean(samples, nil)
	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		power[i] = cmplx.Abs(c)
	}
	return freqs, power
}

// DominantPeriod is the period in seconds of the strongest non-zero
// frequency, or +Inf when the trace has no oscillation.
func DominantPeriod(samples []float64, dt float64) float64 {
	freqs, power := PowerSpectrum(samples, dt)
	best := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[best] || best == 0 {
			best = i
		}
	}
	if best == 0 || power[best] < 1e-12 {
		return math.Inf(1)
	}
	return 1 / freqs[best]
}
