package analysis

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrShortSeries is returned when a series is too short to analyse.
var ErrShortSeries = errors.New("analysis: series too short for spectral analysis")

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the amplitude spectrum of data with its mean removed,
// Hann-windowed and zero-padded to the next power of two. Bin k corresponds
// to frequency k/(len*dt) where len is the padded length returned.
func PowerSpectrum(data []float64) ([]float64, int) {
	n := nextPow2(len(data))
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}

	padded := make([]float64, n)
	for i, v := range data {
		w := 1.0
		if len(data) > 1 {
			w = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(data)-1))
		}
		padded[i] = (v - mean) * w
	}

	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps, n
}

// DominantPeriod returns the period in seconds of the strongest non-zero
// frequency of a series sampled every dt seconds.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	if len(data) < 8 {
		return 0, ErrShortSeries
	}

	ps, n := PowerSpectrum(data)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, errors.New("analysis: series has no oscillation")
	}

	// parabolic refinement between neighbouring bins
	k := float64(peak)
	if peak > 0 && peak < len(ps)-1 {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if d := a - 2*b + c; d != 0 {
			k += 0.5 * (a - c) / d
		}
	}

	return float64(n) * dt / k, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
