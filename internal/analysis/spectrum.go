package analysis

import (
	"errors"
	"math/cmplx"
)

var ErrTooShort = errors.New("analysis: need at least two samples")

// Spectrum is the single-sided amplitude spectrum of a uniformly sampled
// trace. Freqs[i] is the frequency in Hz of bin Power[i].
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// NewSpectrum removes the mean of samples, zero-pads them to a power of two
// and transforms them. dt is the sample spacing in seconds.
func NewSpectrum(samples []float64, dt float64) (*Spectrum, error) {
	if len(samples) < 2 {
		return nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, errors.New("analysis: sample spacing must be positive")
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))

	n := NextPow2(len(samples))
	padded := make([]float64, n)
	for i, v := range samples {
		padded[i] = v - mean
	}
	coeffs, err := FFT(padded)
	if err != nil {
		return nil, err
	}

	sp := &Spectrum{
		Freqs: make([]float64, n/2),
		Power: make([]float64, n/2),
	}
	df := 1 / (float64(n) * dt)
	for i := range sp.Power {
		sp.Freqs[i] = float64(i) * df
		sp.Power[i] = cmplx.Abs(coeffs[i])
	}
	return sp, nil
}

// Dominant returns the frequency of the strongest bin above DC. ok is false
// when the trace is flat.
func (s *Spectrum) Dominant() (freq float64, ok bool) {
	best, idx := 0.0, 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > best {
			best, idx = s.Power[i], i
		}
	}
	if idx == 0 {
		return 0, false
	}
	return s.Freqs[idx], true
}

// Band returns the bins up to maxFreq, for plotting.
func (s *Spectrum) Band(maxFreq float64) []float64 {
	for i, f := range s.Freqs {
		if f > maxFreq {
			return s.Power[:i]
		}
	}
	return s.Power
}
