// Package alignment registers measured 1D dose profiles against
// reference profiles. Film strips are rarely digitized at exactly the
// same offset as the plan they are compared to, so profile pairs are
// aligned by cross-correlation before any point-wise comparison.
package alignment

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Result describes how a measured profile maps onto a reference
// profile.
type Result struct {
	// Lag is the integer sample offset of the correlation peak.
	// Positive values mean the measured profile is shifted toward
	// higher indices relative to the reference.
	Lag int

	// Shift is the sub-sample refinement of Lag obtained by fitting a
	// parabola through the correlation peak and its neighbors.
	Shift float64

	// Peak is the normalized cross-correlation at the peak, in
	// [-1, 1]. Values near 1 indicate a clean match.
	Peak float64
}

// AlignProfiles estimates the shift of measured relative to reference
// by frequency-domain cross-correlation. Both profiles are demeaned
// and zero-padded to a power of two at least twice the longer length,
// so the circular correlation behaves linearly over the lags of
// interest.
func AlignProfiles(reference, measured []float64) (Result, error) {
	if len(reference) < 2 {
		return Result{}, fmt.Errorf("reference profile too short: %d samples", len(reference))
	}
	if len(measured) < 2 {
		return Result{}, fmt.Errorf("measured profile too short: %d samples", len(measured))
	}

	longest := len(reference)
	if len(measured) > longest {
		longest = len(measured)
	}
	n := nextPowerOfTwo(2 * longest)

	ref := padDemeaned(reference, n)
	mea := padDemeaned(measured, n)

	fft := fourier.NewFFT(n)
	refCoeff := fft.Coefficients(nil, ref)
	meaCoeff := fft.Coefficients(nil, mea)

	// The inverse transform of conj(R)*M is the circular correlation
	// sum_t ref[t]*mea[t+lag], peaking at the sought shift.
	cross := make([]complex128, len(refCoeff))
	for i := range cross {
		cross[i] = cmplx.Conj(refCoeff[i]) * meaCoeff[i]
	}
	corr := fft.Sequence(nil, cross)

	peakIdx := floats.MaxIdx(corr)
	lag := peakIdx
	if lag > n/2 {
		lag -= n
	}

	// Parabolic interpolation through the peak and its circular
	// neighbors refines the shift below one sample.
	prev := corr[(peakIdx-1+n)%n]
	next := corr[(peakIdx+1)%n]
	delta := 0.0
	if denom := prev - 2*corr[peakIdx] + next; denom != 0 {
		delta = 0.5 * (prev - next) / denom
	}
	if delta > 0.5 {
		delta = 0.5
	} else if delta < -0.5 {
		delta = -0.5
	}

	result := Result{
		Lag:   lag,
		Shift: float64(lag) + delta,
	}

	// gonum's Sequence is unnormalized, so the raw correlation is n
	// times the true value.
	if norm := floats.Norm(ref, 2) * floats.Norm(mea, 2); norm > 0 {
		result.Peak = corr[peakIdx] / (float64(n) * norm)
	}

	return result, nil
}

// Shift resamples a profile at a fractional offset by linear
// interpolation. Positive delta moves the profile content toward
// higher indices; samples beyond the original support clamp to the
// nearest edge value. AlignProfiles(p, Shift(p, d)) recovers d.
func Shift(profile []float64, delta float64) []float64 {
	out := make([]float64, len(profile))
	if len(profile) == 0 {
		return out
	}

	for i := range out {
		pos := float64(i) - delta
		if pos <= 0 {
			out[i] = profile[0]
			continue
		}
		if pos >= float64(len(profile)-1) {
			out[i] = profile[len(profile)-1]
			continue
		}

		lo := int(pos)
		frac := pos - float64(lo)
		out[i] = profile[lo]*(1-frac) + profile[lo+1]*frac
	}
	return out
}

// padDemeaned copies a profile into a length-n buffer with its mean
// removed, leaving the tail at zero.
func padDemeaned(profile []float64, n int) []float64 {
	out := make([]float64, n)
	mean := stat.Mean(profile, nil)
	for i, v := range profile {
		out[i] = v - mean
	}
	return out
}

// nextPowerOfTwo returns the smallest power of two that is at least n.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
