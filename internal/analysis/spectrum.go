package analysis

import (
	"errors"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: series too short")

// Spectrum is the one-sided power spectrum of a uniformly resampled series.
// Freq is in cycles per unit time.
type Spectrum struct {
	Freq  []float64
	Power []float64
	Dt    float64
}

// NewSpectrum resamples (times, values) onto a uniform grid with as many
// points as the input, removes the mean and transforms it. Times must be
// non-decreasing; repeated times at window joins are dropped.
func NewSpectrum(times, values []float64) (*Spectrum, error) {
	ts, vs := dedupe(times, values)
	n := len(ts)
	if n < 4 || !(ts[n-1] > ts[0]) {
		return nil, ErrTooShort
	}

	dt := (ts[n-1] - ts[0]) / float64(n-1)
	uniform := make([]float64, n)
	for k := range uniform {
		uniform[k] = interpolate(ts, vs, ts[0]+float64(k)*dt)
	}
	floats.AddConst(-stat.Mean(uniform, nil), uniform)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, uniform)
	sp := &Spectrum{
		Freq:  make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
		Dt:    dt,
	}
	for i, c := range coeff {
		sp.Freq[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		sp.Power[i] = a * a / float64(n)
	}
	return sp, nil
}

// Dominant returns the non-zero frequency with the largest power.
func (s *Spectrum) Dominant() (freq, power float64) {
	if len(s.Power) < 2 {
		return 0, 0
	}
	i := floats.MaxIdx(s.Power[1:]) + 1
	return s.Freq[i], s.Power[i]
}

func dedupe(times, values []float64) ([]float64, []float64) {
	ts := make([]float64, 0, len(times))
	vs := make([]float64, 0, len(values))
	for i, t := range times {
		if len(ts) > 0 && t <= ts[len(ts)-1] {
			continue
		}
		ts = append(ts, t)
		vs = append(vs, values[i])
	}
	return ts, vs
}

// interpolate is linear between the samples bracketing t.
func interpolate(ts, vs []float64, t float64) float64 {
	j := sort.SearchFloat64s(ts, t)
	switch {
	case j <= 0:
		return vs[0]
	case j >= len(ts):
		return vs[len(vs)-1]
	case ts[j] == t:
		return vs[j]
	}
	f := (t - ts[j-1]) / (ts[j] - ts[j-1])
	return vs[j-1] + f*(vs[j]-vs[j-1])
}
