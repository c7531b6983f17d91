// Package laplace carries the numerical inverse Laplace transform
// used by the transient solver: the de Hoog, Knight and Stokes
// algorithm on a Fourier series accelerated by a quotient-difference
// continued fraction.
//
// Observation times are partitioned into decade windows. Each window
// owns one set of complex transform parameters; transform values
// sampled at those parameters invert to every time inside the window.
package laplace

import (
	"fmt"
	"math"
	"sort"
)

// Default inversion parameters. 2M+1 transform samples per window.
const (
	DefaultM   = 20
	DefaultTol = 1e-9
)

// AccuracyWarning reports that the continued-fraction inversion did
// not converge to tolerance at a time. The inverted value is still
// returned and usable; the warning flags it for inspection.
type AccuracyWarning struct {
	T       float64
	RelDiff float64
}

func (e *AccuracyWarning) Error() string {
	return fmt.Sprintf("inverse transform at t=%g converged to %.2g only", e.T, e.RelDiff)
}

// Window groups the observation times of one decade with the
// transform parameters that serve them.
type Window struct {
	TMin, TMax float64
	BigT       float64 // scaled period, 2 * TMax
	Gamma      float64 // contour shift
	M          int
	Params     []complex128 // 2M+1 transform parameters
	Times      []float64    // ascending times served by this window
	Index      []int        // position of each time in the caller's slice
}

// Partition buckets times by decade and builds a window per occupied
// decade. m and tol fall back to the defaults when nonpositive. Times
// must be strictly positive.
func Partition(times []float64, m int, tol float64) ([]*Window, error) {
	if m <= 0 {
		m = DefaultM
	}
	if tol <= 0 {
		tol = DefaultTol
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no observation times")
	}

	buckets := map[int][]int{}
	for i, t := range times {
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("observation time %g is not positive and finite", t)
		}
		d := int(math.Floor(math.Log10(t)))
		buckets[d] = append(buckets[d], i)
	}
	decades := make([]int, 0, len(buckets))
	for d := range buckets {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	windows := make([]*Window, 0, len(decades))
	for _, d := range decades {
		idx := buckets[d]
		sort.Slice(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })
		w := &Window{
			TMin:  times[idx[0]],
			TMax:  times[idx[len(idx)-1]],
			M:     m,
			Index: idx,
		}
		for _, i := range idx {
			w.Times = append(w.Times, times[i])
		}
		w.BigT = 2 * w.TMax
		w.Gamma = -math.Log(tol) / (2 * w.BigT)
		w.Params = make([]complex128, 2*m+1)
		for k := range w.Params {
			w.Params[k] = complex(w.Gamma, math.Pi*float64(k)/w.BigT)
		}
		windows = append(windows, w)
	}
	return windows, nil
}
