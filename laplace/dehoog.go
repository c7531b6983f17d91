package laplace

import (
	"fmt"
	"math"
	"math/cmplx"
)

// warnRelDiff is the relative disagreement between the full and the
// truncated continued fraction above which an inversion is flagged.
const warnRelDiff = 1e-4

// Invert maps transform values fp, sampled at w.Params, back to the
// time domain at every t in ts. All ts must lie inside (0, TMax].
//
// The returned values are always filled. A non-nil error is either a
// hard argument error (values nil) or an *AccuracyWarning for the
// worst offending time (values usable).
func (w *Window) Invert(fp []complex128, ts []float64) ([]float64, error) {
	np := 2*w.M + 1
	if len(fp) != np {
		return nil, fmt.Errorf("got %d transform values, window needs %d", len(fp), np)
	}
	d, err := qdCoefficients(fp, w.M)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(ts))
	var warn *AccuracyWarning
	for i, t := range ts {
		if t <= 0 || t > w.BigT {
			return nil, fmt.Errorf("time %g outside window (0, %g]", t, w.BigT)
		}
		full, trunc := evalFraction(d, t, w.BigT)
		scale := math.Exp(w.Gamma*t) / w.BigT
		out[i] = scale * full
		if rd := relDiff(full, trunc); rd > warnRelDiff {
			if warn == nil || rd > warn.RelDiff {
				warn = &AccuracyWarning{T: t, RelDiff: rd}
			}
		}
	}
	if warn != nil {
		return out, warn
	}
	return out, nil
}

// qdCoefficients runs the quotient-difference scheme on the Fourier
// coefficients and returns the 2M+1 continued-fraction coefficients.
func qdCoefficients(fp []complex128, m int) ([]complex128, error) {
	np := 2*m + 1
	a := append([]complex128(nil), fp...)
	a[0] /= 2

	e := make([][]complex128, np+1)
	q := make([][]complex128, np+1)
	for i := range e {
		e[i] = make([]complex128, m+1)
		q[i] = make([]complex128, m+1)
	}
	for i := 0; i < np-1; i++ {
		if a[i] == 0 {
			return nil, fmt.Errorf("zero transform coefficient %d breaks the quotient-difference scheme", i)
		}
		q[i][1] = a[i+1] / a[i]
	}
	for r := 1; r <= m; r++ {
		for i := 0; i <= 2*(m-r); i++ {
			e[i][r] = q[i+1][r] - q[i][r] + e[i+1][r-1]
		}
		if r < m {
			for i := 0; i < 2*(m-r); i++ {
				if e[i][r] == 0 {
					return nil, fmt.Errorf("quotient-difference breakdown at column %d", r)
				}
				q[i][r+1] = q[i+1][r] * e[i+1][r] / e[i][r]
			}
		}
	}

	d := make([]complex128, np)
	d[0] = a[0]
	for r := 1; r <= m; r++ {
		d[2*r-1] = -q[0][r]
		d[2*r] = -e[0][r]
	}
	return d, nil
}

// evalFraction evaluates the continued fraction at time t with the
// remainder accelerant, returning the accelerated value and the value
// of the fraction truncated two coefficients short. Their agreement
// measures convergence.
func evalFraction(d []complex128, t, bigT float64) (full, trunc float64) {
	n2 := len(d) - 1 // 2M
	z := cmplx.Exp(complex(0, math.Pi*t/bigT))

	am1, bm1 := complex(0, 0), complex(1, 0)
	a0, b0 := d[0], complex(1, 0)
	var at, bt complex128 // convergent two steps early
	for n := 1; n <= n2; n++ {
		if n == n2-1 {
			at, bt = a0, b0
		}
		an := a0 + d[n]*z*am1
		bn := b0 + d[n]*z*bm1
		am1, bm1, a0, b0 = a0, b0, an, bn
	}

	// Remainder of the infinite fraction, estimated from the last two
	// coefficients.
	h := (1 + z*(d[n2-1]-d[n2])) / 2
	r := -h * (1 - cmplx.Sqrt(1+z*d[n2]/(h*h)))
	af := a0 + r*am1
	bf := b0 + r*bm1

	return real(af / bf), real(at / bt)
}

func relDiff(a, b float64) float64 {
	den := math.Max(math.Abs(a), math.Abs(b))
	if den < 1e-300 {
		return 0
	}
	return math.Abs(a-b) / den
}
