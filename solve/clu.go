package solve

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// solveComplexDense solves a x = b in place by LU factorization with
// partial pivoting. gonum's mat package factors real matrices only,
// so the Laplace-domain systems carry their own elimination. The
// pivot-spread ratio stands in for the condition number: it is not a
// norm estimate and can understate ill-conditioning, but it is cheap
// and catches the rank-deficient assemblies this guard is for.
func solveComplexDense(a [][]complex128, b []complex128, maxCond float64) ([]complex128, error) {
	n := len(a)
	x := append([]complex128(nil), b...)

	var pivMax, pivMin float64
	for k := 0; k < n; k++ {
		// Partial pivot on column k.
		p := k
		best := cmplx.Abs(a[k][k])
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(a[i][k]); v > best {
				best, p = v, i
			}
		}
		if best == 0 {
			return nil, &SingularSystemError{Cond: math.Inf(1), Detail: "zero pivot"}
		}
		if p != k {
			a[p], a[k] = a[k], a[p]
			x[p], x[k] = x[k], x[p]
		}
		if k == 0 || best > pivMax {
			pivMax = best
		}
		if k == 0 || best < pivMin {
			pivMin = best
		}

		piv := a[k][k]
		for i := k + 1; i < n; i++ {
			m := a[i][k] / piv
			if m == 0 {
				continue
			}
			a[i][k] = 0
			cmplxs.AddScaled(a[i][k+1:], -m, a[k][k+1:])
			x[i] -= m * x[k]
		}
	}
	if pivMin == 0 || pivMax/pivMin > maxCond {
		return nil, &SingularSystemError{Cond: pivMax / pivMin}
	}

	// Back substitution.
	for k := n - 1; k >= 0; k-- {
		s := x[k]
		for j := k + 1; j < n; j++ {
			s -= a[k][j] * x[j]
		}
		x[k] = s / a[k][k]
	}
	return x, nil
}
