package aquifer

import (
	"fmt"
	"math/cmplx"
)

// Eigenvalues of the complex tridiagonal coupling matrix via the
// characteristic polynomial. gonum's mat package factors real
// matrices only, so the per-Laplace-parameter decomposition builds
// the characteristic polynomial from the leading-principal-minor
// recurrence and finds its roots with the Durand-Kerner iteration.
// Layer counts are small (rarely above twenty), well inside the
// range where the coefficient representation stays conditioned.

// tridiagEigenvalues returns the eigenvalues of the tridiagonal
// matrix with the given diagonals.
func tridiagEigenvalues(diag, sub, sup []complex128) ([]complex128, error) {
	n := len(diag)
	if n == 1 {
		return []complex128{diag[0]}, nil
	}
	coeffs := charPoly(diag, sub, sup)
	roots, err := durandKerner(coeffs)
	if err != nil {
		return nil, &ConfigurationError{
			Item:   "aquifer system",
			Reason: fmt.Sprintf("eigenvalue iteration failed: %v", err),
		}
	}
	return roots, nil
}

// charPoly returns the ascending coefficients of det(A - x I) for a
// tridiagonal A, using det_k = (d_k - x) det_{k-1} - sub_k sup_{k-1} det_{k-2}.
func charPoly(diag, sub, sup []complex128) []complex128 {
	n := len(diag)
	prev2 := []complex128{1}               // det_0
	prev1 := []complex128{diag[0], -1}     // det_1
	for k := 1; k < n; k++ {
		// (d_k - x) * prev1
		cur := make([]complex128, len(prev1)+1)
		for i, c := range prev1 {
			cur[i] += diag[k] * c
			cur[i+1] -= c
		}
		// - sub_k * sup_{k-1} * prev2
		f := sub[k] * sup[k-1]
		for i, c := range prev2 {
			cur[i] -= f * c
		}
		prev2, prev1 = prev1, cur
	}
	return prev1
}

// durandKerner finds all roots of the polynomial with ascending
// coefficients coeffs simultaneously.
func durandKerner(coeffs []complex128) ([]complex128, error) {
	n := len(coeffs) - 1
	lead := coeffs[n]
	monic := make([]complex128, n+1)
	for i := range coeffs {
		monic[i] = coeffs[i] / lead
	}

	// Cauchy bound on the root magnitudes seeds the start circle.
	radius := 0.0
	for i := 0; i < n; i++ {
		if a := cmplx.Abs(monic[i]); a > radius {
			radius = a
		}
	}
	radius++

	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	cur := complex(1, 0)
	for i := range roots {
		cur *= seed
		roots[i] = complex(radius, 0) * cur
	}

	eval := func(x complex128) complex128 {
		v := monic[n]
		for i := n - 1; i >= 0; i-- {
			v = v*x + monic[i]
		}
		return v
	}

	const maxIter = 500
	for iter := 0; iter < maxIter; iter++ {
		var maxStep float64
		for i := range roots {
			num := eval(roots[i])
			den := complex(1, 0)
			for j := range roots {
				if j != i {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				// Perturb coincident iterates.
				roots[i] += complex(1e-8*radius, 1e-8*radius)
				continue
			}
			step := num / den
			roots[i] -= step
			if a := cmplx.Abs(step); a > maxStep {
				maxStep = a
			}
		}
		if maxStep < 1e-14*radius {
			return roots, nil
		}
	}
	return roots, fmt.Errorf("no convergence after %d iterations", 500)
}

// tridiagEigenvector solves (A - val I) v = 0 by forward recurrence
// and normalizes to unit maximum magnitude. The super-diagonal
// entries are nonzero for any valid system (finite positive
// resistances), so the recurrence never divides by zero.
func tridiagEigenvector(diag, sub, sup []complex128, val complex128) []complex128 {
	n := len(diag)
	v := make([]complex128, n)
	v[0] = 1
	if n > 1 {
		v[1] = (val - diag[0]) / sup[0]
	}
	for k := 1; k < n-1; k++ {
		v[k+1] = ((val-diag[k])*v[k] - sub[k]*v[k-1]) / sup[k]
	}
	var maxAbs float64
	for _, x := range v {
		if a := cmplx.Abs(x); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 0 {
		for i := range v {
			v[i] /= complex(maxAbs, 0)
		}
	}
	return v
}
