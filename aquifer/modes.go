package aquifer

import (
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Modes is one modal decomposition of the coupling matrix: the
// eigenvalues, the leakage factor per mode, the eigenvector matrix
// and its inverse. Elements combine their per-mode kernel values as
//
//	h[i] = sum_m Vec[i][m] * Inv[m][src] * scale * g_m
//
// where g_m is the log kernel for a zero mode and the K0 kernel with
// Lab[m] otherwise. Modes values are immutable once computed.
type Modes struct {
	Naq  int
	Vals []complex128    // eigenvalues, zero mode first
	Lab  []complex128    // leakage factors 1/sqrt(val); unused for zero modes
	Zero []bool          // true for the confined (Laplace) mode
	Vec  [][]complex128  // [layer][mode] eigenvectors
	Inv  [][]complex128  // [mode][layer] inverse of Vec
}

// zeroTol is the relative threshold below which an eigenvalue is
// treated as the confined zero mode.
const zeroTol = 1e-11

// computeSteadyModes decomposes the steady coupling matrix with
// gonum's real eigensolver.
func (s *System) computeSteadyModes() (*Modes, error) {
	n := s.naq
	diag, sub, sup := s.coupling(0)

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, i, real(diag[i]))
		if i > 0 {
			a.Set(i, i-1, real(sub[i]))
		}
		if i < n-1 {
			a.Set(i, i+1, real(sup[i]))
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, &ConfigurationError{Item: "aquifer system", Reason: "eigendecomposition failed"}
	}
	vals := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	vec := make([][]complex128, n)
	for i := range vec {
		vec[i] = make([]complex128, n)
		for m := 0; m < n; m++ {
			vec[i][m] = vecs.At(i, m)
		}
	}
	return finishModes(n, vals, vec)
}

// computeModesAt decomposes the complex coupling matrix at Laplace
// parameter p using the tridiagonal characteristic polynomial.
func (s *System) computeModesAt(p complex128) (*Modes, error) {
	n := s.naq
	diag, sub, sup := s.coupling(p)

	vals, err := tridiagEigenvalues(diag, sub, sup)
	if err != nil {
		return nil, err
	}
	vec := make([][]complex128, n)
	for i := range vec {
		vec[i] = make([]complex128, n)
	}
	for m, v := range vals {
		col := tridiagEigenvector(diag, sub, sup, v)
		for i := 0; i < n; i++ {
			vec[i][m] = col[i]
		}
	}
	return finishModes(n, vals, vec)
}

// finishModes orders the modes (zero mode first, then ascending
// magnitude), fills in leakage factors and inverts the eigenvector
// matrix.
func finishModes(n int, vals []complex128, vec [][]complex128) (*Modes, error) {
	var maxAbs float64
	for _, v := range vals {
		if a := cmplx.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	isZero := func(v complex128) bool {
		return cmplx.Abs(v) < zeroTol*maxAbs || v == 0
	}
	sort.SliceStable(order, func(a, b int) bool {
		za, zb := isZero(vals[order[a]]), isZero(vals[order[b]])
		if za != zb {
			return za
		}
		return cmplx.Abs(vals[order[a]]) < cmplx.Abs(vals[order[b]])
	})

	md := &Modes{
		Naq:  n,
		Vals: make([]complex128, n),
		Lab:  make([]complex128, n),
		Zero: make([]bool, n),
		Vec:  make([][]complex128, n),
		Inv:  nil,
	}
	for i := range md.Vec {
		md.Vec[i] = make([]complex128, n)
	}
	for m, src := range order {
		v := vals[src]
		md.Vals[m] = v
		md.Zero[m] = isZero(v)
		if !md.Zero[m] {
			md.Lab[m] = labFromVal(v)
		}
		for i := 0; i < n; i++ {
			md.Vec[i][m] = vec[i][src]
		}
	}

	inv, err := invertComplex(md.Vec)
	if err != nil {
		return nil, &ConfigurationError{
			Item:   "aquifer system",
			Reason: fmt.Sprintf("eigenvector matrix not invertible: %v", err),
		}
	}
	md.Inv = inv
	return md, nil
}

// invertComplex inverts a small dense complex matrix by Gauss-Jordan
// elimination with partial pivoting.
func invertComplex(a [][]complex128) ([][]complex128, error) {
	n := len(a)
	work := make([][]complex128, n)
	inv := make([][]complex128, n)
	for i := 0; i < n; i++ {
		work[i] = append([]complex128(nil), a[i]...)
		inv[i] = make([]complex128, n)
		inv[i][i] = 1
	}
	for col := 0; col < n; col++ {
		piv := col
		for r := col + 1; r < n; r++ {
			if cmplx.Abs(work[r][col]) > cmplx.Abs(work[piv][col]) {
				piv = r
			}
		}
		if cmplx.Abs(work[piv][col]) == 0 {
			return nil, fmt.Errorf("singular at column %d", col)
		}
		work[col], work[piv] = work[piv], work[col]
		inv[col], inv[piv] = inv[piv], inv[col]

		d := work[col][col]
		for j := 0; j < n; j++ {
			work[col][j] /= d
			inv[col][j] /= d
		}
		for r := 0; r < n; r++ {
			if r == col || work[r][col] == 0 {
				continue
			}
			f := work[r][col]
			for j := 0; j < n; j++ {
				work[r][j] -= f * work[col][j]
				inv[r][j] -= f * inv[col][j]
			}
		}
	}
	return inv, nil
}
