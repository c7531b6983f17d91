// Package solve assembles and factors the boundary-condition linear
// systems. It depends only on the element capability interface: each
// element contributes exactly as many equation rows as it has
// strength unknowns, and the assembler guarantees the system is
// square or fails identifying the offending element.
//
// Row and column ordering follow element insertion order, which makes
// assembled matrices reproducible across solves.
package solve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
)

// DefaultMaxCond is the condition-number threshold above which an
// assembled system is treated as singular.
const DefaultMaxCond = 1e12

// SingularSystemError reports a system that is numerically singular,
// which signals a misconfigured model (for example conflicting
// boundary conditions), not a transient numerical fluke. It is never
// retried. Cond is the LU condition number on the real path; the
// complex path reports the pivot-spread ratio, a cheaper heuristic
// that overreports well-conditioned systems as healthy but still
// catches rank deficiency.
type SingularSystemError struct {
	Cond   float64
	Detail string
}

func (e *SingularSystemError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("singular system: %s (condition estimate %.3g)", e.Detail, e.Cond)
	}
	return fmt.Sprintf("singular system: condition estimate %.3g exceeds limit", e.Cond)
}

// System owns the stable row/column bookkeeping for one element
// list.
type System struct {
	elements []element.Element
	lo, hi   []int
	n        int
}

// NewSystem assigns global columns to every element's unknowns in
// insertion order.
func NewSystem(elements []element.Element) *System {
	s := &System{
		elements: elements,
		lo:       make([]int, len(elements)),
		hi:       make([]int, len(elements)),
	}
	col := 0
	for i, e := range elements {
		s.lo[i] = col
		col += e.NUnknowns()
		s.hi[i] = col
	}
	s.n = col
	return s
}

// NUnknowns returns the total number of strength unknowns.
func (s *System) NUnknowns() int { return s.n }

// Columns returns the half-open column range of e's unknowns.
func (s *System) Columns(e element.Element) (lo, hi int) {
	for i, el := range s.elements {
		if el == e {
			return s.lo[i], s.hi[i]
		}
	}
	return 0, 0
}

// steadyProbe exposes the superposed steady influence of the whole
// system to an element building its equations.
type steadyProbe struct{ s *System }

func (p steadyProbe) HeadInf(x, y float64, layer int) []float64 {
	out := make([]float64, p.s.n)
	for i, e := range p.s.elements {
		if e.NUnknowns() == 0 {
			continue
		}
		inf := e.Influence(x, y)
		for u := range inf {
			out[p.s.lo[i]+u] = inf[u][layer]
		}
	}
	return out
}

func (p steadyProbe) HeadFixed(x, y float64, layer int) float64 {
	var sum float64
	for _, e := range p.s.elements {
		sum += e.FixedHead(x, y)[layer]
	}
	return sum
}

func (p steadyProbe) DischargeInf(x, y float64, layer int) (qx, qy []float64) {
	qx = make([]float64, p.s.n)
	qy = make([]float64, p.s.n)
	for i, e := range p.s.elements {
		if e.NUnknowns() == 0 {
			continue
		}
		ix, iy := e.DischargeInfluence(x, y)
		for u := range ix {
			qx[p.s.lo[i]+u] = ix[u][layer]
			qy[p.s.lo[i]+u] = iy[u][layer]
		}
	}
	return qx, qy
}

func (p steadyProbe) DischargeFixed(x, y float64, layer int) (qx, qy float64) {
	for _, e := range p.s.elements {
		fx, fy := e.FixedDischarge(x, y)
		qx += fx[layer]
		qy += fy[layer]
	}
	return qx, qy
}

func (p steadyProbe) Columns(e element.Element) (lo, hi int) { return p.s.Columns(e) }

// SolveSteady assembles the steady system, solves it by LU
// factorization and stores the solved strengths in the elements. The
// returned vector is the full solution column, kept by the caller for
// idempotence checks.
func (s *System) SolveSteady(maxCond float64) ([]float64, error) {
	if maxCond <= 0 {
		maxCond = DefaultMaxCond
	}
	pr := steadyProbe{s}
	rows := make([]element.Row, 0, s.n)
	for _, e := range s.elements {
		er := e.Equations(pr)
		if len(er) != e.NUnknowns() {
			return nil, &aquifer.ConfigurationError{
				Item: e.Label(),
				Reason: fmt.Sprintf("element contributes %d equations for %d unknowns",
					len(er), e.NUnknowns()),
			}
		}
		rows = append(rows, er...)
	}
	if s.n == 0 {
		return nil, nil
	}

	a := mat.NewDense(s.n, s.n, nil)
	b := mat.NewVecDense(s.n, nil)
	for r, row := range rows {
		if len(row.Coef) != s.n {
			return nil, &aquifer.ConfigurationError{
				Item:   "assembly",
				Reason: fmt.Sprintf("row %d has %d coefficients for %d unknowns", r, len(row.Coef), s.n),
			}
		}
		for c, v := range row.Coef {
			a.Set(r, c, v)
		}
		b.SetVec(r, row.RHS)
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); cond > maxCond {
		return nil, &SingularSystemError{Cond: cond}
	}
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return nil, &SingularSystemError{Cond: lu.Cond(), Detail: err.Error()}
	}

	sol := make([]float64, s.n)
	for i := range sol {
		sol[i] = x.AtVec(i)
	}
	for i, e := range s.elements {
		if e.NUnknowns() > 0 {
			e.SetStrengths(sol[s.lo[i]:s.hi[i]])
		}
	}
	return sol, nil
}

// laplaceProbe is the complex probe for one Laplace parameter.
type laplaceProbe struct {
	s *System
	p complex128
}

func (pr laplaceProbe) transient(e element.Element) (element.TransientElement, bool) {
	te, ok := e.(element.TransientElement)
	return te, ok
}

func (pr laplaceProbe) HeadInf(x, y float64, layer int) []complex128 {
	out := make([]complex128, pr.s.n)
	for i, e := range pr.s.elements {
		te, ok := pr.transient(e)
		if !ok || e.NUnknowns() == 0 {
			continue
		}
		inf := te.LaplaceInfluence(pr.p, x, y)
		for u := range inf {
			out[pr.s.lo[i]+u] = inf[u][layer]
		}
	}
	return out
}

func (pr laplaceProbe) HeadFixed(x, y float64, layer int) complex128 {
	var sum complex128
	for _, e := range pr.s.elements {
		if te, ok := pr.transient(e); ok {
			sum += te.LaplaceFixedHead(pr.p, x, y)[layer]
		}
	}
	return sum
}

func (pr laplaceProbe) DischargeInf(x, y float64, layer int) (qx, qy []complex128) {
	qx = make([]complex128, pr.s.n)
	qy = make([]complex128, pr.s.n)
	for i, e := range pr.s.elements {
		te, ok := pr.transient(e)
		if !ok || e.NUnknowns() == 0 {
			continue
		}
		ix, iy := te.LaplaceDischargeInfluence(pr.p, x, y)
		for u := range ix {
			qx[pr.s.lo[i]+u] = ix[u][layer]
			qy[pr.s.lo[i]+u] = iy[u][layer]
		}
	}
	return qx, qy
}

func (pr laplaceProbe) DischargeFixed(x, y float64, layer int) (qx, qy complex128) {
	for _, e := range pr.s.elements {
		if te, ok := pr.transient(e); ok {
			fx, fy := te.LaplaceFixedDischarge(pr.p, x, y)
			qx += fx[layer]
			qy += fy[layer]
		}
	}
	return qx, qy
}

func (pr laplaceProbe) Columns(e element.Element) (lo, hi int) { return pr.s.Columns(e) }

// SolveLaplace assembles and solves the system at one Laplace
// parameter and returns the strength column. It does not touch the
// elements' stored steady strengths.
func (s *System) SolveLaplace(p complex128, maxCond float64) ([]complex128, error) {
	if maxCond <= 0 {
		maxCond = DefaultMaxCond
	}
	pr := laplaceProbe{s, p}
	rows := make([]element.CRow, 0, s.n)
	for _, e := range s.elements {
		te, ok := e.(element.TransientElement)
		if !ok {
			if e.NUnknowns() > 0 {
				return nil, &aquifer.ConfigurationError{
					Item:   e.Label(),
					Reason: "element does not support transient solves",
				}
			}
			continue
		}
		er := te.LaplaceEquations(pr, p)
		if len(er) != e.NUnknowns() {
			return nil, &aquifer.ConfigurationError{
				Item: e.Label(),
				Reason: fmt.Sprintf("element contributes %d equations for %d unknowns",
					len(er), e.NUnknowns()),
			}
		}
		rows = append(rows, er...)
	}
	if s.n == 0 {
		return nil, nil
	}

	a := make([][]complex128, s.n)
	b := make([]complex128, s.n)
	for r, row := range rows {
		if len(row.Coef) != s.n {
			return nil, &aquifer.ConfigurationError{
				Item:   "assembly",
				Reason: fmt.Sprintf("row %d has %d coefficients for %d unknowns", r, len(row.Coef), s.n),
			}
		}
		a[r] = append([]complex128(nil), row.Coef...)
		b[r] = row.RHS
	}
	return solveComplexDense(a, b, maxCond)
}

// LaplaceHead evaluates the transformed head at (x, y) in a layer
// from a strength column solved at parameter p.
func (s *System) LaplaceHead(p complex128, sol []complex128, x, y float64, layer int) complex128 {
	pr := laplaceProbe{s, p}
	h := pr.HeadFixed(x, y, layer)
	for c, v := range pr.HeadInf(x, y, layer) {
		h += v * sol[c]
	}
	return h
}

// LaplaceDischarge evaluates the transformed layer discharge at
// (x, y) from a strength column solved at parameter p.
func (s *System) LaplaceDischarge(p complex128, sol []complex128, x, y float64, layer int) (qx, qy complex128) {
	pr := laplaceProbe{s, p}
	qx, qy = pr.DischargeFixed(x, y, layer)
	ix, iy := pr.DischargeInf(x, y, layer)
	for c := range ix {
		qx += ix[c] * sol[c]
		qy += iy[c] * sol[c]
	}
	return qx, qy
}
