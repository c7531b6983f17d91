package element

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/kernels"
)

// CircAreaSink is a circular recharge (or extraction) area over the
// top aquifer: uniform areal flux N, positive into the aquifer. The
// strength is given, so the element carries no unknowns.
//
// Inside and outside solutions are matched at the rim: the confined
// zero mode uses the parabolic/log pair, leakage modes the I0/K0
// pair. Scaled Bessel products keep the exponentials bounded for
// small leakage factors.
type CircAreaSink struct {
	label  string
	sys    *aquifer.System
	xc, yc float64
	r      float64
	n      float64 // areal flux, positive downward into the aquifer
}

// NewCircAreaSink returns a circular area sink of radius r centered
// at (xc, yc) with areal recharge rate n into the top aquifer.
func NewCircAreaSink(sys *aquifer.System, label string, xc, yc, r, n float64) (*CircAreaSink, error) {
	if r <= 0 {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: fmt.Sprintf("radius must be positive, got %g", r),
		}
	}
	return &CircAreaSink{label: label, sys: sys, xc: xc, yc: yc, r: r, n: n}, nil
}

func (a *CircAreaSink) Label() string  { return a.label }
func (a *CircAreaSink) NUnknowns() int { return 0 }

func (a *CircAreaSink) Influence(x, y float64) [][]float64 { return nil }
func (a *CircAreaSink) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	return nil, nil
}

// modeKernel returns the mode value and its radial derivative at
// distance r from the center for a unit areal flux.
func (a *CircAreaSink) modeKernel(zero bool, lab complex128, r float64) (g, dgdr complex128) {
	bigR := a.r
	if zero {
		// Recharge is extraction with negative sign; the zero-mode
		// pair solves laplacian(phi) = -1 inside the rim.
		if r <= bigR {
			return complex(-(r*r-bigR*bigR)/4-bigR*bigR/2*math.Log(bigR), 0),
				complex(-r/2, 0)
		}
		return complex(-bigR*bigR/2*math.Log(r), 0), complex(-bigR*bigR/(2*r), 0)
	}
	wR := complex(bigR, 0) / lab
	wr := complex(r, 0) / lab
	if r <= bigR {
		e := cmplx.Exp(wr - wR)
		k1I0 := kernels.BesselK1E(wR) * kernels.BesselI0E(wr) * e
		k1I1 := kernels.BesselK1E(wR) * kernels.BesselI1E(wr) * e
		g = lab * lab * (1 - wR*k1I0)
		dgdr = -complex(bigR, 0) * k1I1
		return g, dgdr
	}
	e := cmplx.Exp(wR - wr)
	i1K0 := kernels.BesselI1E(wR) * kernels.BesselK0E(wr) * e
	i1K1 := kernels.BesselI1E(wR) * kernels.BesselK1E(wr) * e
	g = lab * lab * wR * i1K0
	dgdr = -complex(bigR, 0) * i1K1
	return g, dgdr
}

func (a *CircAreaSink) fixedC(md *aquifer.Modes, x, y float64, n complex128) (h, hx, hy []complex128) {
	r := math.Hypot(x-a.xc, y-a.yc)
	g := make([]complex128, md.Naq)
	gx := make([]complex128, md.Naq)
	gy := make([]complex128, md.Naq)
	for m := 0; m < md.Naq; m++ {
		val, dr := a.modeKernel(md.Zero[m], md.Lab[m], r)
		g[m] = val
		if r > 0 {
			gx[m] = dr * complex((x-a.xc)/r, 0)
			gy[m] = dr * complex((y-a.yc)/r, 0)
		}
	}
	scale := complex(1/a.sys.T(0), 0)
	h = combine(md, 0, scale, g)
	hx = combine(md, 0, scale, gx)
	hy = combine(md, 0, scale, gy)
	for i := range h {
		h[i] *= n
		hx[i] *= n
		hy[i] *= n
	}
	return h, hx, hy
}

func (a *CircAreaSink) FixedHead(x, y float64) []float64 {
	h, _, _ := a.fixedC(a.sys.SteadyModes(), x, y, complex(a.n, 0))
	return realParts(h)
}

func (a *CircAreaSink) FixedDischarge(x, y float64) (qx, qy []float64) {
	_, hx, hy := a.fixedC(a.sys.SteadyModes(), x, y, complex(a.n, 0))
	cqx, cqy := dischargeFromGrad(a.sys, hx, hy)
	return realParts(cqx), realParts(cqy)
}

func (a *CircAreaSink) Equations(pr Probe) []Row { return nil }
func (a *CircAreaSink) SetStrengths(s []float64) {}
func (a *CircAreaSink) Strengths() []float64     { return nil }

func (a *CircAreaSink) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	return nil
}

func (a *CircAreaSink) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	return nil, nil
}

func (a *CircAreaSink) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	md, ok := modesOrZero(a.sys, p)
	if !ok {
		return make([]complex128, a.sys.Naq())
	}
	h, _, _ := a.fixedC(md, x, y, complex(a.n, 0)/p)
	return h
}

func (a *CircAreaSink) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	md, ok := modesOrZero(a.sys, p)
	if !ok {
		return make([]complex128, a.sys.Naq()), make([]complex128, a.sys.Naq())
	}
	_, hx, hy := a.fixedC(md, x, y, complex(a.n, 0)/p)
	return dischargeFromGrad(a.sys, hx, hy)
}

func (a *CircAreaSink) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow { return nil }
