package element

import (
	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/kernels"
)

// Modal combination shared by all elements. A source of unit strength
// in aquifer src produces, in aquifer i,
//
//	h[i] = sum_m Vec[i][m] * Inv[m][src] * scale * g[m]
//
// with g[m] the mode-m kernel value. Sinks scale by 1/T[src] (their
// strength is a discharge); doublets scale by 1 (their strength is a
// head jump).

// combine folds per-mode kernel values into per-aquifer values.
func combine(md *aquifer.Modes, src int, scale complex128, g []complex128) []complex128 {
	out := make([]complex128, md.Naq)
	for i := 0; i < md.Naq; i++ {
		var sum complex128
		for m := 0; m < md.Naq; m++ {
			sum += md.Vec[i][m] * md.Inv[m][src] * g[m]
		}
		out[i] = sum * scale
	}
	return out
}

// modesOrZero resolves the modes at p for an influence evaluation.
// The influence signatures carry no error return: the transient solver
// resolves the modes for every parameter up front and fails the solve
// there, so a failure here can only happen when an influence method is
// called outside a solve, and the element degrades to zero influence.
func modesOrZero(sys *aquifer.System, p complex128) (*aquifer.Modes, bool) {
	md, err := sys.ModesAt(p)
	return md, err == nil
}

func realParts(in []complex128) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = real(v)
	}
	return out
}

// pointKernels evaluates the per-mode point-sink kernels at z for a
// sink at zw with minimum radius rw.
func pointKernels(md *aquifer.Modes, z, zw complex128, rw float64) (g, gx, gy []complex128) {
	n := md.Naq
	g = make([]complex128, n)
	gx = make([]complex128, n)
	gy = make([]complex128, n)
	for m := 0; m < n; m++ {
		if md.Zero[m] {
			g[m], gx[m], gy[m] = kernels.PointLn(z, zw, rw)
		} else {
			g[m], gx[m], gy[m] = kernels.PointK0(z, zw, md.Lab[m], rw)
		}
	}
	return g, gx, gy
}

// lineKernels evaluates the per-mode line-sink kernels at z for the
// segment z1-z2.
func lineKernels(md *aquifer.Modes, z, z1, z2 complex128) (g, gx, gy []complex128) {
	n := md.Naq
	g = make([]complex128, n)
	gx = make([]complex128, n)
	gy = make([]complex128, n)
	for m := 0; m < n; m++ {
		if md.Zero[m] {
			g[m], gx[m], gy[m] = kernels.LineLn(z, z1, z2)
		} else {
			g[m], gx[m], gy[m] = kernels.LineK0(z, z1, z2, md.Lab[m])
		}
	}
	return g, gx, gy
}

// dipKernels evaluates the per-mode line-doublet kernels.
func dipKernels(md *aquifer.Modes, z, z1, z2 complex128) (g, gx, gy []complex128) {
	n := md.Naq
	g = make([]complex128, n)
	gx = make([]complex128, n)
	gy = make([]complex128, n)
	for m := 0; m < n; m++ {
		if md.Zero[m] {
			g[m], gx[m], gy[m] = kernels.DipLn(z, z1, z2)
		} else {
			g[m], gx[m], gy[m] = kernels.DipK0(z, z1, z2, md.Lab[m])
		}
	}
	return g, gx, gy
}

// dischargeFromGrad converts head-gradient values per aquifer into
// layer discharges -T grad h.
func dischargeFromGrad(sys *aquifer.System, hx, hy []complex128) (qx, qy []complex128) {
	qx = make([]complex128, len(hx))
	qy = make([]complex128, len(hy))
	for i := range hx {
		t := complex(sys.T(i), 0)
		qx[i] = -t * hx[i]
		qy[i] = -t * hy[i]
	}
	return qx, qy
}

func zeros(n, naq int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, naq)
	}
	return out
}

func zerosC(n, naq int) [][]complex128 {
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, naq)
	}
	return out
}
