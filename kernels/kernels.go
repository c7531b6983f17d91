package kernels

import (
	"math"
	"math/cmplx"
)

// The influence kernels below are the building blocks every analytic
// element combines per aquifer mode. Conventions:
//
//   - Points are complex, z = x + iy.
//   - Sink kernels are normalized to unit extraction: the log kernel
//     is ln(r)/(2 pi) and the leakage kernel is -K0(r/lab)/(2 pi).
//   - Doublet kernels are normalized to a unit head jump across the
//     segment, positive crossing from the right side to the left side
//     of the segment direction z1 -> z2.
//   - Each kernel returns its value and the (d/dx, d/dy) gradient.
//
// Line integrals split the kernel into the exact logarithmic part,
// integrated in closed form, and a smooth Bessel remainder handled
// by panel quadrature. The split keeps field points on or near the
// segment accurate, which is where the boundary-condition control
// points sit.

// twoPi is used throughout the kernel normalizations.
const twoPi = 2 * math.Pi

// PointLn is the steady sink kernel ln(r)/(2 pi) for a point sink at
// zw. Arguments closer than rmin are clamped to rmin (the well
// radius).
func PointLn(z, zw complex128, rmin float64) (g, gx, gy complex128) {
	d := z - zw
	r := cmplx.Abs(d)
	if r < rmin {
		r = rmin
		d = complex(rmin, 0)
	}
	g = complex(math.Log(r)/twoPi, 0)
	gx = complex(real(d)/(twoPi*r*r), 0)
	gy = complex(imag(d)/(twoPi*r*r), 0)
	return g, gx, gy
}

// PointK0 is the leakage sink kernel -K0(r/lab)/(2 pi) for a point
// sink at zw.
func PointK0(z, zw, lab complex128, rmin float64) (g, gx, gy complex128) {
	d := z - zw
	r := cmplx.Abs(d)
	if r < rmin {
		r = rmin
		d = complex(rmin, 0)
	}
	w := complex(r, 0) / lab
	g = -BesselK0(w) / twoPi
	// d/dr of -K0(r/lab) is K1(r/lab)/lab
	dr := BesselK1(w) / lab / twoPi
	gx = dr * complex(real(d)/r, 0)
	gy = dr * complex(imag(d)/r, 0)
	return g, gx, gy
}

// segment holds the reference-coordinate geometry shared by the line
// kernels.
type segment struct {
	z1, z2 complex128
	zc     complex128 // midpoint
	d      complex128 // z2 - z1
	L      float64
	nx, ny float64 // left normal (rotate tangent by +90 degrees)
}

func newSegment(z1, z2 complex128) segment {
	d := z2 - z1
	L := cmplx.Abs(d)
	t := d / complex(L, 0)
	return segment{
		z1: z1, z2: z2,
		zc: (z1 + z2) / 2,
		d:  d, L: L,
		nx: -imag(t), ny: real(t),
	}
}

// at maps the reference coordinate s in [-1, 1] to the segment.
func (sg segment) at(s float64) complex128 {
	return sg.zc + complex(s/2, 0)*sg.d
}

// project returns the reference coordinate of the projection of z on
// the segment line and whether it falls inside the segment.
func (sg segment) project(z complex128) (float64, bool) {
	w := (z - sg.zc) / (sg.d / 2)
	return real(w), real(w) > -1 && real(w) < 1
}

// intLn returns the exact complex integral of Log(z-xi) along the
// segment with respect to arc length. Its real part is the integral
// of ln|z-xi|. The prefactor is the real Jacobian L/2, not the
// complex half-vector d/2: |dxi| = (L/2) ds, and a complex prefactor
// would rotate the argument terms of the bracket into the real part.
func (sg segment) intLn(z complex128) complex128 {
	bigZ := (z - sg.zc) / (sg.d / 2)
	return complex(sg.L/2, 0) * (2*cmplx.Log(sg.d/2) +
		(bigZ+1)*cmplx.Log(bigZ+1) - (bigZ-1)*cmplx.Log(bigZ-1) - 2)
}

// intLnGrad returns the complex derivative of intLn, branch-correct
// off the segment.
func (sg segment) intLnGrad(z complex128) complex128 {
	return complex(sg.L, 0) / sg.d * cmplx.Log((z-sg.z1)/(z-sg.z2))
}

// LineLn is the steady line-sink kernel: the log sink kernel
// integrated along the segment for unit extraction per unit length.
func LineLn(z, z1, z2 complex128) (g, gx, gy complex128) {
	sg := newSegment(z1, z2)
	g = complex(real(sg.intLn(z))/twoPi, 0)
	w := sg.intLnGrad(z)
	gx = complex(real(w)/twoPi, 0)
	gy = complex(-imag(w)/twoPi, 0)
	return g, gx, gy
}

// LineK0 is the leakage line-sink kernel: -K0(r/lab)/(2 pi)
// integrated along the segment for unit extraction per unit length.
func LineK0(z, z1, z2, lab complex128) (g, gx, gy complex128) {
	sg := newSegment(z1, z2)
	s0, inside := sg.project(z)
	maxLen := 8 * cmplx.Abs(lab) / sg.L
	h := sg.L / 2 // Jacobian of the reference map

	rOf := func(s float64) (float64, float64, float64) {
		d := z - sg.at(s)
		return cmplx.Abs(d), real(d), imag(d)
	}

	// Smooth remainder of the kernel value.
	rq := integratePanels(func(s float64) complex128 {
		r, _, _ := rOf(s)
		return k0Remainder(r, lab) * complex(h, 0)
	}, s0, inside, maxLen)

	il := sg.intLn(z)
	intK0 := rq - complex(real(il), 0) +
		complex(sg.L, 0)*(cmplx.Log(2*lab)-complex(EulerGamma, 0))
	g = -intK0 / twoPi

	// Smooth remainder of the gradient: d/dx (K0 + ln r) integrated.
	rqx := integratePanels(func(s float64) complex128 {
		r, dx, _ := rOf(s)
		if r == 0 {
			return 0
		}
		return k1Remainder(r, lab) * complex(dx/r*h, 0)
	}, s0, inside, maxLen)
	rqy := integratePanels(func(s float64) complex128 {
		r, _, dy := rOf(s)
		if r == 0 {
			return 0
		}
		return k1Remainder(r, lab) * complex(dy/r*h, 0)
	}, s0, inside, maxLen)

	w := sg.intLnGrad(z)
	gx = -(rqx - complex(real(w), 0)) / twoPi
	gy = -(rqy + complex(imag(w), 0)) / twoPi
	return g, gx, gy
}

// DipLn is the steady line-doublet kernel for a unit head jump. Its
// value is the angle subtended by the segment over 2 pi; it jumps by
// +1 crossing the segment onto its left side.
func DipLn(z, z1, z2 complex128) (g, gx, gy complex128) {
	g = complex(cmplx.Phase((z-z2)/(z-z1))/twoPi, 0)
	// Omega = Log((z-z2)/(z-z1))/(2 pi i)
	w := (1/(z-z2) - 1/(z-z1)) / complex(0, twoPi)
	gx = complex(real(w), 0)
	gy = complex(-imag(w), 0)
	return g, gx, gy
}

// DipK0 is the leakage line-doublet kernel for a unit head jump:
// the normal derivative of K0(r/lab)/(2 pi) integrated along the
// segment. It reduces to DipLn as |lab| grows.
func DipK0(z, z1, z2, lab complex128) (g, gx, gy complex128) {
	sg := newSegment(z1, z2)
	s0, inside := sg.project(z)
	maxLen := 8 * cmplx.Abs(lab) / sg.L
	h := sg.L / 2

	g, gx, gy = DipLn(z, z1, z2)

	// Remainder value: -(1/2 pi) int k1Rem(r) (n.d)/r dxi.
	g -= integratePanels(func(s float64) complex128 {
		d := z - sg.at(s)
		r := cmplx.Abs(d)
		if r == 0 {
			return 0
		}
		nd := sg.nx*real(d) + sg.ny*imag(d)
		return k1Remainder(r, lab) * complex(nd/r*h, 0)
	}, s0, inside, maxLen) / twoPi

	// Remainder gradient.
	gradTerm := func(s float64, comp int) complex128 {
		d := z - sg.at(s)
		r := cmplx.Abs(d)
		if r == 0 {
			return 0
		}
		dx, dy := real(d), imag(d)
		nd := sg.nx*dx + sg.ny*dy
		rem := k1Remainder(r, lab)
		drem := k1RemainderDeriv(r, lab)
		var dc, nc float64
		if comp == 0 {
			dc, nc = dx, sg.nx
		} else {
			dc, nc = dy, sg.ny
		}
		v := drem*complex(dc/r*nd/r, 0) +
			rem*complex(nc/r-nd*dc/(r*r*r), 0)
		return v * complex(h, 0)
	}
	gx -= integratePanels(func(s float64) complex128 {
		return gradTerm(s, 0)
	}, s0, inside, maxLen) / twoPi
	gy -= integratePanels(func(s float64) complex128 {
		return gradTerm(s, 1)
	}, s0, inside, maxLen) / twoPi
	return g, gx, gy
}

// k1RemainderDeriv is the radial derivative of k1Remainder.
func k1RemainderDeriv(x float64, lab complex128) complex128 {
	w := complex(x, 0) / lab
	return complex(-1/(x*x), 0) +
		BesselK0(w)/(lab*lab) + BesselK1(w)/(lab*complex(x, 0))
}
