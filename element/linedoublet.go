package element

import (
	"fmt"
	"math"

	"github.com/gwaem/gwaem/aquifer"
)

// LineDoubletString is a polyline of line-doublet segments modeling a
// wall: impermeable when the resistance is zero (no flow across the
// wall) or leaky otherwise (flow across the wall proportional to the
// head difference over it). The strength unknown per segment per
// layer is the head jump across the wall.
//
// Boundary conditions are evaluated at the segment midpoint, offset
// by a small fraction of the segment length on each side. The
// singular near field of the doublet kernels is carried by the exact
// log term, so the offset evaluation stays well conditioned.
type LineDoubletString struct {
	label  string
	sys    *aquifer.System
	seg1   []complex128
	seg2   []complex128
	layers []int
	res    float64 // resistance of the wall; 0 means impermeable

	strengths []float64
}

// cpOffset is the control-point offset as a fraction of segment
// length.
const cpOffset = 1e-6

// NewImpLineDoubletString builds an impermeable wall along xy in the
// given layers.
func NewImpLineDoubletString(sys *aquifer.System, label string, xy [][2]float64, layers []int) (*LineDoubletString, error) {
	return newDoubletString(sys, label, xy, 0, layers)
}

// NewLeakyLineDoubletString builds a leaky wall with resistance res
// along xy in the given layers.
func NewLeakyLineDoubletString(sys *aquifer.System, label string, xy [][2]float64, res float64, layers []int) (*LineDoubletString, error) {
	if res <= 0 {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: fmt.Sprintf("leaky wall resistance must be positive, got %g", res),
		}
	}
	return newDoubletString(sys, label, xy, res, layers)
}

// NewImpLineDoublet is the single-segment impermeable wall.
func NewImpLineDoublet(sys *aquifer.System, label string, x1, y1, x2, y2 float64, layers []int) (*LineDoubletString, error) {
	return NewImpLineDoubletString(sys, label, [][2]float64{{x1, y1}, {x2, y2}}, layers)
}

// NewLeakyLineDoublet is the single-segment leaky wall.
func NewLeakyLineDoublet(sys *aquifer.System, label string, x1, y1, x2, y2, res float64, layers []int) (*LineDoubletString, error) {
	return NewLeakyLineDoubletString(sys, label, [][2]float64{{x1, y1}, {x2, y2}}, res, layers)
}

func newDoubletString(sys *aquifer.System, label string, xy [][2]float64, res float64, layers []int) (*LineDoubletString, error) {
	if err := validateLayers(sys, label, layers); err != nil {
		return nil, err
	}
	if len(xy) < 2 {
		return nil, &aquifer.ConfigurationError{Item: label, Reason: "polyline needs at least two points"}
	}
	d := &LineDoubletString{label: label, sys: sys, res: res, layers: append([]int(nil), layers...)}
	for i := 0; i < len(xy)-1; i++ {
		z1 := complex(xy[i][0], xy[i][1])
		z2 := complex(xy[i+1][0], xy[i+1][1])
		if z1 == z2 {
			return nil, &aquifer.ConfigurationError{
				Item:   label,
				Reason: fmt.Sprintf("segment %d has zero length", i),
			}
		}
		d.seg1 = append(d.seg1, z1)
		d.seg2 = append(d.seg2, z2)
	}
	return d, nil
}

func (d *LineDoubletString) Label() string  { return d.label }
func (d *LineDoubletString) NSegments() int { return len(d.seg1) }
func (d *LineDoubletString) NUnknowns() int { return len(d.seg1) * len(d.layers) }

// Resistance returns the wall resistance; zero means impermeable.
func (d *LineDoubletString) Resistance() float64 { return d.res }

// geometry returns midpoint, left normal and length of segment i.
func (d *LineDoubletString) geometry(i int) (zc complex128, nx, ny, length float64) {
	dz := d.seg2[i] - d.seg1[i]
	length = math.Hypot(real(dz), imag(dz))
	tx, ty := real(dz)/length, imag(dz)/length
	return (d.seg1[i] + d.seg2[i]) / 2, -ty, tx, length
}

// ControlPoints returns the two offset control points of segment i:
// plus on the left side of the segment, minus on the right.
func (d *LineDoubletString) ControlPoints(i int) (xp, yp, xm, ym float64) {
	zc, nx, ny, length := d.geometry(i)
	off := cpOffset * length
	return real(zc) + off*nx, imag(zc) + off*ny,
		real(zc) - off*nx, imag(zc) - off*ny
}

func (d *LineDoubletString) influenceC(md *aquifer.Modes, x, y float64) [][]complex128 {
	out := make([][]complex128, d.NUnknowns())
	z := complex(x, y)
	for i := range d.seg1 {
		g, _, _ := dipKernels(md, z, d.seg1[i], d.seg2[i])
		for j, n := range d.layers {
			out[i*len(d.layers)+j] = combine(md, n, 1, g)
		}
	}
	return out
}

func (d *LineDoubletString) dischargeC(md *aquifer.Modes, x, y float64) (qx, qy [][]complex128) {
	qx = make([][]complex128, d.NUnknowns())
	qy = make([][]complex128, d.NUnknowns())
	z := complex(x, y)
	for i := range d.seg1 {
		_, gx, gy := dipKernels(md, z, d.seg1[i], d.seg2[i])
		for j, n := range d.layers {
			hx := combine(md, n, 1, gx)
			hy := combine(md, n, 1, gy)
			u := i*len(d.layers) + j
			qx[u], qy[u] = dischargeFromGrad(d.sys, hx, hy)
		}
	}
	return qx, qy
}

func (d *LineDoubletString) Influence(x, y float64) [][]float64 {
	inf := d.influenceC(d.sys.SteadyModes(), x, y)
	out := make([][]float64, len(inf))
	for u := range inf {
		out[u] = realParts(inf[u])
	}
	return out
}

func (d *LineDoubletString) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	cqx, cqy := d.dischargeC(d.sys.SteadyModes(), x, y)
	qx = make([][]float64, len(cqx))
	qy = make([][]float64, len(cqy))
	for u := range cqx {
		qx[u] = realParts(cqx[u])
		qy[u] = realParts(cqy[u])
	}
	return qx, qy
}

func (d *LineDoubletString) FixedHead(x, y float64) []float64 {
	return make([]float64, d.sys.Naq())
}

func (d *LineDoubletString) FixedDischarge(x, y float64) (qx, qy []float64) {
	return make([]float64, d.sys.Naq()), make([]float64, d.sys.Naq())
}

// Equations builds, per segment and screened layer, either the
// no-flow condition Qn = 0 (impermeable) or the Darcy condition
// through the wall: Qn = H (h_minus - h_plus) / c.
func (d *LineDoubletString) Equations(pr Probe) []Row {
	rows := make([]Row, 0, d.NUnknowns())
	for i := range d.seg1 {
		_, nx, ny, _ := d.geometry(i)
		xp, yp, xm, ym := d.ControlPoints(i)
		for _, l := range d.layers {
			qxInf, qyInf := pr.DischargeInf(xp, yp, l)
			coef := make([]float64, len(qxInf))
			for c := range coef {
				coef[c] = qxInf[c]*nx + qyInf[c]*ny
			}
			qxF, qyF := pr.DischargeFixed(xp, yp, l)
			rhs := -(qxF*nx + qyF*ny)
			if d.res > 0 {
				f := d.sys.H(l) / d.res
				hm := pr.HeadInf(xm, ym, l)
				hp := pr.HeadInf(xp, yp, l)
				for c := range coef {
					coef[c] -= f * (hm[c] - hp[c])
				}
				rhs += f * (pr.HeadFixed(xm, ym, l) - pr.HeadFixed(xp, yp, l))
			}
			rows = append(rows, Row{Coef: coef, RHS: rhs})
		}
	}
	return rows
}

func (d *LineDoubletString) SetStrengths(s []float64) {
	d.strengths = append([]float64(nil), s...)
}
func (d *LineDoubletString) Strengths() []float64 { return d.strengths }

func (d *LineDoubletString) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	md, ok := modesOrZero(d.sys, p)
	if !ok {
		return zerosC(d.NUnknowns(), d.sys.Naq())
	}
	return d.influenceC(md, x, y)
}

func (d *LineDoubletString) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	md, ok := modesOrZero(d.sys, p)
	if !ok {
		return zerosC(d.NUnknowns(), d.sys.Naq()), zerosC(d.NUnknowns(), d.sys.Naq())
	}
	return d.dischargeC(md, x, y)
}

func (d *LineDoubletString) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	return make([]complex128, d.sys.Naq())
}

func (d *LineDoubletString) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	return make([]complex128, d.sys.Naq()), make([]complex128, d.sys.Naq())
}

func (d *LineDoubletString) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow {
	rows := make([]CRow, 0, d.NUnknowns())
	for i := range d.seg1 {
		_, nx, ny, _ := d.geometry(i)
		xp, yp, xm, ym := d.ControlPoints(i)
		cnx, cny := complex(nx, 0), complex(ny, 0)
		for _, l := range d.layers {
			qxInf, qyInf := pr.DischargeInf(xp, yp, l)
			coef := make([]complex128, len(qxInf))
			for c := range coef {
				coef[c] = qxInf[c]*cnx + qyInf[c]*cny
			}
			qxF, qyF := pr.DischargeFixed(xp, yp, l)
			rhs := -(qxF*cnx + qyF*cny)
			if d.res > 0 {
				f := complex(d.sys.H(l)/d.res, 0)
				hm := pr.HeadInf(xm, ym, l)
				hp := pr.HeadInf(xp, yp, l)
				for c := range coef {
					coef[c] -= f * (hm[c] - hp[c])
				}
				rhs += f * (pr.HeadFixed(xm, ym, l) - pr.HeadFixed(xp, yp, l))
			}
			rows = append(rows, CRow{Coef: coef, RHS: rhs})
		}
	}
	return rows
}
