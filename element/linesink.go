package element

import (
	"fmt"
	"math"

	"github.com/gwaem/gwaem/aquifer"
)

// LineSink is a straight segment extracting water at a given rate,
// uniform along the segment, from a single layer. Its strength is
// fixed, so it carries no unknowns.
type LineSink struct {
	label  string
	sys    *aquifer.System
	z1, z2 complex128
	layer  int
	sigma  float64 // extraction per unit length
}

// NewLineSink returns a segment from (x1, y1) to (x2, y2) extracting
// sigma per unit length from the given layer.
func NewLineSink(sys *aquifer.System, label string, x1, y1, x2, y2, sigma float64, layer int) (*LineSink, error) {
	if err := validateLayers(sys, label, []int{layer}); err != nil {
		return nil, err
	}
	if x1 == x2 && y1 == y2 {
		return nil, &aquifer.ConfigurationError{Item: label, Reason: "zero-length segment"}
	}
	return &LineSink{
		label: label, sys: sys,
		z1: complex(x1, y1), z2: complex(x2, y2),
		layer: layer, sigma: sigma,
	}, nil
}

func (ls *LineSink) Label() string  { return ls.label }
func (ls *LineSink) NUnknowns() int { return 0 }

// SinkSegments reports the segment for streamline termination.
func (ls *LineSink) SinkSegments() [][2]complex128 {
	return [][2]complex128{{ls.z1, ls.z2}}
}

func (ls *LineSink) Influence(x, y float64) [][]float64 { return nil }
func (ls *LineSink) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	return nil, nil
}

func (ls *LineSink) fixedC(md *aquifer.Modes, x, y float64, sigma complex128) []complex128 {
	g, _, _ := lineKernels(md, complex(x, y), ls.z1, ls.z2)
	out := combine(md, ls.layer, complex(1/ls.sys.T(ls.layer), 0), g)
	for i := range out {
		out[i] *= sigma
	}
	return out
}

func (ls *LineSink) fixedDisC(md *aquifer.Modes, x, y float64, sigma complex128) (qx, qy []complex128) {
	_, gx, gy := lineKernels(md, complex(x, y), ls.z1, ls.z2)
	scale := complex(1/ls.sys.T(ls.layer), 0)
	hx := combine(md, ls.layer, scale, gx)
	hy := combine(md, ls.layer, scale, gy)
	qx, qy = dischargeFromGrad(ls.sys, hx, hy)
	for i := range qx {
		qx[i] *= sigma
		qy[i] *= sigma
	}
	return qx, qy
}

func (ls *LineSink) FixedHead(x, y float64) []float64 {
	return realParts(ls.fixedC(ls.sys.SteadyModes(), x, y, complex(ls.sigma, 0)))
}

func (ls *LineSink) FixedDischarge(x, y float64) (qx, qy []float64) {
	cqx, cqy := ls.fixedDisC(ls.sys.SteadyModes(), x, y, complex(ls.sigma, 0))
	return realParts(cqx), realParts(cqy)
}

func (ls *LineSink) Equations(pr Probe) []Row { return nil }
func (ls *LineSink) SetStrengths(s []float64) {}
func (ls *LineSink) Strengths() []float64 { return nil }

func (ls *LineSink) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	return nil
}

func (ls *LineSink) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	return nil, nil
}

func (ls *LineSink) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	md, ok := modesOrZero(ls.sys, p)
	if !ok {
		return make([]complex128, ls.sys.Naq())
	}
	return ls.fixedC(md, x, y, complex(ls.sigma, 0)/p)
}

func (ls *LineSink) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	md, ok := modesOrZero(ls.sys, p)
	if !ok {
		return make([]complex128, ls.sys.Naq()), make([]complex128, ls.sys.Naq())
	}
	return ls.fixedDisC(md, x, y, complex(ls.sigma, 0)/p)
}

func (ls *LineSink) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow { return nil }

// segString carries the polyline geometry and modal influence shared
// by the solved line-sink strings. Each segment holds one strength
// unknown per screened layer, uniform along the segment, with the
// control point at the segment midpoint.
type segString struct {
	sys    *aquifer.System
	seg1   []complex128
	seg2   []complex128
	layers []int
}

func newSegString(sys *aquifer.System, label string, xy [][2]float64, layers []int) (segString, error) {
	s := segString{sys: sys, layers: append([]int(nil), layers...)}
	if err := validateLayers(sys, label, layers); err != nil {
		return s, err
	}
	if len(xy) < 2 {
		return s, &aquifer.ConfigurationError{Item: label, Reason: "polyline needs at least two points"}
	}
	for i := 0; i < len(xy)-1; i++ {
		z1 := complex(xy[i][0], xy[i][1])
		z2 := complex(xy[i+1][0], xy[i+1][1])
		if z1 == z2 {
			return s, &aquifer.ConfigurationError{
				Item:   label,
				Reason: fmt.Sprintf("segment %d has zero length", i),
			}
		}
		s.seg1 = append(s.seg1, z1)
		s.seg2 = append(s.seg2, z2)
	}
	return s, nil
}

func (s *segString) NSegments() int { return len(s.seg1) }
func (s *segString) NUnknowns() int { return len(s.seg1) * len(s.layers) }

// ControlPoint returns the midpoint of segment i.
func (s *segString) ControlPoint(i int) (float64, float64) {
	zc := (s.seg1[i] + s.seg2[i]) / 2
	return real(zc), imag(zc)
}

// SegmentLength returns the length of segment i.
func (s *segString) SegmentLength(i int) float64 {
	return math.Hypot(real(s.seg2[i]-s.seg1[i]), imag(s.seg2[i]-s.seg1[i]))
}

// SinkSegments reports the segments for streamline termination.
func (s *segString) SinkSegments() [][2]complex128 {
	out := make([][2]complex128, len(s.seg1))
	for i := range s.seg1 {
		out[i] = [2]complex128{s.seg1[i], s.seg2[i]}
	}
	return out
}

func (s *segString) influenceC(md *aquifer.Modes, x, y float64) [][]complex128 {
	out := make([][]complex128, s.NUnknowns())
	z := complex(x, y)
	for i := range s.seg1 {
		g, _, _ := lineKernels(md, z, s.seg1[i], s.seg2[i])
		for j, n := range s.layers {
			out[i*len(s.layers)+j] = combine(md, n, complex(1/s.sys.T(n), 0), g)
		}
	}
	return out
}

func (s *segString) dischargeC(md *aquifer.Modes, x, y float64) (qx, qy [][]complex128) {
	qx = make([][]complex128, s.NUnknowns())
	qy = make([][]complex128, s.NUnknowns())
	z := complex(x, y)
	for i := range s.seg1 {
		_, gx, gy := lineKernels(md, z, s.seg1[i], s.seg2[i])
		for j, n := range s.layers {
			scale := complex(1/s.sys.T(n), 0)
			hx := combine(md, n, scale, gx)
			hy := combine(md, n, scale, gy)
			u := i*len(s.layers) + j
			qx[u], qy[u] = dischargeFromGrad(s.sys, hx, hy)
		}
	}
	return qx, qy
}

func (s *segString) Influence(x, y float64) [][]float64 {
	inf := s.influenceC(s.sys.SteadyModes(), x, y)
	out := make([][]float64, len(inf))
	for u := range inf {
		out[u] = realParts(inf[u])
	}
	return out
}

func (s *segString) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	cqx, cqy := s.dischargeC(s.sys.SteadyModes(), x, y)
	qx = make([][]float64, len(cqx))
	qy = make([][]float64, len(cqy))
	for u := range cqx {
		qx[u] = realParts(cqx[u])
		qy[u] = realParts(cqy[u])
	}
	return qx, qy
}

func (s *segString) FixedHead(x, y float64) []float64 {
	return make([]float64, s.sys.Naq())
}

func (s *segString) FixedDischarge(x, y float64) (qx, qy []float64) {
	return make([]float64, s.sys.Naq()), make([]float64, s.sys.Naq())
}

func (s *segString) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	md, ok := modesOrZero(s.sys, p)
	if !ok {
		return zerosC(s.NUnknowns(), s.sys.Naq())
	}
	return s.influenceC(md, x, y)
}

func (s *segString) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	md, ok := modesOrZero(s.sys, p)
	if !ok {
		return zerosC(s.NUnknowns(), s.sys.Naq()), zerosC(s.NUnknowns(), s.sys.Naq())
	}
	return s.dischargeC(md, x, y)
}

func (s *segString) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	return make([]complex128, s.sys.Naq())
}

func (s *segString) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	return make([]complex128, s.sys.Naq()), make([]complex128, s.sys.Naq())
}

// HeadLineSinkString is a polyline of head-specified line-sink
// segments: a river. The head condition is enforced at the segment
// midpoint in every screened layer. Continuity between segments
// follows from the shared head target.
type HeadLineSinkString struct {
	segString
	label string
	h     float64

	strengths []float64
}

// NewHeadLineSinkString builds a river along the polyline xy with
// target head h in the given layers.
func NewHeadLineSinkString(sys *aquifer.System, label string, xy [][2]float64, h float64, layers []int) (*HeadLineSinkString, error) {
	ss, err := newSegString(sys, label, xy, layers)
	if err != nil {
		return nil, err
	}
	return &HeadLineSinkString{segString: ss, label: label, h: h}, nil
}

// NewHeadLineSink is the single-segment convenience form.
func NewHeadLineSink(sys *aquifer.System, label string, x1, y1, x2, y2, h float64, layers []int) (*HeadLineSinkString, error) {
	return NewHeadLineSinkString(sys, label, [][2]float64{{x1, y1}, {x2, y2}}, h, layers)
}

func (s *HeadLineSinkString) Label() string { return s.label }

func (s *HeadLineSinkString) Equations(pr Probe) []Row {
	rows := make([]Row, 0, s.NUnknowns())
	for i := range s.seg1 {
		cx, cy := s.ControlPoint(i)
		for _, l := range s.layers {
			rows = append(rows, Row{
				Coef: pr.HeadInf(cx, cy, l),
				RHS:  s.h - s.sys.HStar() - pr.HeadFixed(cx, cy, l),
			})
		}
	}
	return rows
}

func (s *HeadLineSinkString) SetStrengths(str []float64) {
	s.strengths = append([]float64(nil), str...)
}
func (s *HeadLineSinkString) Strengths() []float64 { return s.strengths }

// TotalDischarge returns the solved extraction of the whole string.
func (s *HeadLineSinkString) TotalDischarge() float64 {
	var sum float64
	for i := range s.seg1 {
		l := s.SegmentLength(i)
		for j := range s.layers {
			sum += s.strengths[i*len(s.layers)+j] * l
		}
	}
	return sum
}

func (s *HeadLineSinkString) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow {
	rows := make([]CRow, 0, s.NUnknowns())
	for i := range s.seg1 {
		cx, cy := s.ControlPoint(i)
		for _, l := range s.layers {
			rows = append(rows, CRow{
				Coef: pr.HeadInf(cx, cy, l),
				RHS:  complex(s.h-s.sys.HStar(), 0)/p - pr.HeadFixed(cx, cy, l),
			})
		}
	}
	return rows
}

// DitchString is a polyline of line-sink segments extracting a given
// total discharge at a common head that is not known beforehand: a
// ditch or drain whose stage adjusts to the flow field. The strengths
// are solved so every control point sees the same head and the
// length-weighted strengths sum to the target discharge, mirroring the
// multi-layer well pattern of tie equations plus one total row.
type DitchString struct {
	segString
	label string
	q     float64 // total extraction target

	strengths []float64
}

// NewDitchString builds a ditch along the polyline xy extracting the
// total rate q from the given layers.
func NewDitchString(sys *aquifer.System, label string, xy [][2]float64, q float64, layers []int) (*DitchString, error) {
	ss, err := newSegString(sys, label, xy, layers)
	if err != nil {
		return nil, err
	}
	return &DitchString{segString: ss, label: label, q: q}, nil
}

// NewDitch is the single-segment convenience form.
func NewDitch(sys *aquifer.System, label string, x1, y1, x2, y2, q float64, layers []int) (*DitchString, error) {
	return NewDitchString(sys, label, [][2]float64{{x1, y1}, {x2, y2}}, q, layers)
}

func (d *DitchString) Label() string { return d.label }

// controlAt returns the flattened (segment, layer) control point k.
func (d *DitchString) controlAt(k int) (cx, cy float64, layer int) {
	i, j := k/len(d.layers), k%len(d.layers)
	cx, cy = d.ControlPoint(i)
	return cx, cy, d.layers[j]
}

func (d *DitchString) Equations(pr Probe) []Row {
	n := d.NUnknowns()
	rows := make([]Row, 0, n)
	// Equal head at consecutive control points, then the total
	// extraction.
	for k := 0; k+1 < n; k++ {
		ax, ay, al := d.controlAt(k)
		bx, by, bl := d.controlAt(k + 1)
		ca := pr.HeadInf(ax, ay, al)
		cb := pr.HeadInf(bx, by, bl)
		coef := make([]float64, len(ca))
		for i := range coef {
			coef[i] = ca[i] - cb[i]
		}
		rows = append(rows, Row{
			Coef: coef,
			RHS:  pr.HeadFixed(bx, by, bl) - pr.HeadFixed(ax, ay, al),
		})
	}
	lo, _ := pr.Columns(d)
	cx, cy, l0 := d.controlAt(0)
	coef := make([]float64, len(pr.HeadInf(cx, cy, l0)))
	for i := range d.seg1 {
		length := d.SegmentLength(i)
		for j := range d.layers {
			coef[lo+i*len(d.layers)+j] = length
		}
	}
	rows = append(rows, Row{Coef: coef, RHS: d.q})
	return rows
}

func (d *DitchString) SetStrengths(s []float64) {
	d.strengths = append([]float64(nil), s...)
}
func (d *DitchString) Strengths() []float64 { return d.strengths }

// TotalDischarge returns the solved extraction of the whole ditch.
func (d *DitchString) TotalDischarge() float64 {
	var sum float64
	for i := range d.seg1 {
		l := d.SegmentLength(i)
		for j := range d.layers {
			sum += d.strengths[i*len(d.layers)+j] * l
		}
	}
	return sum
}

func (d *DitchString) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow {
	n := d.NUnknowns()
	rows := make([]CRow, 0, n)
	for k := 0; k+1 < n; k++ {
		ax, ay, al := d.controlAt(k)
		bx, by, bl := d.controlAt(k + 1)
		ca := pr.HeadInf(ax, ay, al)
		cb := pr.HeadInf(bx, by, bl)
		coef := make([]complex128, len(ca))
		for i := range coef {
			coef[i] = ca[i] - cb[i]
		}
		rows = append(rows, CRow{
			Coef: coef,
			RHS:  pr.HeadFixed(bx, by, bl) - pr.HeadFixed(ax, ay, al),
		})
	}
	lo, _ := pr.Columns(d)
	cx, cy, l0 := d.controlAt(0)
	coef := make([]complex128, len(pr.HeadInf(cx, cy, l0)))
	for i := range d.seg1 {
		length := complex(d.SegmentLength(i), 0)
		for j := range d.layers {
			coef[lo+i*len(d.layers)+j] = length
		}
	}
	rows = append(rows, CRow{Coef: coef, RHS: complex(d.q, 0) / p})
	return rows
}
