package element

import (
	"fmt"
	"math"

	"github.com/gwaem/gwaem/aquifer"
)

// Well is a point element with a finite radius screened in one or
// more aquifer layers. Two flavors share the type: a
// discharge-specified well (total pumping rate given, distribution
// over the screened layers solved for) and a head-specified well
// (head at the well radius given in every screened layer).
//
// The per-layer discharge is the strength unknown; pumping is
// positive. With a multi-layer screen the discharge-specified well
// adds equal-head tie equations between the screened layers plus one
// total-discharge equation, so the unknown and equation counts always
// match.
type Well struct {
	label  string
	sys    *aquifer.System
	x, y   float64
	rw     float64
	layers []int

	headSpec bool
	q        float64 // total discharge target (discharge-specified)
	h        float64 // head target (head-specified)

	strengths []float64
}

// NewWell returns a discharge-specified well at (x, y) with radius rw
// pumping a total rate q from the given layers.
func NewWell(sys *aquifer.System, label string, x, y, rw, q float64, layers []int) (*Well, error) {
	return newWell(sys, label, x, y, rw, layers, false, q, 0)
}

// NewHeadWell returns a head-specified well: the head at the well
// radius equals h in every screened layer and the per-layer discharge
// is solved for.
func NewHeadWell(sys *aquifer.System, label string, x, y, rw, h float64, layers []int) (*Well, error) {
	return newWell(sys, label, x, y, rw, layers, true, 0, h)
}

func newWell(sys *aquifer.System, label string, x, y, rw float64, layers []int, headSpec bool, q, h float64) (*Well, error) {
	if err := validateLayers(sys, label, layers); err != nil {
		return nil, err
	}
	if rw <= 0 {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: fmt.Sprintf("well radius must be positive, got %g", rw),
		}
	}
	return &Well{
		label: label, sys: sys, x: x, y: y, rw: rw,
		layers:   append([]int(nil), layers...),
		headSpec: headSpec, q: q, h: h,
	}, nil
}

func (w *Well) Label() string  { return w.label }
func (w *Well) NUnknowns() int { return len(w.layers) }

// ControlPoint is on the well screen, one radius off the center.
func (w *Well) ControlPoint() (float64, float64) { return w.x + w.rw, w.y }

func (w *Well) influenceC(md *aquifer.Modes, x, y float64) [][]complex128 {
	g, _, _ := pointKernels(md, complex(x, y), complex(w.x, w.y), w.rw)
	out := make([][]complex128, len(w.layers))
	for u, n := range w.layers {
		out[u] = combine(md, n, complex(1/w.sys.T(n), 0), g)
	}
	return out
}

func (w *Well) dischargeC(md *aquifer.Modes, x, y float64) (qx, qy [][]complex128) {
	_, gx, gy := pointKernels(md, complex(x, y), complex(w.x, w.y), w.rw)
	qx = make([][]complex128, len(w.layers))
	qy = make([][]complex128, len(w.layers))
	for u, n := range w.layers {
		scale := complex(1/w.sys.T(n), 0)
		hx := combine(md, n, scale, gx)
		hy := combine(md, n, scale, gy)
		qx[u], qy[u] = dischargeFromGrad(w.sys, hx, hy)
	}
	return qx, qy
}

func (w *Well) Influence(x, y float64) [][]float64 {
	inf := w.influenceC(w.sys.SteadyModes(), x, y)
	out := make([][]float64, len(inf))
	for u := range inf {
		out[u] = realParts(inf[u])
	}
	return out
}

func (w *Well) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	cqx, cqy := w.dischargeC(w.sys.SteadyModes(), x, y)
	qx = make([][]float64, len(cqx))
	qy = make([][]float64, len(cqy))
	for u := range cqx {
		qx[u] = realParts(cqx[u])
		qy[u] = realParts(cqy[u])
	}
	return qx, qy
}

func (w *Well) FixedHead(x, y float64) []float64 {
	return make([]float64, w.sys.Naq())
}

func (w *Well) FixedDischarge(x, y float64) (qx, qy []float64) {
	return make([]float64, w.sys.Naq()), make([]float64, w.sys.Naq())
}

func (w *Well) Equations(pr Probe) []Row {
	cx, cy := w.ControlPoint()
	rows := make([]Row, 0, len(w.layers))
	if w.headSpec {
		// Targets are physical heads; superposition works on top of the
		// background head.
		for _, l := range w.layers {
			rows = append(rows, Row{
				Coef: pr.HeadInf(cx, cy, l),
				RHS:  w.h - w.sys.HStar() - pr.HeadFixed(cx, cy, l),
			})
		}
		return rows
	}
	// Equal head across the screen, then the total discharge.
	for j := 0; j < len(w.layers)-1; j++ {
		la, lb := w.layers[j], w.layers[j+1]
		ca := pr.HeadInf(cx, cy, la)
		cb := pr.HeadInf(cx, cy, lb)
		coef := make([]float64, len(ca))
		for i := range coef {
			coef[i] = ca[i] - cb[i]
		}
		rows = append(rows, Row{
			Coef: coef,
			RHS:  pr.HeadFixed(cx, cy, lb) - pr.HeadFixed(cx, cy, la),
		})
	}
	lo, hi := pr.Columns(w)
	coef := make([]float64, len(pr.HeadInf(cx, cy, w.layers[0])))
	for c := lo; c < hi; c++ {
		coef[c] = 1
	}
	rows = append(rows, Row{Coef: coef, RHS: w.q})
	return rows
}

func (w *Well) SetStrengths(s []float64) { w.strengths = append([]float64(nil), s...) }
func (w *Well) Strengths() []float64     { return w.strengths }

// Discharge returns the total solved discharge of the well.
func (w *Well) Discharge() float64 {
	var sum float64
	for _, s := range w.strengths {
		sum += s
	}
	return sum
}

// Laplace-domain behavior: the discharge (or head) target is a step
// switched on at t = 0, so targets transform to target/p.

func (w *Well) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	md, ok := modesOrZero(w.sys, p)
	if !ok {
		return zerosC(len(w.layers), w.sys.Naq())
	}
	return w.influenceC(md, x, y)
}

func (w *Well) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	md, ok := modesOrZero(w.sys, p)
	if !ok {
		return zerosC(len(w.layers), w.sys.Naq()), zerosC(len(w.layers), w.sys.Naq())
	}
	return w.dischargeC(md, x, y)
}

func (w *Well) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	return make([]complex128, w.sys.Naq())
}

func (w *Well) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	return make([]complex128, w.sys.Naq()), make([]complex128, w.sys.Naq())
}

func (w *Well) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow {
	cx, cy := w.ControlPoint()
	rows := make([]CRow, 0, len(w.layers))
	if w.headSpec {
		for _, l := range w.layers {
			rows = append(rows, CRow{
				Coef: pr.HeadInf(cx, cy, l),
				RHS:  complex(w.h-w.sys.HStar(), 0)/p - pr.HeadFixed(cx, cy, l),
			})
		}
		return rows
	}
	for j := 0; j < len(w.layers)-1; j++ {
		la, lb := w.layers[j], w.layers[j+1]
		ca := pr.HeadInf(cx, cy, la)
		cb := pr.HeadInf(cx, cy, lb)
		coef := make([]complex128, len(ca))
		for i := range coef {
			coef[i] = ca[i] - cb[i]
		}
		rows = append(rows, CRow{
			Coef: coef,
			RHS:  pr.HeadFixed(cx, cy, lb) - pr.HeadFixed(cx, cy, la),
		})
	}
	lo, hi := pr.Columns(w)
	coef := make([]complex128, len(pr.HeadInf(cx, cy, w.layers[0])))
	for c := lo; c < hi; c++ {
		coef[c] = 1
	}
	rows = append(rows, CRow{Coef: coef, RHS: complex(w.q, 0) / p})
	return rows
}

// DistanceTo returns the distance from the well center to (x, y),
// clamped at the well radius.
func (w *Well) DistanceTo(x, y float64) float64 {
	r := math.Hypot(x-w.x, y-w.y)
	if r < w.rw {
		r = w.rw
	}
	return r
}

// Location returns the well center.
func (w *Well) Location() (x, y float64) { return w.x, w.y }

// Radius returns the well radius.
func (w *Well) Radius() float64 { return w.rw }

// WellString couples several wells on one header pipe: the given
// total discharge is distributed over the wells and their screened
// layers so every screen shares one head that is not known
// beforehand. Like the multi-layer well, the coupling is expressed as
// equal-head tie equations plus one total-discharge row.
type WellString struct {
	label  string
	sys    *aquifer.System
	xy     [][2]float64
	rw     float64
	layers []int
	q      float64 // total discharge target

	strengths []float64
}

// NewWellString returns a string of wells at the given centers, all
// with radius rw, pumping a total rate q from the given layers.
func NewWellString(sys *aquifer.System, label string, xy [][2]float64, rw, q float64, layers []int) (*WellString, error) {
	if err := validateLayers(sys, label, layers); err != nil {
		return nil, err
	}
	if len(xy) == 0 {
		return nil, &aquifer.ConfigurationError{Item: label, Reason: "no well locations"}
	}
	if rw <= 0 {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: fmt.Sprintf("well radius must be positive, got %g", rw),
		}
	}
	return &WellString{
		label: label, sys: sys, rw: rw, q: q,
		xy:     append([][2]float64(nil), xy...),
		layers: append([]int(nil), layers...),
	}, nil
}

func (ws *WellString) Label() string  { return ws.label }
func (ws *WellString) NWells() int    { return len(ws.xy) }
func (ws *WellString) NUnknowns() int { return len(ws.xy) * len(ws.layers) }

// ControlPoint is on the screen of well i, one radius off its center.
func (ws *WellString) ControlPoint(i int) (float64, float64) {
	return ws.xy[i][0] + ws.rw, ws.xy[i][1]
}

// WellLocation returns the center of well i.
func (ws *WellString) WellLocation(i int) (x, y float64) {
	return ws.xy[i][0], ws.xy[i][1]
}

// Radius returns the shared well radius.
func (ws *WellString) Radius() float64 { return ws.rw }

// controlAt returns the flattened (well, layer) control point k.
func (ws *WellString) controlAt(k int) (cx, cy float64, layer int) {
	i, j := k/len(ws.layers), k%len(ws.layers)
	cx, cy = ws.ControlPoint(i)
	return cx, cy, ws.layers[j]
}

func (ws *WellString) influenceC(md *aquifer.Modes, x, y float64) [][]complex128 {
	out := make([][]complex128, ws.NUnknowns())
	z := complex(x, y)
	for i, c := range ws.xy {
		g, _, _ := pointKernels(md, z, complex(c[0], c[1]), ws.rw)
		for j, n := range ws.layers {
			out[i*len(ws.layers)+j] = combine(md, n, complex(1/ws.sys.T(n), 0), g)
		}
	}
	return out
}

func (ws *WellString) dischargeC(md *aquifer.Modes, x, y float64) (qx, qy [][]complex128) {
	qx = make([][]complex128, ws.NUnknowns())
	qy = make([][]complex128, ws.NUnknowns())
	z := complex(x, y)
	for i, c := range ws.xy {
		_, gx, gy := pointKernels(md, z, complex(c[0], c[1]), ws.rw)
		for j, n := range ws.layers {
			scale := complex(1/ws.sys.T(n), 0)
			hx := combine(md, n, scale, gx)
			hy := combine(md, n, scale, gy)
			u := i*len(ws.layers) + j
			qx[u], qy[u] = dischargeFromGrad(ws.sys, hx, hy)
		}
	}
	return qx, qy
}

func (ws *WellString) Influence(x, y float64) [][]float64 {
	inf := ws.influenceC(ws.sys.SteadyModes(), x, y)
	out := make([][]float64, len(inf))
	for u := range inf {
		out[u] = realParts(inf[u])
	}
	return out
}

func (ws *WellString) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	cqx, cqy := ws.dischargeC(ws.sys.SteadyModes(), x, y)
	qx = make([][]float64, len(cqx))
	qy = make([][]float64, len(cqy))
	for u := range cqx {
		qx[u] = realParts(cqx[u])
		qy[u] = realParts(cqy[u])
	}
	return qx, qy
}

func (ws *WellString) FixedHead(x, y float64) []float64 {
	return make([]float64, ws.sys.Naq())
}

func (ws *WellString) FixedDischarge(x, y float64) (qx, qy []float64) {
	return make([]float64, ws.sys.Naq()), make([]float64, ws.sys.Naq())
}

func (ws *WellString) Equations(pr Probe) []Row {
	n := ws.NUnknowns()
	rows := make([]Row, 0, n)
	for k := 0; k+1 < n; k++ {
		ax, ay, al := ws.controlAt(k)
		bx, by, bl := ws.controlAt(k + 1)
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
	lo, hi := pr.Columns(ws)
	cx, cy, l0 := ws.controlAt(0)
	coef := make([]float64, len(pr.HeadInf(cx, cy, l0)))
	for c := lo; c < hi; c++ {
		coef[c] = 1
	}
	rows = append(rows, Row{Coef: coef, RHS: ws.q})
	return rows
}

func (ws *WellString) SetStrengths(s []float64) {
	ws.strengths = append([]float64(nil), s...)
}
func (ws *WellString) Strengths() []float64 { return ws.strengths }

// Discharge returns the total solved discharge of the string.
func (ws *WellString) Discharge() float64 {
	var sum float64
	for _, s := range ws.strengths {
		sum += s
	}
	return sum
}

// WellDischarge returns the solved discharge of well i summed over
// its screened layers.
func (ws *WellString) WellDischarge(i int) float64 {
	var sum float64
	for j := range ws.layers {
		sum += ws.strengths[i*len(ws.layers)+j]
	}
	return sum
}

func (ws *WellString) LaplaceInfluence(p complex128, x, y float64) [][]complex128 {
	md, ok := modesOrZero(ws.sys, p)
	if !ok {
		return zerosC(ws.NUnknowns(), ws.sys.Naq())
	}
	return ws.influenceC(md, x, y)
}

func (ws *WellString) LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128) {
	md, ok := modesOrZero(ws.sys, p)
	if !ok {
		return zerosC(ws.NUnknowns(), ws.sys.Naq()), zerosC(ws.NUnknowns(), ws.sys.Naq())
	}
	return ws.dischargeC(md, x, y)
}

func (ws *WellString) LaplaceFixedHead(p complex128, x, y float64) []complex128 {
	return make([]complex128, ws.sys.Naq())
}

func (ws *WellString) LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128) {
	return make([]complex128, ws.sys.Naq()), make([]complex128, ws.sys.Naq())
}

func (ws *WellString) LaplaceEquations(pr LaplaceProbe, p complex128) []CRow {
	n := ws.NUnknowns()
	rows := make([]CRow, 0, n)
	for k := 0; k+1 < n; k++ {
		ax, ay, al := ws.controlAt(k)
		bx, by, bl := ws.controlAt(k + 1)
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
	lo, hi := pr.Columns(ws)
	cx, cy, l0 := ws.controlAt(0)
	coef := make([]complex128, len(pr.HeadInf(cx, cy, l0)))
	for c := lo; c < hi; c++ {
		coef[c] = 1
	}
	rows = append(rows, CRow{Coef: coef, RHS: complex(ws.q, 0) / p})
	return rows
}
