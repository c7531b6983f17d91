package model

import (
	"fmt"
	"math"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
)

// TraceStop tells why a streamline ended.
type TraceStop int

const (
	// TraceMaxSteps means the step budget ran out.
	TraceMaxSteps TraceStop = iota
	// TraceStagnated means the velocity vanished.
	TraceStagnated
	// TraceCaptured means the streamline reached a well or a sink
	// segment; Trace.Element names it.
	TraceCaptured
	// TraceMaxDist means the length budget ran out.
	TraceMaxDist
)

// TracePoint is one streamline vertex with the cumulative travel
// time from the starting point.
type TracePoint struct {
	X, Y float64
	Time float64
}

// Trace is a computed streamline.
type Trace struct {
	Points  []TracePoint
	Stop    TraceStop
	Element string // label of the capturing element, empty otherwise
}

// TraceOptions control streamline tracing. Step is required; the zero
// value of the other fields selects the defaults.
type TraceOptions struct {
	Step     float64 // spatial step length along the streamline
	Porosity float64 // effective porosity, default 0.3
	MaxSteps int     // default 1000
	MaxDist  float64 // total length bound, 0 means none
	Backward bool    // trace against the flow, for capture zones
}

// sinkSegments is satisfied by elements whose segments terminate a
// streamline.
type sinkSegments interface {
	SinkSegments() [][2]complex128
}

// TraceLine traces the steady streamline through (x, y) in a layer.
// The seepage velocity is the layer discharge over porosity times
// saturated thickness; steps advance by midpoint integration with a
// fixed spatial step. The trace ends in a well or on a sink segment,
// at a stagnation point, or when a budget runs out.
func (m *Model) TraceLine(x, y float64, layer int, opt TraceOptions) (*Trace, error) {
	if err := m.checkLayer(layer); err != nil {
		return nil, err
	}
	if !m.steadyDone {
		return nil, &NotSolvedError{Op: "TraceLine"}
	}
	if opt.Step <= 0 {
		return nil, &aquifer.ConfigurationError{
			Item:   "trace",
			Reason: fmt.Sprintf("step must be positive, got %g", opt.Step),
		}
	}
	por := opt.Porosity
	if por == 0 {
		por = 0.3
	}
	if por < 0 || por > 1 {
		return nil, &aquifer.ConfigurationError{
			Item:   "trace",
			Reason: fmt.Sprintf("porosity must be in (0, 1], got %g", opt.Porosity),
		}
	}
	maxSteps := opt.MaxSteps
	if maxSteps == 0 {
		maxSteps = 1000
	}

	sign := 1.0
	if opt.Backward {
		sign = -1
	}
	nh := por * m.sys.H(layer)
	vel := func(px, py float64) (float64, float64) {
		qx, qy, _ := m.Discharge(px, py, layer)
		return sign * qx / nh, sign * qy / nh
	}

	const vmin = 1e-12
	tr := &Trace{Points: []TracePoint{{X: x, Y: y}}}
	cx, cy := x, y
	var tt, dist float64
	for n := 0; n < maxSteps; n++ {
		vx, vy := vel(cx, cy)
		sp := math.Hypot(vx, vy)
		if sp < vmin {
			tr.Stop = TraceStagnated
			return tr, nil
		}
		// Midpoint evaluation keeps curved streamlines on track.
		mx := cx + 0.5*opt.Step*vx/sp
		my := cy + 0.5*opt.Step*vy/sp
		vmx, vmy := vel(mx, my)
		smp := math.Hypot(vmx, vmy)
		if smp < vmin {
			tr.Stop = TraceStagnated
			return tr, nil
		}
		nx := cx + opt.Step*vmx/smp
		ny := cy + opt.Step*vmy/smp

		if label, px, py, frac, hit := m.captureStep(cx, cy, nx, ny, opt.Step); hit {
			tt += frac * opt.Step / smp
			tr.Points = append(tr.Points, TracePoint{X: px, Y: py, Time: tt})
			tr.Stop = TraceCaptured
			tr.Element = label
			return tr, nil
		}

		tt += opt.Step / smp
		dist += opt.Step
		cx, cy = nx, ny
		tr.Points = append(tr.Points, TracePoint{X: cx, Y: cy, Time: tt})
		if opt.MaxDist > 0 && dist >= opt.MaxDist {
			tr.Stop = TraceMaxDist
			return tr, nil
		}
	}
	tr.Stop = TraceMaxSteps
	return tr, nil
}

// TraceLines traces a streamline from every starting point.
func (m *Model) TraceLines(starts [][2]float64, layer int, opt TraceOptions) ([]*Trace, error) {
	out := make([]*Trace, len(starts))
	for i, s := range starts {
		tr, err := m.TraceLine(s[0], s[1], layer, opt)
		if err != nil {
			return nil, err
		}
		out[i] = tr
	}
	return out, nil
}

// captureStep checks whether the step from (x0, y0) to (x1, y1) ends
// in a well or crosses a sink segment, picking the earliest hit along
// the step.
func (m *Model) captureStep(x0, y0, x1, y1, step float64) (label string, px, py, frac float64, hit bool) {
	best := math.Inf(1)
	consider := func(f, hx, hy float64, lbl string) {
		if f < best {
			best, px, py = f, hx, hy
			label, hit = lbl, true
		}
	}
	for _, e := range m.elements {
		switch el := e.(type) {
		case *element.Well:
			wx, wy := el.Location()
			f, d := pointStepDistance(wx, wy, x0, y0, x1, y1)
			if d <= math.Max(el.Radius(), step/2) {
				consider(f, wx, wy, el.Label())
			}
		case *element.WellString:
			for i := 0; i < el.NWells(); i++ {
				wx, wy := el.WellLocation(i)
				f, d := pointStepDistance(wx, wy, x0, y0, x1, y1)
				if d <= math.Max(el.Radius(), step/2) {
					consider(f, wx, wy, el.Label())
				}
			}
		}
		if ss, ok := e.(sinkSegments); ok {
			for _, sgm := range ss.SinkSegments() {
				f, ix, iy, ok := stepCrossing(x0, y0, x1, y1,
					real(sgm[0]), imag(sgm[0]), real(sgm[1]), imag(sgm[1]))
				if ok {
					consider(f, ix, iy, e.Label())
				}
			}
		}
	}
	return label, px, py, best, hit
}

// pointStepDistance returns the parameter of the closest point of the
// step a-b to p and the distance to it.
func pointStepDistance(px, py, ax, ay, bx, by float64) (frac, dist float64) {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0, math.Hypot(px-ax, py-ay)
	}
	f := ((px-ax)*dx + (py-ay)*dy) / l2
	f = math.Max(0, math.Min(1, f))
	return f, math.Hypot(px-(ax+f*dx), py-(ay+f*dy))
}

// stepCrossing intersects the step a-b with the segment c-d and
// returns the step parameter and the crossing point.
func stepCrossing(ax, ay, bx, by, cx, cy, dx, dy float64) (frac, ix, iy float64, ok bool) {
	rx, ry := bx-ax, by-ay
	sx, sy := dx-cx, dy-cy
	den := rx*sy - ry*sx
	if den == 0 {
		return 0, 0, 0, false
	}
	qx, qy := cx-ax, cy-ay
	t := (qx*sy - qy*sx) / den
	u := (qx*ry - qy*rx) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	return t, ax + t*rx, ay + t*ry, true
}
