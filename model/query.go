package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/gwaem/gwaem/aquifer"
)

func (m *Model) checkLayer(layer int) error {
	if !m.sys.ValidLayer(layer) {
		return &aquifer.ConfigurationError{
			Item:   "query",
			Reason: fmt.Sprintf("layer %d outside system with %d aquifers", layer, m.sys.Naq()),
		}
	}
	return nil
}

// headAll superposes every element on the background head.
func (m *Model) headAll(x, y float64) []float64 {
	h := make([]float64, m.sys.Naq())
	floats.AddConst(m.sys.HStar(), h)
	for _, e := range m.elements {
		floats.Add(h, e.FixedHead(x, y))
		if e.NUnknowns() == 0 {
			continue
		}
		inf := e.Influence(x, y)
		str := e.Strengths()
		for u := range inf {
			floats.AddScaled(h, str[u], inf[u])
		}
	}
	return h
}

// Head returns the steady head at (x, y) in a layer.
func (m *Model) Head(x, y float64, layer int) (float64, error) {
	if err := m.checkLayer(layer); err != nil {
		return 0, err
	}
	if !m.steadyDone {
		return 0, &NotSolvedError{Op: "Head"}
	}
	return m.headAll(x, y)[layer], nil
}

// HeadAll returns the steady head at (x, y) in every layer.
func (m *Model) HeadAll(x, y float64) ([]float64, error) {
	if !m.steadyDone {
		return nil, &NotSolvedError{Op: "HeadAll"}
	}
	return m.headAll(x, y), nil
}

// Discharge returns the steady layer discharge vector (depth
// integrated, -T grad h) at (x, y) in a layer.
func (m *Model) Discharge(x, y float64, layer int) (qx, qy float64, err error) {
	if err := m.checkLayer(layer); err != nil {
		return 0, 0, err
	}
	if !m.steadyDone {
		return 0, 0, &NotSolvedError{Op: "Discharge"}
	}
	for _, e := range m.elements {
		fx, fy := e.FixedDischarge(x, y)
		qx += fx[layer]
		qy += fy[layer]
		if e.NUnknowns() == 0 {
			continue
		}
		ix, iy := e.DischargeInfluence(x, y)
		str := e.Strengths()
		for u := range ix {
			qx += ix[u][layer] * str[u]
			qy += iy[u][layer] * str[u]
		}
	}
	return qx, qy, nil
}

// Leakage returns the steady vertical flux through each separating
// layer at (x, y), positive downward from aquifer i into aquifer i+1.
// The slice has Naq-1 entries.
func (m *Model) Leakage(x, y float64) ([]float64, error) {
	if !m.steadyDone {
		return nil, &NotSolvedError{Op: "Leakage"}
	}
	h := m.headAll(x, y)
	out := make([]float64, m.sys.Naq()-1)
	for i := range out {
		out[i] = (h[i] - h[i+1]) / m.sys.Resistance(i)
	}
	return out, nil
}

// TopLeakage returns the steady flux through the top resistance layer
// at (x, y), positive downward into the top aquifer. Confined systems
// have none.
func (m *Model) TopLeakage(x, y float64) (float64, error) {
	if m.sys.Top() != aquifer.SemiConfined {
		return 0, &aquifer.ConfigurationError{
			Item:   "query",
			Reason: "top leakage exists only in semi-confined systems",
		}
	}
	if !m.steadyDone {
		return 0, &NotSolvedError{Op: "TopLeakage"}
	}
	h := m.headAll(x, y)
	return (m.sys.HStar() - h[0]) / m.sys.TopResistance(), nil
}
