package element

import (
	"github.com/gwaem/gwaem/aquifer"
)

// Constant fixes the head at a reference point in a confined system.
// A uniform head added to every layer solves the confined system
// exactly (the coupling matrix annihilates constants), so the element
// carries one unknown: the value of that uniform head. Without it a
// confined model with only discharge-specified elements is determined
// up to an arbitrary constant.
//
// Semi-confined systems take their reference from the fixed outside
// head instead and reject the element.
type Constant struct {
	label     string
	sys       *aquifer.System
	x, y      float64
	layer     int
	h         float64
	strengths []float64
}

// NewConstant returns a reference-head element: the head at (x, y) in
// the given layer equals h.
func NewConstant(sys *aquifer.System, label string, x, y, h float64, layer int) (*Constant, error) {
	if err := validateLayers(sys, label, []int{layer}); err != nil {
		return nil, err
	}
	if sys.Top() == aquifer.SemiConfined {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: "semi-confined systems fix their reference through the outside head",
		}
	}
	return &Constant{label: label, sys: sys, x: x, y: y, h: h, layer: layer}, nil
}

func (c *Constant) Label() string  { return c.label }
func (c *Constant) NUnknowns() int { return 1 }

func (c *Constant) Influence(x, y float64) [][]float64 {
	row := make([]float64, c.sys.Naq())
	for i := range row {
		row[i] = 1
	}
	return [][]float64{row}
}

func (c *Constant) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	return zeros(1, c.sys.Naq()), zeros(1, c.sys.Naq())
}

func (c *Constant) FixedHead(x, y float64) []float64 {
	return make([]float64, c.sys.Naq())
}

func (c *Constant) FixedDischarge(x, y float64) (qx, qy []float64) {
	return make([]float64, c.sys.Naq()), make([]float64, c.sys.Naq())
}

func (c *Constant) Equations(pr Probe) []Row {
	return []Row{{
		Coef: pr.HeadInf(c.x, c.y, c.layer),
		RHS:  c.h - pr.HeadFixed(c.x, c.y, c.layer),
	}}
}

func (c *Constant) SetStrengths(s []float64) { c.strengths = append([]float64(nil), s...) }
func (c *Constant) Strengths() []float64     { return c.strengths }
