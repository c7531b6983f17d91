package element

import (
	"math"

	"github.com/gwaem/gwaem/aquifer"
)

// Uflow adds a uniform background flow: the same head gradient in
// every layer, which solves the confined system exactly. The
// strength is given (gradient magnitude and direction), so the
// element carries no unknowns.
type Uflow struct {
	label    string
	sys      *aquifer.System
	grad     float64 // head gradient magnitude, positive down-gradient in +angle
	cos, sin float64
}

// NewUflow returns uniform flow with head gradient grad in the
// direction angle (radians, counterclockwise from +x). Heads decrease
// in the flow direction.
func NewUflow(sys *aquifer.System, label string, grad, angle float64) (*Uflow, error) {
	if sys.Top() == aquifer.SemiConfined {
		return nil, &aquifer.ConfigurationError{
			Item:   label,
			Reason: "uniform flow does not satisfy a semi-confined system",
		}
	}
	return &Uflow{
		label: label, sys: sys, grad: grad,
		cos: math.Cos(angle), sin: math.Sin(angle),
	}, nil
}

func (u *Uflow) Label() string  { return u.label }
func (u *Uflow) NUnknowns() int { return 0 }

func (u *Uflow) Influence(x, y float64) [][]float64 { return nil }
func (u *Uflow) DischargeInfluence(x, y float64) (qx, qy [][]float64) {
	return nil, nil
}

func (u *Uflow) FixedHead(x, y float64) []float64 {
	out := make([]float64, u.sys.Naq())
	v := -u.grad * (x*u.cos + y*u.sin)
	for i := range out {
		out[i] = v
	}
	return out
}

func (u *Uflow) FixedDischarge(x, y float64) (qx, qy []float64) {
	qx = make([]float64, u.sys.Naq())
	qy = make([]float64, u.sys.Naq())
	for i := range qx {
		qx[i] = u.sys.T(i) * u.grad * u.cos
		qy[i] = u.sys.T(i) * u.grad * u.sin
	}
	return qx, qy
}

func (u *Uflow) Equations(pr Probe) []Row { return nil }
func (u *Uflow) SetStrengths(s []float64) {}
func (u *Uflow) Strengths() []float64     { return nil }
