// Package element implements the analytic elements: features whose
// influence on head and flow has a closed-form or quadrature-evaluable
// expression, combined by superposition. Every element satisfies the
// Element capability interface; the assembler and the field evaluator
// depend only on that interface, never on concrete types, so new
// element kinds slot in without touching existing code.
//
// Influence matrices are indexed [unknown][aquifer]. Elements whose
// strengths are given (an extraction-specified line-sink, an area
// sink, uniform flow) report zero unknowns and contribute through the
// Fixed methods instead.
package element

import (
	"fmt"

	"github.com/gwaem/gwaem/aquifer"
)

// Row is one boundary-condition equation of the steady linear system:
// coefficients over all system unknowns and the right-hand side with
// fixed contributions already moved across.
type Row struct {
	Coef []float64
	RHS  float64
}

// CRow is the Laplace-domain counterpart of Row.
type CRow struct {
	Coef []complex128
	RHS  complex128
}

// Probe gives an element building its equations access to the
// superposed influence of the whole model at a control point. The
// assembler implements it; elements never see each other directly.
type Probe interface {
	// HeadInf returns the head influence of every system unknown at
	// (x, y) in the given layer, ordered by global column.
	HeadInf(x, y float64, layer int) []float64
	// HeadFixed returns the head contribution of all fixed-strength
	// parts at (x, y) in the given layer.
	HeadFixed(x, y float64, layer int) float64
	// DischargeInf returns the layer-discharge influence vectors of
	// every system unknown.
	DischargeInf(x, y float64, layer int) (qx, qy []float64)
	// DischargeFixed returns the fixed layer-discharge contribution.
	DischargeFixed(x, y float64, layer int) (qx, qy float64)
	// Columns returns the half-open global column range assigned to
	// the unknowns of e.
	Columns(e Element) (lo, hi int)
}

// LaplaceProbe is the complex-valued Probe used per Laplace
// parameter during a transient solve.
type LaplaceProbe interface {
	HeadInf(x, y float64, layer int) []complex128
	HeadFixed(x, y float64, layer int) complex128
	DischargeInf(x, y float64, layer int) (qx, qy []complex128)
	DischargeFixed(x, y float64, layer int) (qx, qy complex128)
	Columns(e Element) (lo, hi int)
}

// Element is the capability interface every analytic element
// implements for the steady solve.
type Element interface {
	// Label identifies the element in errors and diagnostics.
	Label() string
	// NUnknowns returns the number of strength parameters solved for.
	NUnknowns() int
	// Influence returns the head influence of a unit strength of each
	// unknown in every aquifer: [unknown][aquifer].
	Influence(x, y float64) [][]float64
	// DischargeInfluence returns the layer-discharge (depth
	// integrated, -T grad h) influence of each unknown.
	DischargeInfluence(x, y float64) (qx, qy [][]float64)
	// FixedHead returns the head contribution per aquifer of the
	// element's given-strength part.
	FixedHead(x, y float64) []float64
	// FixedDischarge returns the layer-discharge contribution of the
	// given-strength part.
	FixedDischarge(x, y float64) (qx, qy []float64)
	// Equations returns exactly NUnknowns boundary-condition rows.
	Equations(pr Probe) []Row
	// SetStrengths stores the solved strengths.
	SetStrengths(s []float64)
	// Strengths returns the solved strengths, nil before a solve.
	Strengths() []float64
}

// TransientElement is implemented by elements that can participate
// in a Laplace-domain solve. The boundary-condition targets are step
// functions switched on at t = 0, so fixed parts and right-hand
// sides carry the 1/p transform of the step.
type TransientElement interface {
	Element
	LaplaceInfluence(p complex128, x, y float64) [][]complex128
	LaplaceDischargeInfluence(p complex128, x, y float64) (qx, qy [][]complex128)
	LaplaceFixedHead(p complex128, x, y float64) []complex128
	LaplaceFixedDischarge(p complex128, x, y float64) (qx, qy []complex128)
	LaplaceEquations(pr LaplaceProbe, p complex128) []CRow
}

// validateLayers checks a screened-layer list against the system.
func validateLayers(sys *aquifer.System, label string, layers []int) error {
	if len(layers) == 0 {
		return &aquifer.ConfigurationError{Item: label, Reason: "no layers specified"}
	}
	seen := make(map[int]bool, len(layers))
	for _, l := range layers {
		if !sys.ValidLayer(l) {
			return &aquifer.ConfigurationError{
				Item:   label,
				Reason: fmt.Sprintf("layer %d outside system with %d aquifers", l, sys.Naq()),
			}
		}
		if seen[l] {
			return &aquifer.ConfigurationError{
				Item:   label,
				Reason: fmt.Sprintf("layer %d listed twice", l),
			}
		}
		seen[l] = true
	}
	return nil
}
