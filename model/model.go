// Package model ties an aquifer system and its analytic elements into
// a solvable groundwater flow model: steady state directly, transient
// through Laplace-domain solves followed by numerical inversion.
package model

import (
	"context"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
	"github.com/gwaem/gwaem/solve"
)

// Model owns the element list and the solution state. It is not safe
// for concurrent mutation; queries after a solve are read-only and may
// run concurrently.
type Model struct {
	sys      *aquifer.System
	elements []element.Element

	assembled  *solve.System
	steadyDone bool
	trans      *transientSolution

	maxCond float64
}

// New returns an empty model over the given aquifer system.
func New(sys *aquifer.System) *Model {
	return &Model{sys: sys}
}

// System returns the aquifer system the model solves on.
func (m *Model) System() *aquifer.System { return m.sys }

// Add appends elements to the model and invalidates any existing
// solutions.
func (m *Model) Add(elems ...element.Element) {
	m.elements = append(m.elements, elems...)
	m.assembled = nil
	m.steadyDone = false
	m.trans = nil
}

// Elements returns the element list in insertion order.
func (m *Model) Elements() []element.Element { return m.elements }

// SetMaxCond overrides the condition-number limit used to flag
// singular systems. Zero restores the default.
func (m *Model) SetMaxCond(c float64) { m.maxCond = c }

func (m *Model) system() *solve.System {
	if m.assembled == nil {
		m.assembled = solve.NewSystem(m.elements)
	}
	return m.assembled
}

// Solve assembles and solves the steady-state system. Solving an
// unchanged model again reproduces the identical solution: assembly
// order and elimination are deterministic.
func (m *Model) Solve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.system().SolveSteady(m.maxCond); err != nil {
		return err
	}
	m.steadyDone = true
	return nil
}
