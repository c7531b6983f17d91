package model

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
	"github.com/gwaem/gwaem/laplace"
)

// transientSolution holds the Laplace-domain strength columns, one
// per transform parameter per decade window.
type transientSolution struct {
	times   []float64
	windows []*laplace.Window
	sols    [][][]complex128 // [window][param] -> strength column
}

// Times returns the observation times of the last transient solve,
// nil before one.
func (m *Model) Times() []float64 {
	if m.trans == nil {
		return nil
	}
	return m.trans.times
}

// SolveTransient solves the model in the Laplace domain at every
// transform parameter of every decade window spanned by times. The
// per-parameter systems are independent and solved in parallel;
// cancellation of ctx aborts the remaining solves.
//
// Boundary-condition targets are steps switched on at t = 0 and the
// initial head equals the background head everywhere.
func (m *Model) SolveTransient(ctx context.Context, times []float64) error {
	if err := m.sys.TransientReady(); err != nil {
		return err
	}
	for _, e := range m.elements {
		if _, ok := e.(element.TransientElement); !ok {
			return &aquifer.ConfigurationError{
				Item:   e.Label(),
				Reason: "element does not support transient solves",
			}
		}
	}
	windows, err := laplace.Partition(times, 0, 0)
	if err != nil {
		return &aquifer.ConfigurationError{Item: "times", Reason: err.Error()}
	}

	s := m.system()
	tr := &transientSolution{
		times:   append([]float64(nil), times...),
		windows: windows,
		sols:    make([][][]complex128, len(windows)),
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for wi, w := range windows {
		wi := wi
		tr.sols[wi] = make([][]complex128, len(w.Params))
		for k, p := range w.Params {
			k, p := k, p
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Surface eigendecomposition failures here; element
				// influence methods cannot report them.
				if _, err := m.sys.ModesAt(p); err != nil {
					return err
				}
				sol, err := s.SolveLaplace(p, m.maxCond)
				if err != nil {
					return err
				}
				tr.sols[wi][k] = sol
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.trans = tr
	return nil
}

// invertWindows runs hat, which evaluates a transformed field value
// at one parameter of one window, through the inverse transform and
// scatters the results over the solved times.
func (m *Model) invertWindows(hat func(wi, k int, p complex128) complex128) ([]float64, error) {
	tr := m.trans
	out := make([]float64, len(tr.times))
	var worst *laplace.AccuracyWarning
	for wi, w := range tr.windows {
		fp := make([]complex128, len(w.Params))
		for k, p := range w.Params {
			fp[k] = hat(wi, k, p)
		}
		vals, err := w.Invert(fp, w.Times)
		if err != nil {
			var aw *laplace.AccuracyWarning
			if !errors.As(err, &aw) {
				return nil, err
			}
			if worst == nil || aw.RelDiff > worst.RelDiff {
				worst = aw
			}
		}
		for j, idx := range w.Index {
			out[idx] = vals[j]
		}
	}
	if worst != nil {
		return out, worst
	}
	return out, nil
}

// HeadAtTimes returns the head at (x, y) in a layer at every time of
// the last transient solve, in the order the times were given. A
// returned *laplace.AccuracyWarning still carries usable values.
func (m *Model) HeadAtTimes(x, y float64, layer int) ([]float64, error) {
	if err := m.checkLayer(layer); err != nil {
		return nil, err
	}
	if m.trans == nil {
		return nil, &NotSolvedError{Op: "HeadAtTimes"}
	}
	s := m.system()
	vals, err := m.invertWindows(func(wi, k int, p complex128) complex128 {
		return s.LaplaceHead(p, m.trans.sols[wi][k], x, y, layer)
	})
	if vals != nil {
		for i := range vals {
			vals[i] += m.sys.HStar()
		}
	}
	return vals, err
}

// LeakageAtTimes returns the vertical flux through separating layer
// between, positive downward from aquifer between into between+1, at
// (x, y) at every time of the last transient solve. The uniform
// background head cancels in the head difference.
func (m *Model) LeakageAtTimes(x, y float64, between int) ([]float64, error) {
	if between < 0 || between >= m.sys.Naq()-1 {
		return nil, &aquifer.ConfigurationError{
			Item:   "query",
			Reason: fmt.Sprintf("separator %d outside system with %d aquifers", between, m.sys.Naq()),
		}
	}
	if m.trans == nil {
		return nil, &NotSolvedError{Op: "LeakageAtTimes"}
	}
	s := m.system()
	c := complex(m.sys.Resistance(between), 0)
	return m.invertWindows(func(wi, k int, p complex128) complex128 {
		sol := m.trans.sols[wi][k]
		return (s.LaplaceHead(p, sol, x, y, between) -
			s.LaplaceHead(p, sol, x, y, between+1)) / c
	})
}

// TopLeakageAtTimes returns the flux through the top resistance layer
// at (x, y), positive downward into the top aquifer, at every time of
// the last transient solve. Confined systems have none.
func (m *Model) TopLeakageAtTimes(x, y float64) ([]float64, error) {
	if m.sys.Top() != aquifer.SemiConfined {
		return nil, &aquifer.ConfigurationError{
			Item:   "query",
			Reason: "top leakage exists only in semi-confined systems",
		}
	}
	if m.trans == nil {
		return nil, &NotSolvedError{Op: "TopLeakageAtTimes"}
	}
	s := m.system()
	ctop := complex(m.sys.TopResistance(), 0)
	// Transformed heads are drawdowns relative to the outside head, so
	// the flux is minus the drawdown over the resistance.
	return m.invertWindows(func(wi, k int, p complex128) complex128 {
		return -s.LaplaceHead(p, m.trans.sols[wi][k], x, y, 0) / ctop
	})
}

// DischargeAtTimes returns the layer discharge vector at (x, y) at
// every time of the last transient solve.
func (m *Model) DischargeAtTimes(x, y float64, layer int) (qx, qy []float64, err error) {
	if err := m.checkLayer(layer); err != nil {
		return nil, nil, err
	}
	if m.trans == nil {
		return nil, nil, &NotSolvedError{Op: "DischargeAtTimes"}
	}
	s := m.system()
	qx, errx := m.invertWindows(func(wi, k int, p complex128) complex128 {
		v, _ := s.LaplaceDischarge(p, m.trans.sols[wi][k], x, y, layer)
		return v
	})
	if qx == nil {
		return nil, nil, errx
	}
	qy, erry := m.invertWindows(func(wi, k int, p complex128) complex128 {
		_, v := s.LaplaceDischarge(p, m.trans.sols[wi][k], x, y, layer)
		return v
	})
	if qy == nil {
		return nil, nil, erry
	}
	if errx != nil {
		return qx, qy, errx
	}
	return qx, qy, erry
}
