package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
	"github.com/gwaem/gwaem/kernels"
)

func confined1(t *testing.T) *aquifer.System {
	t.Helper()
	sys, err := aquifer.NewConfined([]float64{10}, []float64{20, 0}, nil, []float64{1e-4})
	require.NoError(t, err)
	return sys
}

func solveSteady(t *testing.T, m *Model) {
	t.Helper()
	require.NoError(t, m.Solve(context.Background()))
}

// Thiem: a single confined layer with one well and a reference head
// reproduces h(r) = h0 + Q ln(r/R) / (2 pi T) exactly.
func TestThiem(t *testing.T) {
	sys := confined1(t)
	const (
		q  = 1000.0
		h0 = 20.0
		rr = 1000.0 // reference radius
	)
	w, err := element.NewWell(sys, "well", 0, 0, 0.3, q, []int{0})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", rr, 0, h0, 0)
	require.NoError(t, err)

	m := New(sys)
	m.Add(w, rf)
	solveSteady(t, m)

	tt := sys.T(0)
	for _, r := range []float64{1, 5, 50, 400} {
		h, err := m.Head(0, -r, 0) // perpendicular to the reference direction
		require.NoError(t, err)
		want := h0 + q*math.Log(math.Hypot(0, r)/rr)/(2*math.Pi*tt)
		// The reference point sees the well at distance rr too, so the
		// closed form holds exactly along any ray.
		assert.InDelta(t, want, h, 1e-9, "r=%g", r)
	}

	// Discharge through a circle around the well balances the pumping.
	qx, _, err := m.Discharge(10, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -q/(2*math.Pi*10), qx, 1e-9, "radial flow toward the well")
}

// Superposing two solved single-well models matches the solution of
// the combined model.
func TestSuperposition(t *testing.T) {
	mk := func(wells ...element.Element) *Model {
		m := New(confined1(t))
		m.Add(wells...)
		solveSteady(t, m)
		return m
	}
	w1 := func() element.Element {
		w, err := element.NewWell(confined1(t), "w1", -30, 0, 0.3, 400, []int{0})
		require.NoError(t, err)
		return w
	}
	w2 := func() element.Element {
		w, err := element.NewWell(confined1(t), "w2", 30, 40, 0.3, -250, []int{0})
		require.NoError(t, err)
		return w
	}

	ma := mk(w1())
	mb := mk(w2())
	mc := mk(w1(), w2())

	for _, pt := range [][2]float64{{0, 0}, {15, -20}, {-100, 60}} {
		ha, err := ma.Head(pt[0], pt[1], 0)
		require.NoError(t, err)
		hb, err := mb.Head(pt[0], pt[1], 0)
		require.NoError(t, err)
		hc, err := mc.Head(pt[0], pt[1], 0)
		require.NoError(t, err)
		assert.InDelta(t, ha+hb, hc, 1e-12, "at %v", pt)
	}
}

// The solved river satisfies its head condition at every control
// point.
func TestRiverBoundaryCondition(t *testing.T) {
	sys := confined1(t)
	w, err := element.NewWell(sys, "well", 0, 0, 0.3, 1000, []int{0})
	require.NoError(t, err)
	river, err := element.NewHeadLineSinkString(sys, "river",
		[][2]float64{{50, -200}, {50, -50}, {50, 50}, {50, 200}}, 0, []int{0})
	require.NoError(t, err)

	m := New(sys)
	m.Add(w, river)
	solveSteady(t, m)

	for i := 0; i < river.NSegments(); i++ {
		cx, cy := river.ControlPoint(i)
		h, err := m.Head(cx, cy, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0, h, 1e-9, "segment %d", i)
	}

	// Heads drop monotonically from the river toward the well.
	prev := math.Inf(1)
	for _, x := range []float64{40, 20, 10, 5, 1} {
		h, err := m.Head(x, 0, 0)
		require.NoError(t, err)
		assert.Less(t, h, prev, "x=%g", x)
		prev = h
	}
}

// The solved leaky wall satisfies Darcy's law across it: the normal
// discharge equals the head difference over the resistance times the
// wall height.
func TestLeakyWallDarcy(t *testing.T) {
	sys := confined1(t)
	w, err := element.NewWell(sys, "well", -50, 0, 0.3, 500, []int{0})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 1000, 0, 20, 0)
	require.NoError(t, err)
	const res = 100.0
	wall, err := element.NewLeakyLineDoubletString(sys, "wall",
		[][2]float64{{0, -100}, {0, 0}, {0, 100}}, res, []int{0})
	require.NoError(t, err)

	m := New(sys)
	m.Add(w, rf, wall)
	solveSteady(t, m)

	for i := 0; i < wall.NSegments(); i++ {
		xp, yp, xm, ym := wall.ControlPoints(i)
		qx, _, err := m.Discharge(xp, yp, 0)
		require.NoError(t, err)
		// Segments run in +y, so the left normal points in -x.
		qn := -qx
		hp, err := m.Head(xp, yp, 0)
		require.NoError(t, err)
		hm, err := m.Head(xm, ym, 0)
		require.NoError(t, err)
		assert.InDelta(t, sys.H(0)*(hm-hp)/res, qn, 1e-8, "segment %d", i)
	}

	// An impermeable wall blocks the normal flow instead.
	sys2 := confined1(t)
	w2, err := element.NewWell(sys2, "well", -50, 0, 0.3, 500, []int{0})
	require.NoError(t, err)
	rf2, err := element.NewConstant(sys2, "ref", 1000, 0, 20, 0)
	require.NoError(t, err)
	imp, err := element.NewImpLineDoublet(sys2, "wall", 0, -100, 0, 100, []int{0})
	require.NoError(t, err)
	m2 := New(sys2)
	m2.Add(w2, rf2, imp)
	solveSteady(t, m2)
	xp, yp, _, _ := imp.ControlPoints(0)
	qx, _, err := m2.Discharge(xp, yp, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, qx, 1e-8)
}

// Solving an unchanged model again reproduces the identical heads.
func TestSolveIdempotent(t *testing.T) {
	sys := confined1(t)
	w, err := element.NewHeadWell(sys, "hw", 0, 0, 0.3, 15, []int{0})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 500, 0, 20, 0)
	require.NoError(t, err)
	m := New(sys)
	m.Add(w, rf)

	solveSteady(t, m)
	h1, err := m.Head(33, 7, 0)
	require.NoError(t, err)
	s1 := append([]float64(nil), w.Strengths()...)

	solveSteady(t, m)
	h2, err := m.Head(33, 7, 0)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "bit-identical heads")
	assert.Equal(t, s1, w.Strengths(), "bit-identical strengths")
}

func TestQueriesBeforeSolve(t *testing.T) {
	sys := confined1(t)
	m := New(sys)
	var ns *NotSolvedError

	_, err := m.Head(0, 0, 0)
	require.ErrorAs(t, err, &ns)
	_, err = m.HeadAll(0, 0)
	require.ErrorAs(t, err, &ns)
	_, _, err = m.Discharge(0, 0, 0)
	require.ErrorAs(t, err, &ns)
	_, err = m.HeadAtTimes(0, 0, 0)
	require.ErrorAs(t, err, &ns)

	// Adding an element invalidates an existing solution.
	solveSteady(t, m)
	_, err = m.Head(0, 0, 0)
	require.NoError(t, err)
	w, err := element.NewWell(sys, "w", 0, 0, 0.3, 10, []int{0})
	require.NoError(t, err)
	m.Add(w)
	_, err = m.Head(0, 0, 0)
	require.ErrorAs(t, err, &ns)

	_, err = m.Head(0, 0, 9)
	var cfg *aquifer.ConfigurationError
	require.ErrorAs(t, err, &cfg, "bad layer")
}

// Theis: the inverted transient drawdown of a confined well matches
// the exponential-integral solution.
func TestTheis(t *testing.T) {
	sys := confined1(t)
	const q = 1000.0
	w, err := element.NewWell(sys, "well", 0, 0, 0.3, q, []int{0})
	require.NoError(t, err)

	m := New(sys)
	m.Add(w)
	times := []float64{1, 2, 5}
	require.NoError(t, m.SolveTransient(context.Background(), times))

	// E1 by series, accurate for the small arguments used here.
	e1 := func(u float64) float64 {
		s := -0.5772156649015329 - math.Log(u)
		term := 1.0
		for k := 1; k < 30; k++ {
			term *= -u / float64(k)
			s -= term / float64(k)
		}
		return s
	}

	r := 10.0
	heads, err := m.HeadAtTimes(r, 0, 0)
	require.NoError(t, err)
	tt, ss := sys.T(0), sys.Storage(0)
	for i, tm := range times {
		u := r * r * ss / (4 * tt * tm)
		want := -q / (4 * math.Pi * tt) * e1(u)
		assert.InDelta(t, want, heads[i], math.Abs(want)*1e-5, "t=%g", tm)
	}
}

// A semi-confined transient solution approaches the steady solution
// of the same model at late time.
func TestTransientApproachesSteady(t *testing.T) {
	mk := func() (*aquifer.System, *Model) {
		sys, err := aquifer.NewSemiConfined(
			[]float64{10}, []float64{20, 0}, nil, []float64{1e-4}, 500, 12)
		require.NoError(t, err)
		w, err := element.NewWell(sys, "well", 0, 0, 0.3, 800, []int{0})
		require.NoError(t, err)
		m := New(sys)
		m.Add(w)
		return sys, m
	}

	_, steady := mk()
	solveSteady(t, steady)
	hs, err := steady.Head(50, 0, 0)
	require.NoError(t, err)

	_, trans := mk()
	// Time constant S c = 1; t = 900 is deep into steady state.
	require.NoError(t, trans.SolveTransient(context.Background(), []float64{900}))
	ht, err := trans.HeadAtTimes(50, 0, 0)
	require.NoError(t, err)

	drawdown := 12 - hs
	assert.InDelta(t, hs, ht[0], math.Abs(drawdown)*1e-4)

	// And the steady solution itself is De Glee.
	sys, _ := mk()
	lambda := math.Sqrt(sys.T(0) * 500)
	want := 12 - 800*real(kernels.BesselK0(complex(50/lambda, 0)))/(2*math.Pi*sys.T(0))
	assert.InDelta(t, want, hs, 1e-10)
}

// Transient boundary conditions hold in the Laplace domain: a
// head-specified well reaches its target head quickly and holds it.
func TestTransientHeadWell(t *testing.T) {
	sys, err := aquifer.NewConfined([]float64{10}, []float64{20, 0}, nil, []float64{1e-4})
	require.NoError(t, err)
	w, err := element.NewHeadWell(sys, "hw", 0, 0, 0.3, -2, []int{0})
	require.NoError(t, err)
	m := New(sys)
	m.Add(w)
	require.NoError(t, m.SolveTransient(context.Background(), []float64{10, 50}))

	cx, cy := w.ControlPoint()
	heads, err := m.HeadAtTimes(cx, cy, 0)
	require.NoError(t, err)
	for i, h := range heads {
		assert.InDelta(t, -2, h, 2e-3, "time index %d", i)
	}
}

func TestSolveTransientValidation(t *testing.T) {
	t.Run("needs storage", func(t *testing.T) {
		sys, err := aquifer.NewConfined([]float64{10}, []float64{20, 0}, nil, nil)
		require.NoError(t, err)
		m := New(sys)
		var cfg *aquifer.ConfigurationError
		require.ErrorAs(t, m.SolveTransient(context.Background(), []float64{1}), &cfg)
	})

	t.Run("rejects steady-only elements", func(t *testing.T) {
		sys := confined1(t)
		rf, err := element.NewConstant(sys, "ref", 0, 0, 20, 0)
		require.NoError(t, err)
		m := New(sys)
		m.Add(rf)
		var cfg *aquifer.ConfigurationError
		err = m.SolveTransient(context.Background(), []float64{1})
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "ref", cfg.Item)
	})

	t.Run("rejects nonpositive times", func(t *testing.T) {
		sys := confined1(t)
		m := New(sys)
		assert.Error(t, m.SolveTransient(context.Background(), []float64{0, 1}))
	})

	t.Run("cancellation", func(t *testing.T) {
		sys := confined1(t)
		w, err := element.NewWell(sys, "w", 0, 0, 0.3, 100, []int{0})
		require.NoError(t, err)
		m := New(sys)
		m.Add(w)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = m.SolveTransient(ctx, []float64{1, 10})
		require.ErrorIs(t, err, context.Canceled)
		_, err = m.HeadAtTimes(0, 0, 0)
		var ns *NotSolvedError
		require.ErrorAs(t, err, &ns, "aborted solve leaves no solution")
	})
}

// A ditch extracts its target total discharge at one common head
// over all control points.
func TestDitchString(t *testing.T) {
	t.Run("steady", func(t *testing.T) {
		sys := confined1(t)
		ditch, err := element.NewDitchString(sys, "ditch",
			[][2]float64{{0, 0}, {30, 0}, {30, 30}}, 600, []int{0})
		require.NoError(t, err)
		rf, err := element.NewConstant(sys, "ref", 500, 0, 20, 0)
		require.NoError(t, err)

		m := New(sys)
		m.Add(ditch, rf)
		solveSteady(t, m)

		assert.InDelta(t, 600, ditch.TotalDischarge(), 1e-8)

		cx0, cy0 := ditch.ControlPoint(0)
		cx1, cy1 := ditch.ControlPoint(1)
		h0, err := m.Head(cx0, cy0, 0)
		require.NoError(t, err)
		h1, err := m.Head(cx1, cy1, 0)
		require.NoError(t, err)
		assert.InDelta(t, h0, h1, 1e-9, "control points share the ditch head")
		assert.Less(t, h0, 20.0, "extraction lowers the head below the reference")
	})

	t.Run("transient", func(t *testing.T) {
		sys := confined1(t)
		ditch, err := element.NewDitchString(sys, "ditch",
			[][2]float64{{0, 0}, {30, 0}, {30, 30}}, 600, []int{0})
		require.NoError(t, err)
		m := New(sys)
		m.Add(ditch)
		require.NoError(t, m.SolveTransient(context.Background(), []float64{5, 20}))

		cx0, cy0 := ditch.ControlPoint(0)
		cx1, cy1 := ditch.ControlPoint(1)
		h0, err := m.HeadAtTimes(cx0, cy0, 0)
		require.NoError(t, err)
		h1, err := m.HeadAtTimes(cx1, cy1, 0)
		require.NoError(t, err)
		for i := range h0 {
			assert.InDelta(t, h0[i], h1[i], 1e-6, "time index %d", i)
		}
	})
}

// A well string distributes its total pumping so every screen shares
// one head.
func TestWellString(t *testing.T) {
	sys := confined1(t)
	ws, err := element.NewWellString(sys, "field",
		[][2]float64{{-40, 0}, {40, 0}}, 0.3, 1000, []int{0})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 0, 800, 20, 0)
	require.NoError(t, err)

	m := New(sys)
	m.Add(ws, rf)
	solveSteady(t, m)

	assert.InDelta(t, 1000, ws.Discharge(), 1e-8)
	// The layout is symmetric, so the pumping splits almost evenly;
	// the one-sided control points break the symmetry only slightly.
	assert.InDelta(t, 500, ws.WellDischarge(0), 2)

	cx0, cy0 := ws.ControlPoint(0)
	cx1, cy1 := ws.ControlPoint(1)
	h0, err := m.Head(cx0, cy0, 0)
	require.NoError(t, err)
	h1, err := m.Head(cx1, cy1, 0)
	require.NoError(t, err)
	assert.InDelta(t, h0, h1, 1e-9, "screens share the string head")
}

// Transient leakage queries are consistent with the inverted heads
// and approach their steady counterparts at late time.
func TestTransientLeakage(t *testing.T) {
	t.Run("between layers", func(t *testing.T) {
		sys, err := aquifer.NewConfined(
			[]float64{10, 40},
			[]float64{0, -10, -12, -22},
			[]float64{300},
			[]float64{1e-4, 1e-4},
		)
		require.NoError(t, err)
		w, err := element.NewWell(sys, "well", 0, 0, 0.3, 1000, []int{0})
		require.NoError(t, err)
		m := New(sys)
		m.Add(w)
		times := []float64{1, 5, 20}
		require.NoError(t, m.SolveTransient(context.Background(), times))

		h0, err := m.HeadAtTimes(40, 0, 0)
		require.NoError(t, err)
		h1, err := m.HeadAtTimes(40, 0, 1)
		require.NoError(t, err)
		lk, err := m.LeakageAtTimes(40, 0, 0)
		require.NoError(t, err)
		for i := range times {
			want := (h0[i] - h1[i]) / 300
			assert.InDelta(t, want, lk[i], math.Abs(want)*1e-4+1e-12, "time index %d", i)
			// Pumping layer 0 draws water up from layer 1.
			assert.Less(t, lk[i], 0.0, "time index %d", i)
		}

		var cfg *aquifer.ConfigurationError
		_, err = m.LeakageAtTimes(40, 0, 1)
		require.ErrorAs(t, err, &cfg, "separator out of range")
	})

	t.Run("through the top", func(t *testing.T) {
		mk := func() *Model {
			sys, err := aquifer.NewSemiConfined(
				[]float64{10}, []float64{20, 0}, nil, []float64{1e-4}, 500, 12)
			require.NoError(t, err)
			w, err := element.NewWell(sys, "well", 0, 0, 0.3, 800, []int{0})
			require.NoError(t, err)
			m := New(sys)
			m.Add(w)
			return m
		}
		steady := mk()
		solveSteady(t, steady)
		want, err := steady.TopLeakage(50, 0)
		require.NoError(t, err)

		trans := mk()
		require.NoError(t, trans.SolveTransient(context.Background(), []float64{900}))
		got, err := trans.TopLeakageAtTimes(50, 0)
		require.NoError(t, err)
		assert.InDelta(t, want, got[0], math.Abs(want)*1e-4)

		var cfg *aquifer.ConfigurationError
		_, err = New(confined1(t)).TopLeakageAtTimes(0, 0)
		require.ErrorAs(t, err, &cfg, "confined system has no top leakage")
	})

	t.Run("before solve", func(t *testing.T) {
		sys, err := aquifer.NewConfined(
			[]float64{10, 40}, []float64{0, -10, -12, -22},
			[]float64{300}, []float64{1e-4, 1e-4})
		require.NoError(t, err)
		var ns *NotSolvedError
		_, err = New(sys).LeakageAtTimes(0, 0, 0)
		require.ErrorAs(t, err, &ns)
	})
}

// A multi-layer discharge well distributes its pumping so the
// screened layers share one head.
func TestMultiLayerWell(t *testing.T) {
	sys, err := aquifer.NewConfined(
		[]float64{10, 40},
		[]float64{0, -10, -12, -22},
		[]float64{300},
		[]float64{1e-4, 1e-4},
	)
	require.NoError(t, err)
	w, err := element.NewWell(sys, "well", 0, 0, 0.3, 1000, []int{0, 1})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 2000, 0, 30, 0)
	require.NoError(t, err)

	m := New(sys)
	m.Add(w, rf)
	solveSteady(t, m)

	assert.InDelta(t, 1000, w.Discharge(), 1e-8)

	cx, cy := w.ControlPoint()
	hh, err := m.HeadAll(cx, cy)
	require.NoError(t, err)
	assert.InDelta(t, hh[0], hh[1], 1e-9, "screened layers share the well head")

	// The higher-transmissivity layer carries most of the pumping.
	s := w.Strengths()
	assert.Greater(t, s[1], s[0])

	// Vertical leakage flows from the high-head to the low-head layer.
	lk, err := m.Leakage(500, 0)
	require.NoError(t, err)
	hh, err = m.HeadAll(500, 0)
	require.NoError(t, err)
	assert.Equal(t, hh[0] > hh[1], lk[0] > 0)
}
