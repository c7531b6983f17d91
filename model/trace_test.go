package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwaem/gwaem/aquifer"
	"github.com/gwaem/gwaem/element"
)

// In uniform flow the streamline is a straight line and the travel
// time is distance over the seepage velocity.
func TestTraceUniformFlow(t *testing.T) {
	sys := confined1(t)
	uf, err := element.NewUflow(sys, "uflow", 1e-3, 0)
	require.NoError(t, err)
	m := New(sys)
	m.Add(uf)
	solveSteady(t, m)

	const por = 0.25
	// q = T grad = 0.2; v = q / (por H) = 0.04
	v := sys.T(0) * 1e-3 / (por * sys.H(0))

	opt := TraceOptions{Step: 2, Porosity: por, MaxSteps: 5}
	tr, err := m.TraceLine(0, 0, 0, opt)
	require.NoError(t, err)
	require.Len(t, tr.Points, 6)
	assert.Equal(t, TraceMaxSteps, tr.Stop)

	last := tr.Points[len(tr.Points)-1]
	assert.InDelta(t, 10, last.X, 1e-9)
	assert.InDelta(t, 0, last.Y, 1e-9)
	assert.InDelta(t, 10/v, last.Time, 1e-9)

	t.Run("backward", func(t *testing.T) {
		back, err := m.TraceLine(0, 0, 0, TraceOptions{
			Step: 2, Porosity: por, MaxSteps: 5, Backward: true,
		})
		require.NoError(t, err)
		assert.InDelta(t, -10, back.Points[len(back.Points)-1].X, 1e-9)
	})

	t.Run("length budget", func(t *testing.T) {
		short, err := m.TraceLine(0, 0, 0, TraceOptions{
			Step: 2, Porosity: por, MaxDist: 6,
		})
		require.NoError(t, err)
		assert.Equal(t, TraceMaxDist, short.Stop)
		assert.InDelta(t, 6, short.Points[len(short.Points)-1].X, 1e-9)
	})

	t.Run("many starts", func(t *testing.T) {
		trs, err := m.TraceLines([][2]float64{{0, 0}, {0, 5}}, 0, opt)
		require.NoError(t, err)
		require.Len(t, trs, 2)
		assert.InDelta(t, 5, trs[1].Points[len(trs[1].Points)-1].Y, 1e-9)
	})
}

// A forward trace in a radial well field ends in the well.
func TestTraceCapturedByWell(t *testing.T) {
	sys := confined1(t)
	w, err := element.NewWell(sys, "well", 0, 0, 0.3, 1000, []int{0})
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 1000, 0, 20, 0)
	require.NoError(t, err)
	m := New(sys)
	m.Add(w, rf)
	solveSteady(t, m)

	tr, err := m.TraceLine(30, 0, 0, TraceOptions{Step: 1, MaxSteps: 100})
	require.NoError(t, err)
	assert.Equal(t, TraceCaptured, tr.Stop)
	assert.Equal(t, "well", tr.Element)

	last := tr.Points[len(tr.Points)-1]
	assert.InDelta(t, 0, last.X, 1e-9)
	assert.InDelta(t, 0, last.Y, 1e-9)
	assert.Greater(t, last.Time, 0.0)

	// Travel times increase monotonically along the streamline.
	for i := 1; i < len(tr.Points); i++ {
		assert.Greater(t, tr.Points[i].Time, tr.Points[i-1].Time, "point %d", i)
	}
}

// A trace converging on an extracting line sink stops on the segment.
func TestTraceCapturedByLineSink(t *testing.T) {
	sys := confined1(t)
	ls, err := element.NewLineSink(sys, "drain", 0, -50, 0, 50, 10, 0)
	require.NoError(t, err)
	rf, err := element.NewConstant(sys, "ref", 500, 0, 20, 0)
	require.NoError(t, err)
	m := New(sys)
	m.Add(ls, rf)
	solveSteady(t, m)

	tr, err := m.TraceLine(10, 0, 0, TraceOptions{Step: 1, MaxSteps: 200})
	require.NoError(t, err)
	assert.Equal(t, TraceCaptured, tr.Stop)
	assert.Equal(t, "drain", tr.Element)
	assert.InDelta(t, 0, tr.Points[len(tr.Points)-1].X, 1e-9, "ends on the segment")
}

func TestTraceValidation(t *testing.T) {
	sys := confined1(t)
	m := New(sys)

	var ns *NotSolvedError
	_, err := m.TraceLine(0, 0, 0, TraceOptions{Step: 1})
	require.ErrorAs(t, err, &ns)

	solveSteady(t, m)
	var cfg *aquifer.ConfigurationError
	_, err = m.TraceLine(0, 0, 0, TraceOptions{})
	require.ErrorAs(t, err, &cfg, "missing step")
	_, err = m.TraceLine(0, 0, 0, TraceOptions{Step: 1, Porosity: -0.1})
	require.ErrorAs(t, err, &cfg, "bad porosity")
	_, err = m.TraceLine(0, 0, 3, TraceOptions{Step: 1})
	require.ErrorAs(t, err, &cfg, "bad layer")

	// A start in stagnant water goes nowhere.
	tr, err := m.TraceLine(5, 5, 0, TraceOptions{Step: 1})
	require.NoError(t, err)
	assert.Equal(t, TraceStagnated, tr.Stop)
	require.Len(t, tr.Points, 1)
}
