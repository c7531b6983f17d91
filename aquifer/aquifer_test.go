package aquifer

import (
	"math"
	"math/cmplx"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeLayer(t *testing.T) *System {
	t.Helper()
	sys, err := NewConfined(
		[]float64{10, 20, 5},
		[]float64{0, -10, -12, -32, -35, -50},
		[]float64{500, 200},
		[]float64{1e-4, 2e-4, 1e-4},
	)
	require.NoError(t, err)
	return sys
}

func TestNewSystemValidation(t *testing.T) {
	ok := func() ([]float64, []float64, []float64, []float64) {
		return []float64{10, 20}, []float64{0, -10, -12, -30}, []float64{100}, []float64{1e-4, 1e-4}
	}

	cases := []struct {
		name string
		mod  func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64)
	}{
		{"no aquifers", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return nil, nil, nil, nil
		}},
		{"wrong elevation count", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, z[:3], c, ss
		}},
		{"ascending elevations", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, []float64{0, -10, -5, -30}, c, ss
		}},
		{"zero thickness", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, []float64{0, -10, -10, -10}, c, ss
		}},
		{"nonpositive conductivity", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return []float64{10, -1}, z, c, ss
		}},
		{"nonpositive resistance", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, z, []float64{0}, ss
		}},
		{"wrong resistance count", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, z, []float64{100, 100}, ss
		}},
		{"negative storage", func(kaq, z, c, ss []float64) ([]float64, []float64, []float64, []float64) {
			return kaq, z, c, []float64{1e-4, -1e-4}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfined(tc.mod(ok()))
			var cfg *ConfigurationError
			require.ErrorAs(t, err, &cfg)
		})
	}

	t.Run("semi-confined needs positive top resistance", func(t *testing.T) {
		kaq, z, c, ss := ok()
		_, err := NewSemiConfined(kaq, z, c, ss, 0, 5)
		var cfg *ConfigurationError
		require.ErrorAs(t, err, &cfg)
	})

	t.Run("nil storage means steady only", func(t *testing.T) {
		kaq, z, c, _ := ok()
		sys, err := NewConfined(kaq, z, c, nil)
		require.NoError(t, err)
		assert.Error(t, sys.TransientReady())
	})
}

func TestDerivedProperties(t *testing.T) {
	sys := threeLayer(t)
	assert.Equal(t, 3, sys.Naq())
	assert.InDelta(t, 100, sys.T(0), 1e-12) // 10 * 10
	assert.InDelta(t, 400, sys.T(1), 1e-12) // 20 * 20
	assert.InDelta(t, 75, sys.T(2), 1e-12)  // 5 * 15
	assert.InDelta(t, 575, sys.TotalT(), 1e-12)
	assert.InDelta(t, 10*1e-4, sys.Storage(0), 1e-15)
	assert.True(t, sys.ValidLayer(2))
	assert.False(t, sys.ValidLayer(3))
	assert.NoError(t, sys.TransientReady())
}

// residual returns ||A v - val v|| for the steady coupling matrix.
func residual(sys *System, val complex128, v []complex128, p complex128) float64 {
	diag, sub, sup := sys.coupling(p)
	n := len(diag)
	var worst float64
	for i := 0; i < n; i++ {
		r := diag[i] * v[i]
		if i > 0 {
			r += sub[i] * v[i-1]
		}
		if i < n-1 {
			r += sup[i] * v[i+1]
		}
		r -= val * v[i]
		if a := cmplx.Abs(r); a > worst {
			worst = a
		}
	}
	return worst
}

func TestSteadyModes(t *testing.T) {
	sys := threeLayer(t)
	md := sys.SteadyModes()
	require.Equal(t, 3, md.Naq)

	// Confined: exactly one zero mode, first in order.
	assert.True(t, md.Zero[0])
	assert.False(t, md.Zero[1])
	assert.False(t, md.Zero[2])

	// Uniform vector spans the zero mode: row sums of A vanish.
	for m := 1; m < 3; m++ {
		assert.Greater(t, real(md.Lab[m]), 0.0, "leakage factor must have positive real part")
		v := make([]complex128, 3)
		for i := range v {
			v[i] = md.Vec[i][m]
		}
		assert.Less(t, residual(sys, md.Vals[m], v, 0), 1e-12, "mode %d", m)
	}

	// Vec * Inv = identity.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s complex128
			for m := 0; m < 3; m++ {
				s += md.Vec[i][m] * md.Inv[m][j]
			}
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(s-want), 1e-10)
		}
	}
}

func TestSemiConfinedModes(t *testing.T) {
	sys, err := NewSemiConfined(
		[]float64{10}, []float64{20, 0}, nil, nil, 1000, 5)
	require.NoError(t, err)
	md := sys.SteadyModes()
	// Leaky top removes the zero mode: lambda = sqrt(T ctop).
	require.False(t, md.Zero[0])
	assert.InDelta(t, math.Sqrt(200*1000), real(md.Lab[0]), 1e-9)
	assert.InDelta(t, 5, sys.HStar(), 0)
}

func TestModesAt(t *testing.T) {
	sys := threeLayer(t)
	p := complex(0.8, 2.5)

	md, err := sys.ModesAt(p)
	require.NoError(t, err)

	// Laplace parameter shifts every eigenvalue off zero.
	for m := 0; m < 3; m++ {
		assert.False(t, md.Zero[m])
		assert.Greater(t, real(md.Lab[m]), 0.0)
		v := make([]complex128, 3)
		for i := range v {
			v[i] = md.Vec[i][m]
		}
		assert.Less(t, residual(sys, md.Vals[m], v, p), 1e-10, "mode %d", m)
	}

	t.Run("cache returns the same decomposition", func(t *testing.T) {
		again, err := sys.ModesAt(p)
		require.NoError(t, err)
		assert.Same(t, md, again)
	})

	t.Run("concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for k := 0; k < 8; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				q := complex(0.1*float64(k+1), 1.5)
				if _, err := sys.ModesAt(q); err != nil {
					t.Error(err)
				}
			}(k)
		}
		wg.Wait()
	})
}

func TestSingleLayerTransientMode(t *testing.T) {
	sys, err := NewConfined([]float64{10}, []float64{20, 0}, nil, []float64{1e-4})
	require.NoError(t, err)
	p := complex(2, 1)
	md, err := sys.ModesAt(p)
	require.NoError(t, err)
	// One layer: eigenvalue p S / T directly.
	want := p * complex(sys.Storage(0)/sys.T(0), 0)
	assert.InDelta(t, 0, cmplx.Abs(md.Vals[0]-want), cmplx.Abs(want)*1e-12)
	assert.InDelta(t, 0, cmplx.Abs(md.Lab[0]-1/cmplx.Sqrt(want)), cmplx.Abs(md.Lab[0])*1e-12)
}

func TestCharPolyRoots(t *testing.T) {
	// Known real symmetric tridiagonal: diag 2, off -1, n=4 has
	// eigenvalues 2 - 2 cos(k pi / 5).
	diag := []complex128{2, 2, 2, 2}
	off := []complex128{-1, -1, -1, -1}
	vals, err := tridiagEigenvalues(diag, off, off)
	require.NoError(t, err)
	require.Len(t, vals, 4)

	want := make([]float64, 4)
	for k := 1; k <= 4; k++ {
		want[k-1] = 2 - 2*math.Cos(float64(k)*math.Pi/5)
	}
	for _, w := range want {
		found := false
		for _, v := range vals {
			if cmplx.Abs(v-complex(w, 0)) < 1e-9 {
				found = true
				break
			}
		}
		assert.True(t, found, "eigenvalue %g not found", w)
	}
}
