package kernels

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values from Abramowitz & Stegun tables 9.8 and 9.11.
func TestBesselRealAxis(t *testing.T) {
	cases := []struct {
		name string
		f    func(complex128) complex128
		x    float64
		want float64
		tol  float64 // relative; the asymptotic branch bottoms out near 1e-9
	}{
		{"I0(1)", BesselI0, 1, 1.2660658777520084, 1e-12},
		{"I1(1)", BesselI1, 1, 0.5651591039924851, 1e-12},
		{"K0(1)", BesselK0, 1, 0.42102443824070834, 1e-12},
		{"K1(1)", BesselK1, 1, 0.6019072301972346, 1e-12},
		{"K0(0.1)", BesselK0, 0.1, 2.4270690247020166, 1e-12},
		{"I0(10)", BesselI0, 10, 2815.716628466254, 1e-8},
		{"K0(10)", BesselK0, 10, 1.778006231616765e-5, 1e-8},
		{"K1(10)", BesselK1, 10, 1.8648773453825585e-5, 1e-8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.f(complex(tc.x, 0))
			assert.InDelta(t, tc.want, real(got), math.Abs(tc.want)*tc.tol)
			assert.InDelta(t, 0, imag(got), math.Abs(tc.want)*tc.tol)
		})
	}
}

// The Wronskian I0(z) K1(z) + I1(z) K0(z) = 1/z holds everywhere and
// exercises both regimes of every function at once.
func TestBesselWronskian(t *testing.T) {
	zs := []complex128{
		0.05, 0.5, 2, 7.9, 8.1, 25,
		0.3 + 0.4i, 3 - 2i, 6 + 6i, 12 - 5i, 1e-3 + 1e-3i,
	}
	for _, z := range zs {
		w := BesselI0(z)*BesselK1(z) + BesselI1(z)*BesselK0(z)
		assert.InDelta(t, 0, cmplx.Abs(w-1/z), cmplx.Abs(1/z)*1e-6, "z=%v", z)
	}
}

func TestBesselScaledVariants(t *testing.T) {
	zs := []complex128{0.4, 3 + 1i, 9 - 2i, 30}
	for _, z := range zs {
		e := cmplx.Exp(z)
		assert.InDelta(t, 0, cmplx.Abs(BesselK0E(z)-BesselK0(z)*e),
			cmplx.Abs(BesselK0E(z))*1e-9, "K0E z=%v", z)
		assert.InDelta(t, 0, cmplx.Abs(BesselI0E(z)-BesselI0(z)/e),
			cmplx.Abs(BesselI0E(z))*1e-9, "I0E z=%v", z)
		assert.InDelta(t, 0, cmplx.Abs(BesselK1E(z)-BesselK1(z)*e),
			cmplx.Abs(BesselK1E(z))*1e-9, "K1E z=%v", z)
		assert.InDelta(t, 0, cmplx.Abs(BesselI1E(z)-BesselI1(z)/e),
			cmplx.Abs(BesselI1E(z))*1e-9, "I1E z=%v", z)
	}
}

// The remainder K0(r/lab) + ln(r/(2 lab)) + gamma vanishes as r -> 0;
// that limit is what makes the log/Bessel kernel split work.
func TestK0RemainderSmallArgument(t *testing.T) {
	lab := complex(40, 10)
	prev := cmplx.Abs(k0Remainder(1, lab))
	for _, r := range []float64{0.1, 0.01, 0.001} {
		cur := cmplx.Abs(k0Remainder(r, lab))
		assert.Less(t, cur, prev, "r=%g", r)
		prev = cur
	}
	assert.Less(t, cmplx.Abs(k0Remainder(1e-3, lab)), 1e-7)
}

func TestK1RemainderSmallArgument(t *testing.T) {
	lab := complex(25, -5)
	assert.Less(t, cmplx.Abs(k1Remainder(1e-3, lab)), 1e-4)
}

func TestGaussQuadrature(t *testing.T) {
	// 8-point Gauss integrates polynomials of degree 15 exactly.
	got := integrate(func(s float64) complex128 {
		return complex(math.Pow(s, 15)+3*s*s, 0)
	}, -1, 1)
	assert.InDelta(t, 2.0, real(got), 1e-13)

	// Panel subdivision handles an integrand peaked at the split.
	f := func(s float64) complex128 { return complex(1/(0.01+s*s), 0) }
	want := 2 * math.Atan(10) * 10
	got = integratePanels(f, 0, true, 0.05)
	require.InDelta(t, want, real(got), math.Abs(want)*1e-7)
}
