// Package kernels provides the special functions and line-integral
// kernels shared by all analytic elements: modified Bessel functions
// of complex argument, exact integrals of the logarithmic kernel
// along a segment, and quadrature of the smooth Bessel remainder.
//
// The modified Bessel functions use the ascending series for small
// arguments and the large-argument asymptotic expansion otherwise.
// Both are valid for the arguments that occur here: r/lambda with r
// a real distance and lambda a leakage factor with positive real
// part, so |arg z| stays well below pi/2.
package kernels

import (
	"math"
	"math/cmplx"
)

// EulerGamma is the Euler-Mascheroni constant.
const EulerGamma = 0.5772156649015328606

// seriesRadius is the |z| below which the ascending series is used.
const seriesRadius = 8.0

const seriesTerms = 40

// BesselI0 returns the modified Bessel function I0(z).
func BesselI0(z complex128) complex128 {
	return BesselI0E(z) * cmplx.Exp(z)
}

// BesselI1 returns the modified Bessel function I1(z).
func BesselI1(z complex128) complex128 {
	return BesselI1E(z) * cmplx.Exp(z)
}

// BesselK0 returns the modified Bessel function K0(z) for Re(z) > 0.
func BesselK0(z complex128) complex128 {
	return BesselK0E(z) * cmplx.Exp(-z)
}

// BesselK1 returns the modified Bessel function K1(z) for Re(z) > 0.
func BesselK1(z complex128) complex128 {
	return BesselK1E(z) * cmplx.Exp(-z)
}

// BesselI0E returns exp(-z)*I0(z). The scaled forms let callers
// combine I and K products without overflowing the intermediate
// exponentials.
func BesselI0E(z complex128) complex128 {
	if cmplx.Abs(z) <= seriesRadius {
		return i0Series(z) * cmplx.Exp(-z)
	}
	return iAsymptotic(z, 0)
}

// BesselI1E returns exp(-z)*I1(z).
func BesselI1E(z complex128) complex128 {
	if cmplx.Abs(z) <= seriesRadius {
		return i1Series(z) * cmplx.Exp(-z)
	}
	return iAsymptotic(z, 1)
}

// BesselK0E returns exp(z)*K0(z).
func BesselK0E(z complex128) complex128 {
	if cmplx.Abs(z) <= seriesRadius {
		return k0Series(z) * cmplx.Exp(z)
	}
	return kAsymptotic(z, 0)
}

// BesselK1E returns exp(z)*K1(z).
func BesselK1E(z complex128) complex128 {
	if cmplx.Abs(z) <= seriesRadius {
		return k1Series(z) * cmplx.Exp(z)
	}
	return kAsymptotic(z, 1)
}

func i0Series(z complex128) complex128 {
	q := z * z / 4
	term := complex(1, 0)
	sum := term
	for k := 1; k <= seriesTerms; k++ {
		term *= q / complex(float64(k)*float64(k), 0)
		sum += term
		if cmplx.Abs(term) < 1e-17*cmplx.Abs(sum) {
			break
		}
	}
	return sum
}

func i1Series(z complex128) complex128 {
	q := z * z / 4
	term := z / 2
	sum := term
	for k := 1; k <= seriesTerms; k++ {
		term *= q / complex(float64(k)*float64(k+1), 0)
		sum += term
		if cmplx.Abs(term) < 1e-17*cmplx.Abs(sum) {
			break
		}
	}
	return sum
}

// k0Series uses K0(z) = -(Log(z/2)+gamma) I0(z) + sum_{k>=1} H_k q^k/(k!)^2
// with q = z^2/4 and H_k the harmonic numbers.
func k0Series(z complex128) complex128 {
	q := z * z / 4
	sum := complex(0, 0)
	term := complex(1, 0)
	h := 0.0
	for k := 1; k <= seriesTerms; k++ {
		term *= q / complex(float64(k)*float64(k), 0)
		h += 1 / float64(k)
		t := complex(h, 0) * term
		sum += t
		if cmplx.Abs(t) < 1e-17*(cmplx.Abs(sum)+1e-300) {
			break
		}
	}
	return -(cmplx.Log(z/2)+complex(EulerGamma, 0))*i0Series(z) + sum
}

// k1Series uses
// K1(z) = 1/z + Log(z/2) I1(z)
//       - (z/4) sum_{k>=0} (psi(k+1)+psi(k+2)) q^k / (k!(k+1)!).
func k1Series(z complex128) complex128 {
	q := z * z / 4
	term := complex(1, 0) // q^k/(k!(k+1)!)
	psiA := -EulerGamma   // psi(k+1)
	psiB := 1 - EulerGamma
	sum := complex(psiA+psiB, 0)
	for k := 1; k <= seriesTerms; k++ {
		term *= q / complex(float64(k)*float64(k+1), 0)
		psiA += 1 / float64(k)
		psiB += 1 / float64(k+1)
		t := complex(psiA+psiB, 0) * term
		sum += t
		if cmplx.Abs(t) < 1e-17*(cmplx.Abs(sum)+1e-300) {
			break
		}
	}
	return 1/z + cmplx.Log(z/2)*i1Series(z) - z/4*sum
}

// kAsymptotic evaluates exp(z)*K_nu(z) from the large-argument
// expansion, truncating at the smallest term.
func kAsymptotic(z complex128, nu int) complex128 {
	mu := float64(4 * nu * nu)
	term := complex(1, 0)
	sum := term
	prev := math.Inf(1)
	for k := 1; k <= 20; k++ {
		f := (mu - float64((2*k-1)*(2*k-1))) / (8 * float64(k))
		term *= complex(f, 0) / z
		a := cmplx.Abs(term)
		if a > prev {
			break
		}
		prev = a
		sum += term
		if a < 1e-16*cmplx.Abs(sum) {
			break
		}
	}
	return cmplx.Sqrt(complex(math.Pi, 0)/(2*z)) * sum
}

// iAsymptotic evaluates exp(-z)*I_nu(z); the subdominant exponential
// is negligible for the arguments used here (Re z > 0, |z| > 8).
func iAsymptotic(z complex128, nu int) complex128 {
	mu := float64(4 * nu * nu)
	term := complex(1, 0)
	sum := term
	prev := math.Inf(1)
	for k := 1; k <= 20; k++ {
		f := -(mu - float64((2*k-1)*(2*k-1))) / (8 * float64(k))
		term *= complex(f, 0) / z
		a := cmplx.Abs(term)
		if a > prev {
			break
		}
		prev = a
		sum += term
		if a < 1e-16*cmplx.Abs(sum) {
			break
		}
	}
	return sum / cmplx.Sqrt(2*complex(math.Pi, 0)*z)
}

// k0Remainder returns K0(x/lab) + Log(x/(2 lab)) + gamma, the smooth
// part of K0 once the logarithmic singularity is removed. It tends to
// zero as x -> 0.
func k0Remainder(x float64, lab complex128) complex128 {
	if x == 0 {
		return 0
	}
	w := complex(x, 0) / lab
	return BesselK0(w) + cmplx.Log(w/2) + complex(EulerGamma, 0)
}

// k1Remainder returns 1/x - K1(x/lab)/lab, the smooth part of the
// radial derivative kernel. It tends to zero as x -> 0.
func k1Remainder(x float64, lab complex128) complex128 {
	if x == 0 {
		return 0
	}
	w := complex(x, 0) / lab
	return complex(1/x, 0) - BesselK1(w)/lab
}
