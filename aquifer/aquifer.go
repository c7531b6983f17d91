// Package aquifer describes a layered aquifer system and exposes the
// modal decomposition of its inter-layer leakage coupling that the
// analytic elements build their influence functions from.
//
// A system is an ordered stack of aquifer layers separated by leaky
// layers with a vertical resistance. Horizontal flow in the aquifers
// follows the Dupuit approximation; flow through the separating
// layers is purely vertical. The coupled layer equations decompose
// into independent modified-Helmholtz modes through the
// eigendecomposition of the (tridiagonal) coupling matrix; each mode
// carries a leakage factor that scales the Bessel kernels.
package aquifer

import (
	"fmt"
	"math/cmplx"
	"sync"
)

// TopBoundary selects the condition above the top aquifer.
type TopBoundary uint8

const (
	// Confined means no flow across the top of the system.
	Confined TopBoundary = iota
	// SemiConfined means the top aquifer leaks through a resistance
	// layer to a fixed outside head.
	SemiConfined
)

// ConfigurationError reports invalid construction input. Item names
// the offending layer, element, or parameter.
type ConfigurationError struct {
	Item   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Item, e.Reason)
}

// System is an immutable layered aquifer description. All fields are
// fixed at construction; the per-Laplace-parameter mode cache is the
// only internal mutable state and is safe for concurrent use.
type System struct {
	naq   int
	kaq   []float64 // hydraulic conductivity per aquifer
	haq   []float64 // saturated thickness per aquifer
	t     []float64 // transmissivity kaq*haq
	saq   []float64 // storage coefficient Ss*haq (zero for steady-only)
	c     []float64 // resistance between aquifer i and i+1
	ctop  float64   // top resistance (SemiConfined only)
	hstar float64   // fixed head above the top resistance
	top   TopBoundary
	z     []float64 // elevations: top0, bot0, top1, bot1, ...

	steady *Modes
	cache  sync.Map // complex128 -> *Modes
}

// NewConfined builds a confined system of len(kaq) aquifers.
// z holds top and bottom elevations per aquifer in descending order
// (2*n values); c holds the n-1 resistances between adjacent
// aquifers; ss holds the specific storage per aquifer and may be nil
// for steady-only models.
func NewConfined(kaq, z, c, ss []float64) (*System, error) {
	return newSystem(kaq, z, c, ss, Confined, 0, 0)
}

// NewSemiConfined builds a system whose top aquifer leaks through
// resistance ctop to a fixed outside head hstar. The remaining
// arguments match NewConfined.
func NewSemiConfined(kaq, z, c, ss []float64, ctop, hstar float64) (*System, error) {
	return newSystem(kaq, z, c, ss, SemiConfined, ctop, hstar)
}

func newSystem(kaq, z, c, ss []float64, top TopBoundary, ctop, hstar float64) (*System, error) {
	n := len(kaq)
	if n < 1 {
		return nil, &ConfigurationError{Item: "kaq", Reason: "at least one aquifer required"}
	}
	if len(z) != 2*n {
		return nil, &ConfigurationError{
			Item:   "z",
			Reason: fmt.Sprintf("need %d elevations for %d aquifers, got %d", 2*n, n, len(z)),
		}
	}
	if len(c) != n-1 {
		return nil, &ConfigurationError{
			Item:   "c",
			Reason: fmt.Sprintf("need %d resistances for %d aquifers, got %d", n-1, n, len(c)),
		}
	}
	if ss != nil && len(ss) != n {
		return nil, &ConfigurationError{
			Item:   "ss",
			Reason: fmt.Sprintf("need %d storage values, got %d", n, len(ss)),
		}
	}
	for i, k := range kaq {
		if k <= 0 {
			return nil, &ConfigurationError{
				Item:   fmt.Sprintf("aquifer %d", i),
				Reason: fmt.Sprintf("conductivity must be positive, got %g", k),
			}
		}
	}
	for i := 0; i < 2*n-1; i++ {
		if z[i] < z[i+1] {
			return nil, &ConfigurationError{Item: "z", Reason: "elevations must descend"}
		}
	}
	for i := 0; i < n; i++ {
		if z[2*i] == z[2*i+1] {
			return nil, &ConfigurationError{
				Item:   fmt.Sprintf("aquifer %d", i),
				Reason: "zero thickness",
			}
		}
	}
	for i, ci := range c {
		if ci <= 0 {
			return nil, &ConfigurationError{
				Item:   fmt.Sprintf("resistance %d", i),
				Reason: fmt.Sprintf("must be positive, got %g", ci),
			}
		}
	}
	if ss != nil {
		for i, s := range ss {
			if s < 0 {
				return nil, &ConfigurationError{
					Item:   fmt.Sprintf("aquifer %d", i),
					Reason: fmt.Sprintf("specific storage must be non-negative, got %g", s),
				}
			}
		}
	}
	if top == SemiConfined && ctop <= 0 {
		return nil, &ConfigurationError{
			Item:   "ctop",
			Reason: fmt.Sprintf("top resistance must be positive, got %g", ctop),
		}
	}

	s := &System{
		naq: n, top: top, ctop: ctop, hstar: hstar,
		kaq: append([]float64(nil), kaq...),
		z:   append([]float64(nil), z...),
		c:   append([]float64(nil), c...),
		haq: make([]float64, n),
		t:   make([]float64, n),
		saq: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.haq[i] = z[2*i] - z[2*i+1]
		s.t[i] = kaq[i] * s.haq[i]
		if ss != nil {
			s.saq[i] = ss[i] * s.haq[i]
		}
	}

	var err error
	s.steady, err = s.computeSteadyModes()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Naq returns the number of aquifer layers.
func (s *System) Naq() int { return s.naq }

// T returns the transmissivity of aquifer i.
func (s *System) T(i int) float64 { return s.t[i] }

// TotalT returns the sum of all transmissivities.
func (s *System) TotalT() float64 {
	var sum float64
	for _, t := range s.t {
		sum += t
	}
	return sum
}

// H returns the saturated thickness of aquifer i.
func (s *System) H(i int) float64 { return s.haq[i] }

// K returns the hydraulic conductivity of aquifer i.
func (s *System) K(i int) float64 { return s.kaq[i] }

// Storage returns the storage coefficient (Ss*H) of aquifer i.
func (s *System) Storage(i int) float64 { return s.saq[i] }

// Resistance returns the resistance between aquifers i and i+1.
func (s *System) Resistance(i int) float64 { return s.c[i] }

// Top returns the top boundary type.
func (s *System) Top() TopBoundary { return s.top }

// TopResistance returns the resistance of the top leaky layer for
// semi-confined systems.
func (s *System) TopResistance() float64 { return s.ctop }

// HStar returns the fixed head above a semi-confined system. It is
// the background head of the model; confined systems return zero and
// take their reference from a Constant element.
func (s *System) HStar() float64 {
	if s.top == SemiConfined {
		return s.hstar
	}
	return 0
}

// ValidLayer reports whether i indexes an aquifer layer.
func (s *System) ValidLayer(i int) bool { return i >= 0 && i < s.naq }

// coupling returns the tridiagonal coupling matrix A(p) with
// laplacian(h) = A h, as diagonal, sub- and super-diagonal slices.
// p is the Laplace parameter; p = 0 gives the steady matrix.
func (s *System) coupling(p complex128) (diag, sub, sup []complex128) {
	n := s.naq
	diag = make([]complex128, n)
	sub = make([]complex128, n)  // sub[i] = A[i][i-1], i >= 1
	sup = make([]complex128, n)  // sup[i] = A[i][i+1], i <= n-2
	for i := 0; i < n; i++ {
		var d float64
		if i > 0 {
			d += 1 / (s.c[i-1] * s.t[i])
			sub[i] = complex(-1/(s.c[i-1]*s.t[i]), 0)
		} else if s.top == SemiConfined {
			d += 1 / (s.ctop * s.t[0])
		}
		if i < n-1 {
			d += 1 / (s.c[i] * s.t[i])
			sup[i] = complex(-1/(s.c[i]*s.t[i]), 0)
		}
		diag[i] = complex(d, 0) + p*complex(s.saq[i]/s.t[i], 0)
	}
	return diag, sub, sup
}

// SteadyModes returns the steady-state modal decomposition.
func (s *System) SteadyModes() *Modes { return s.steady }

// ModesAt returns the modal decomposition of the coupling matrix at
// Laplace parameter p. Results are cached per parameter; the cache
// is the explicit scoped memoization shared by all elements during a
// transient solve.
func (s *System) ModesAt(p complex128) (*Modes, error) {
	if v, ok := s.cache.Load(p); ok {
		return v.(*Modes), nil
	}
	md, err := s.computeModesAt(p)
	if err != nil {
		return nil, err
	}
	actual, _ := s.cache.LoadOrStore(p, md)
	return actual.(*Modes), nil
}

// TransientReady reports whether the system carries the storage
// parameters a transient solve needs. Confined systems additionally
// need storage in every aquifer so the Laplace-domain coupling matrix
// stays nonsingular.
func (s *System) TransientReady() error {
	for i, sa := range s.saq {
		if sa <= 0 {
			return &ConfigurationError{
				Item:   fmt.Sprintf("aquifer %d", i),
				Reason: "transient solve requires positive specific storage in every aquifer",
			}
		}
	}
	return nil
}

// labFromVal converts a coupling-matrix eigenvalue to a leakage
// factor with positive real part.
func labFromVal(v complex128) complex128 {
	return 1 / cmplx.Sqrt(v)
}
