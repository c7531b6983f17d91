package kernels

// Eight-point Gauss-Legendre rule on [-1, 1]. Line-integral kernels
// apply it per subinterval after splitting at the projection of the
// field point, which keeps the smooth remainder integrands accurate
// close to the element.
var (
	gaussX = [8]float64{
		-0.9602898564975363, -0.7966664774136267,
		-0.5255324099163290, -0.1834346424956498,
		0.1834346424956498, 0.5255324099163290,
		0.7966664774136267, 0.9602898564975363,
	}
	gaussW = [8]float64{
		0.1012285362903763, 0.2223810344533745,
		0.3137066458778873, 0.3626837833783620,
		0.3626837833783620, 0.3137066458778873,
		0.2223810344533745, 0.1012285362903763,
	}
)

// integrate applies the 8-point rule to f over [a, b].
func integrate(f func(float64) complex128, a, b float64) complex128 {
	mid := 0.5 * (a + b)
	hw := 0.5 * (b - a)
	var sum complex128
	for i := range gaussX {
		sum += complex(gaussW[i], 0) * f(mid+hw*gaussX[i])
	}
	return complex(hw, 0) * sum
}

// breakpoints returns the panel boundaries for integrating a kernel
// along [-1, 1] in the segment's reference coordinate. The interval
// is split at s0 (the projection of the field point) when it falls
// inside, and each side is subdivided so no panel is longer than
// maxLen.
func breakpoints(s0 float64, split bool, maxLen float64) []float64 {
	pts := []float64{-1}
	if split && s0 > -1 && s0 < 1 {
		pts = append(pts, s0)
	}
	pts = append(pts, 1)

	out := []float64{pts[0]}
	for i := 1; i < len(pts); i++ {
		span := pts[i] - pts[i-1]
		n := 1
		if maxLen > 0 {
			n = int(span/maxLen) + 1
		}
		if n > 64 {
			n = 64
		}
		for k := 1; k <= n; k++ {
			out = append(out, pts[i-1]+span*float64(k)/float64(n))
		}
	}
	return out
}

// integratePanels integrates f over [-1, 1] using the panel layout
// from breakpoints.
func integratePanels(f func(float64) complex128, s0 float64, split bool, maxLen float64) complex128 {
	bp := breakpoints(s0, split, maxLen)
	var sum complex128
	for i := 1; i < len(bp); i++ {
		sum += integrate(f, bp[i-1], bp[i])
	}
	return sum
}
