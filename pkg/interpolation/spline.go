package interpolation

import "math"

// splinePole is the single pole of the cubic B-spline prefilter
var splinePole = math.Sqrt(3) - 2

// prefilterTolerance bounds the truncation error of the causal initialisation
const prefilterTolerance = 1e-10

// splineSampler evaluates a cubic B-spline whose coefficients were
// prefiltered so that the spline passes through every voxel value.
type splineSampler struct {
	grid
	coeffs grid
}

func (s *splineSampler) Method() Method { return Spline }

// newSplineSampler converts the samples to B-spline coefficients by running
// the recursive prefilter along each axis in turn.
func newSplineSampler(g grid) *splineSampler {
	c := make([]float64, len(g.data))
	copy(c, g.data)

	line := make([]float64, max(g.nx, g.ny, g.nz))

	// x lines are contiguous
	for z := 0; z < g.nz; z++ {
		for y := 0; y < g.ny; y++ {
			off := z*g.nx*g.ny + y*g.nx
			prefilterLine(c[off : off+g.nx])
		}
	}
	// y lines
	for z := 0; z < g.nz; z++ {
		for x := 0; x < g.nx; x++ {
			l := line[:g.ny]
			for y := range l {
				l[y] = c[z*g.nx*g.ny+y*g.nx+x]
			}
			prefilterLine(l)
			for y := range l {
				c[z*g.nx*g.ny+y*g.nx+x] = l[y]
			}
		}
	}
	// z lines
	for y := 0; y < g.ny; y++ {
		for x := 0; x < g.nx; x++ {
			l := line[:g.nz]
			for z := range l {
				l[z] = c[z*g.nx*g.ny+y*g.nx+x]
			}
			prefilterLine(l)
			for z := range l {
				c[z*g.nx*g.ny+y*g.nx+x] = l[z]
			}
		}
	}

	return &splineSampler{
		grid:   g,
		coeffs: grid{data: c, nx: g.nx, ny: g.ny, nz: g.nz},
	}
}

// prefilterLine converts samples to cubic B-spline coefficients in place
// using a causal and an anti-causal first-order recursion with mirror
// boundaries.
func prefilterLine(c []float64) {
	n := len(c)
	if n < 2 {
		return
	}
	z := splinePole
	lambda := (1 - z) * (1 - 1/z)
	for i := range c {
		c[i] *= lambda
	}

	c[0] = causalInit(c, z)
	for i := 1; i < n; i++ {
		c[i] += z * c[i-1]
	}

	c[n-1] = (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
	for i := n - 2; i >= 0; i-- {
		c[i] = z * (c[i+1] - c[i])
	}
}

// causalInit computes the initial causal coefficient for mirror boundaries
func causalInit(c []float64, z float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(prefilterTolerance) / math.Log(math.Abs(z))))
	if horizon < n {
		zn := z
		sum := c[0]
		for k := 1; k < horizon; k++ {
			sum += zn * c[k]
			zn *= z
		}
		return sum
	}

	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for k := 1; k <= n-2; k++ {
		sum += (zn + z2n) * c[k]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

// bspline3 evaluates the centred cubic B-spline at distance s
func bspline3(s float64) float64 {
	s = math.Abs(s)
	switch {
	case s < 1:
		return (4 - 6*s*s + 3*s*s*s) / 6
	case s < 2:
		t := 2 - s
		return t * t * t / 6
	}
	return 0
}

func (s *splineSampler) At(x, y, z float64) float64 {
	x, y, z, ok := s.domain(x, y, z)
	if !ok {
		return math.NaN()
	}
	return separable(&s.coeffs, x, y, z, bspline3, mirrorIndex)
}
