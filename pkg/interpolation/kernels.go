package interpolation

import "math"

// nearestSampler picks the closest voxel
type nearestSampler struct{ grid }

func (s *nearestSampler) Method() Method { return Nearest }

func (s *nearestSampler) At(x, y, z float64) float64 {
	x, y, z, ok := s.domain(x, y, z)
	if !ok {
		return math.NaN()
	}
	ix := clampIndex(int(math.Round(x)), s.nx)
	iy := clampIndex(int(math.Round(y)), s.ny)
	iz := clampIndex(int(math.Round(z)), s.nz)
	return s.at(ix, iy, iz)
}

// linearSampler performs trilinear interpolation
type linearSampler struct{ grid }

func (s *linearSampler) Method() Method { return Linear }

// linearAxis returns the lower neighbour, the upper neighbour and the
// fractional offset between them along one axis.
func linearAxis(c float64, n int) (int, int, float64) {
	if n == 1 {
		return 0, 0, 0
	}
	i0 := int(math.Floor(c))
	if i0 >= n-1 {
		i0 = n - 2
	}
	return i0, i0 + 1, c - float64(i0)
}

func (s *linearSampler) At(x, y, z float64) float64 {
	x, y, z, ok := s.domain(x, y, z)
	if !ok {
		return math.NaN()
	}
	x0, x1, fx := linearAxis(x, s.nx)
	y0, y1, fy := linearAxis(y, s.ny)
	z0, z1, fz := linearAxis(z, s.nz)

	c00 := s.at(x0, y0, z0)*(1-fx) + s.at(x1, y0, z0)*fx
	c10 := s.at(x0, y1, z0)*(1-fx) + s.at(x1, y1, z0)*fx
	c01 := s.at(x0, y0, z1)*(1-fx) + s.at(x1, y0, z1)*fx
	c11 := s.at(x0, y1, z1)*(1-fx) + s.at(x1, y1, z1)*fx

	c0 := c00*(1-fy) + c10*fy
	c1 := c01*(1-fy) + c11*fy
	return c0*(1-fz) + c1*fz
}

// keysA is the free parameter of the Keys cubic convolution kernel
const keysA = -0.5

// keys evaluates the cubic convolution kernel at distance s
func keys(s float64) float64 {
	s = math.Abs(s)
	switch {
	case s <= 1:
		return ((keysA+2)*s-(keysA+3))*s*s + 1
	case s < 2:
		return ((keysA*s-5*keysA)*s+8*keysA)*s - 4*keysA
	}
	return 0
}

// cubicSampler performs Keys cubic convolution over a 4x4x4 neighbourhood,
// replicating edge samples for taps outside the grid.
type cubicSampler struct{ grid }

func (s *cubicSampler) Method() Method { return Cubic }

// cubicTaps returns the four tap indices and weights along one axis
func cubicTaps(c float64, n int, weight func(float64) float64, index func(int, int) int) ([4]int, [4]float64) {
	i0 := int(math.Floor(c))
	t := c - float64(i0)
	var idx [4]int
	var w [4]float64
	for k := 0; k < 4; k++ {
		idx[k] = index(i0-1+k, n)
		w[k] = weight(t - float64(k-1))
	}
	return idx, w
}

func (s *cubicSampler) At(x, y, z float64) float64 {
	x, y, z, ok := s.domain(x, y, z)
	if !ok {
		return math.NaN()
	}
	return separable(&s.grid, x, y, z, keys, clampIndex)
}

// separable sums a 4x4x4 separable kernel around (x, y, z)
func separable(g *grid, x, y, z float64, weight func(float64) float64, index func(int, int) int) float64 {
	xi, wx := cubicTaps(x, g.nx, weight, index)
	yi, wy := cubicTaps(y, g.ny, weight, index)
	zi, wz := cubicTaps(z, g.nz, weight, index)

	var sum float64
	for c := 0; c < 4; c++ {
		if wz[c] == 0 {
			continue
		}
		var plane float64
		for b := 0; b < 4; b++ {
			if wy[b] == 0 {
				continue
			}
			var row float64
			for a := 0; a < 4; a++ {
				row += wx[a] * g.at(xi[a], yi[b], zi[c])
			}
			plane += wy[b] * row
		}
		sum += wz[c] * plane
	}
	return sum
}
