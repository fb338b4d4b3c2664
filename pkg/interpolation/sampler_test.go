package interpolation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"

	"mrioverlay/internal/models"
)

// randomVolume fills a volume with values in [1, 101) so nothing is near zero
func randomVolume(t *testing.T, nx, ny, nz int, seed uint32) *models.Volume {
	t.Helper()
	rng := fastrand.RNG{}
	rng.Seed(seed)
	v := models.NewVolume(nx, ny, nz)
	for i := range v.Data {
		v.Data[i] = 1 + float64(rng.Uint32n(10000))/100
	}
	return v
}

// rampVolume holds f(x,y,z) = 2x + 3y - z + 50
func rampVolume(nx, ny, nz int) *models.Volume {
	v := models.NewVolume(nx, ny, nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Set(x, y, z, ramp(float64(x), float64(y), float64(z)))
			}
		}
	}
	return v
}

func ramp(x, y, z float64) float64 { return 2*x + 3*y - z + 50 }

// TestParseMethod checks names, aliases, the default and the error hint
func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"":          Cubic,
		"nearest":   Nearest,
		"LINEAR":    Linear,
		"trilinear": Linear,
		" cubic ":   Cubic,
		"spline":    Spline,
	}
	for name, want := range cases {
		got, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseMethod("sinc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sinc")

	for _, m := range Methods {
		parsed, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	assert.Equal(t, Cubic, DefaultMethod)
}

// TestNewSamplerRejectsBadVolumes covers non-3D and inconsistent inputs
func TestNewSamplerRejectsBadVolumes(t *testing.T) {
	_, err := NewSampler(nil, Linear)
	assert.Error(t, err)

	_, err = NewSampler(models.NewVolume(4, 4), Linear)
	assert.Error(t, err)

	bad := models.NewVolume(2, 2, 2)
	bad.Data = bad.Data[:5]
	_, err = NewSampler(bad, Linear)
	assert.Error(t, err)

	_, err = NewSampler(models.NewVolume(2, 2, 2), Method(42))
	assert.Error(t, err)
}

// TestSamplersReproduceGridNodes verifies every method is interpolating
func TestSamplersReproduceGridNodes(t *testing.T) {
	v := randomVolume(t, 6, 5, 4, 7)
	for _, m := range Methods {
		s, err := NewSampler(v, m)
		require.NoError(t, err)
		assert.Equal(t, m, s.Method())

		for z := 0; z < 4; z++ {
			for y := 0; y < 5; y++ {
				for x := 0; x < 6; x++ {
					got := s.At(float64(x), float64(y), float64(z))
					assert.InDelta(t, v.At(x, y, z), got, 1e-6, "%s at (%d,%d,%d)", m, x, y, z)
				}
			}
		}
	}
}

// TestOutOfDomainIsNaN checks that every method returns the missing sentinel outside the grid
func TestOutOfDomainIsNaN(t *testing.T) {
	v := randomVolume(t, 4, 4, 4, 11)
	queries := [][3]float64{
		{-0.5, 1, 1},
		{1, 3.01, 1},
		{1, 1, 4},
		{math.NaN(), 1, 1},
		{1, math.Inf(1), 1},
	}
	for _, m := range Methods {
		s, err := NewSampler(v, m)
		require.NoError(t, err)
		for _, q := range queries {
			assert.True(t, math.IsNaN(s.At(q[0], q[1], q[2])), "%s at %v", m, q)
		}
		// rounding noise at the edge is still inside
		assert.False(t, math.IsNaN(s.At(3+1e-12, -1e-12, 3)), "%s edge", m)
	}
}

// TestLinearReproducesRamp checks trilinear exactness on affine data, including the upper edge
func TestLinearReproducesRamp(t *testing.T) {
	v := rampVolume(5, 6, 7)
	s, err := NewSampler(v, Linear)
	require.NoError(t, err)

	points := [][3]float64{{0.25, 0.5, 0.75}, {3.9, 4.1, 5.5}, {4, 5, 6}, {2.5, 0, 6}}
	for _, p := range points {
		assert.InDelta(t, ramp(p[0], p[1], p[2]), s.At(p[0], p[1], p[2]), 1e-9, "%v", p)
	}
}

// TestCubicReproducesRampInterior checks Keys cubic exactness on affine data away from borders
func TestCubicReproducesRampInterior(t *testing.T) {
	v := rampVolume(8, 8, 8)
	s, err := NewSampler(v, Cubic)
	require.NoError(t, err)

	points := [][3]float64{{2.5, 3.25, 4.75}, {1.1, 5.9, 3.3}, {4.5, 4.5, 4.5}}
	for _, p := range points {
		assert.InDelta(t, ramp(p[0], p[1], p[2]), s.At(p[0], p[1], p[2]), 1e-9, "%v", p)
	}
}

// TestNearestRounds checks nearest neighbour selection
func TestNearestRounds(t *testing.T) {
	v := rampVolume(4, 4, 4)
	s, err := NewSampler(v, Nearest)
	require.NoError(t, err)

	assert.Equal(t, v.At(1, 2, 3), s.At(1.4, 1.6, 2.51))
	assert.Equal(t, v.At(0, 0, 0), s.At(0.49, 0.2, 0))
}

// TestSplineSmoothBetweenNodes checks that the spline stays near a smooth signal between nodes
func TestSplineSmoothBetweenNodes(t *testing.T) {
	n := 32
	v := models.NewVolume(n, 1, 1)
	f := func(x float64) float64 { return 10 + math.Sin(x/4) }
	for x := 0; x < n; x++ {
		v.Set(x, 0, 0, f(float64(x)))
	}
	s, err := NewSampler(v, Spline)
	require.NoError(t, err)

	for x := 4.5; x < float64(n-4); x += 1.0 {
		assert.InDelta(t, f(x), s.At(x, 0, 0), 1e-3, "x=%g", x)
	}
}

// TestSingletonAxes checks that a one-sample axis is valid at coordinate 0 only
func TestSingletonAxes(t *testing.T) {
	v := models.NewVolume(3, 1, 1)
	v.Data = []float64{5, 7, 9}
	for _, m := range Methods {
		s, err := NewSampler(v, m)
		require.NoError(t, err)
		assert.InDelta(t, 7, s.At(1, 0, 0), 1e-9, "%s", m)
		assert.True(t, math.IsNaN(s.At(1, 0.5, 0)), "%s", m)
	}
}

// TestMirrorIndex checks reflection without edge repetition
func TestMirrorIndex(t *testing.T) {
	assert.Equal(t, 1, mirrorIndex(-1, 4))
	assert.Equal(t, 2, mirrorIndex(4, 4))
	assert.Equal(t, 0, mirrorIndex(6, 4))
	assert.Equal(t, 0, mirrorIndex(5, 1))
	assert.Equal(t, 0, clampIndex(-3, 4))
	assert.Equal(t, 3, clampIndex(9, 4))
}
