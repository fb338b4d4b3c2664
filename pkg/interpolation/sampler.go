// Package interpolation samples 3D volumes at fractional voxel coordinates.
//
// Coordinates are zero-based and use the same axis order as models.Volume:
// x is the fastest-varying axis. A query whose coordinate on any axis lies
// outside [0, n-1] returns NaN, the missing-value sentinel, instead of an
// error. Samplers are immutable after construction, so a single sampler can
// be shared by the goroutines of a parallel resampling run.
package interpolation

import (
	"math"

	"github.com/cockroachdb/errors"

	"mrioverlay/internal/models"
)

// domainTolerance absorbs rounding in coordinates produced by an affine
// round trip, so that a query landing a hair outside an edge voxel still
// samples it.
const domainTolerance = 1e-9

// Sampler evaluates a volume at fractional voxel coordinates
type Sampler interface {
	// At returns the interpolated value at (x, y, z), or NaN outside the volume
	At(x, y, z float64) float64

	// Method reports the kernel used by the sampler
	Method() Method
}

// NewSampler creates a sampler for a 3D volume. Spline samplers precompute
// their coefficients here, so construction is O(voxels) for that method.
func NewSampler(v *models.Volume, m Method) (Sampler, error) {
	if v == nil {
		return nil, errors.New("nil volume")
	}
	if !v.Is3D() {
		return nil, errors.Newf("sampler needs a 3-dimensional volume, got %d dimensions (%s)",
			v.NDims(), models.FormatDims(v.Dims))
	}
	if len(v.Data) != v.Width()*v.Height()*v.Depth() {
		return nil, errors.Newf("volume data length %d does not match dimensions %s",
			len(v.Data), models.FormatDims(v.Dims))
	}
	if v.Width() <= 0 || v.Height() <= 0 || v.Depth() <= 0 {
		return nil, errors.Newf("volume has an empty axis (%s)", models.FormatDims(v.Dims))
	}

	g := grid{data: v.Data, nx: v.Width(), ny: v.Height(), nz: v.Depth()}
	switch m {
	case Nearest:
		return &nearestSampler{g}, nil
	case Linear:
		return &linearSampler{g}, nil
	case Cubic:
		return &cubicSampler{g}, nil
	case Spline:
		return newSplineSampler(g), nil
	}
	return nil, errors.Newf("unsupported interpolation method %d", int(m))
}

// grid is the shared read-only view of the volume data
type grid struct {
	data       []float64
	nx, ny, nz int
}

func (g *grid) at(x, y, z int) float64 {
	return g.data[z*g.nx*g.ny+y*g.nx+x]
}

// domain checks every coordinate against [0, n-1] and clamps the ones that
// are within tolerance of an edge. NaN coordinates are outside.
func (g *grid) domain(x, y, z float64) (float64, float64, float64, bool) {
	var ok bool
	if x, ok = clampAxis(x, g.nx); !ok {
		return 0, 0, 0, false
	}
	if y, ok = clampAxis(y, g.ny); !ok {
		return 0, 0, 0, false
	}
	if z, ok = clampAxis(z, g.nz); !ok {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

func clampAxis(c float64, n int) (float64, bool) {
	hi := float64(n - 1)
	if math.IsNaN(c) || c < -domainTolerance || c > hi+domainTolerance {
		return 0, false
	}
	return math.Min(math.Max(c, 0), hi), true
}

// clampIndex replicates edge samples for kernel taps that fall off the grid
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// mirrorIndex reflects an index about the first and last samples without
// repeating them, matching the spline prefilter's boundary condition.
func mirrorIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2*n - 2
	if i < 0 {
		i = -i
	}
	i %= period
	if i >= n {
		i = period - i
	}
	return i
}
