// Package resample maps a moving volume onto the voxel grid of a base volume.
//
// When both headers carry a usable voxel-to-world affine, every base voxel is
// pushed through world space into the moving volume's index space and
// interpolated there (WorldSpace). When either affine is unavailable the
// moving volume is stretched over the base grid using array indices alone
// (IndexSpace). OverlayToBase makes that choice per call.
//
// Every entry point is a pure function of its inputs. The Resampler only holds
// configuration; output voxels are evaluated in parallel z-slabs, which does not
// change results because each voxel is computed independently.
package resample

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"mrioverlay/internal/logger"
	"mrioverlay/pkg/interpolation"
)

// Epsilon is the magnitude below which an interpolated sample is treated as
// smoothing residue next to missing data and replaced by NaN.
const Epsilon = 1e-5

var (
	// ErrNotThreeDimensional is returned when a volume or target shape does not have exactly three axes
	ErrNotThreeDimensional = errors.New("volume is not 3-dimensional")

	// ErrSingularAffine is returned when the moving affine cannot be inverted on the world-space path
	ErrSingularAffine = errors.New("moving affine is not invertible")
)

// ProgressCallback reports progress while the output grid is evaluated.
// completed and total count z-slices; message is non-empty for
// informational updates.
type ProgressCallback func(completed, total int, message string)

// Params holds the resampling configuration.
type Params struct {
	// Method is the interpolation kernel. The zero value is Cubic.
	Method interpolation.Method

	// NumCores bounds the number of goroutines evaluating the output grid.
	// Values below 1 use all available CPUs.
	NumCores int

	// Progress is called as z-slices of the output complete. It may be nil.
	Progress ProgressCallback

	// Logger receives debug output about path selection and timings.
	// Nil uses the global logger.
	Logger *zap.SugaredLogger
}

// DefaultParams returns cubic interpolation on all CPUs
func DefaultParams() *Params {
	return &Params{
		Method:   interpolation.DefaultMethod,
		NumCores: runtime.NumCPU(),
	}
}

// Resampler runs the world-space and index-space resampling paths
type Resampler struct {
	params Params
	log    *zap.SugaredLogger
}

// NewResampler creates a resampler. A nil params uses DefaultParams.
func NewResampler(params *Params) *Resampler {
	if params == nil {
		params = DefaultParams()
	}
	r := &Resampler{params: *params}
	if r.params.NumCores < 1 {
		r.params.NumCores = runtime.NumCPU()
	}
	r.log = r.params.Logger
	if r.log == nil {
		r.log = logger.Logger
	}
	return r
}

// Method reports the configured interpolation method
func (r *Resampler) Method() interpolation.Method {
	return r.params.Method
}

// cleanup forces near-zero samples to NaN
func cleanup(v float64) float64 {
	if v < Epsilon && v > -Epsilon {
		return nan
	}
	return v
}
