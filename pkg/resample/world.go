package resample

import (
	"github.com/cockroachdb/errors"

	"mrioverlay/internal/models"
	"mrioverlay/pkg/affine"
	"mrioverlay/pkg/interpolation"
)

// WorldSpace resamples the moving volume onto a grid of baseDims using the
// physical placement given by the two affines.
//
// Each zero-based base voxel (x, y, z) is mapped to world coordinates by
// affineBase and back into the moving volume's voxel space by the inverse of
// affineMoving. The two steps are folded into one composite matrix. Queries
// outside the moving volume and samples with magnitude below Epsilon are NaN.
//
// Returns:
//   - A volume with dimensions baseDims
//   - ErrNotThreeDimensional if baseDims or the moving volume is not 3D
//   - ErrSingularAffine if affineMoving has no inverse
func (r *Resampler) WorldSpace(baseDims []int, moving *models.Volume, affineBase, affineMoving *affine.Affine) (*models.Volume, error) {
	if err := checkTarget(baseDims, "base"); err != nil {
		return nil, err
	}
	if err := checkMoving(moving); err != nil {
		return nil, err
	}
	if affineBase == nil || affineMoving == nil {
		return nil, errors.New("world-space resampling needs both affines")
	}

	invMoving, err := affineMoving.Inverse()
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "moving volume %s", moving), ErrSingularAffine),
			"the moving header describes a degenerate geometry; resample in index space instead")
	}
	baseToMoving := invMoving.Mul(affineBase)

	sampler, err := interpolation.NewSampler(moving, r.params.Method)
	if err != nil {
		return nil, errors.Wrap(err, "moving volume")
	}

	r.log.Debugw("world-space resampling",
		"base", models.FormatDims(baseDims),
		"moving", models.FormatDims(moving.Dims),
		"method", r.params.Method.String())

	data := r.evaluateGrid(baseDims[0], baseDims[1], baseDims[2], func(x, y, z int) float64 {
		mx, my, mz := baseToMoving.Apply(float64(x), float64(y), float64(z))
		return sampler.At(mx, my, mz)
	})

	out, err := models.NewVolumeFromData(data, baseDims...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkMoving validates the moving volume's shape
func checkMoving(moving *models.Volume) error {
	if moving == nil {
		return errors.New("moving volume is nil")
	}
	if !moving.Is3D() {
		return errors.WithDetailf(
			errors.Mark(errors.Newf("moving volume has %d dimensions (%s), expected 3",
				moving.NDims(), models.FormatDims(moving.Dims)), ErrNotThreeDimensional),
			"dims: %v", moving.Dims)
	}
	return checkTarget(moving.Dims, "moving")
}

// checkTarget validates a 3D shape with positive extents
func checkTarget(dims []int, which string) error {
	if len(dims) != 3 {
		return errors.Mark(errors.Newf("%s shape %s has %d dimensions, expected 3",
			which, models.FormatDims(dims), len(dims)), ErrNotThreeDimensional)
	}
	for _, d := range dims {
		if d <= 0 {
			return errors.Newf("%s shape %s has an empty axis", which, models.FormatDims(dims))
		}
	}
	return nil
}
