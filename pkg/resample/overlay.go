package resample

import (
	"github.com/cockroachdb/errors"

	"mrioverlay/internal/models"
	"mrioverlay/pkg/affine"
	"mrioverlay/pkg/interpolation"
)

// Path identifies which resampling strategy a call uses
type Path int

const (
	// IndexSpacePath stretches the moving grid over the base grid
	IndexSpacePath Path = iota
	// WorldSpacePath aligns the volumes through their affines
	WorldSpacePath
)

func (p Path) String() string {
	if p == WorldSpacePath {
		return "world-space"
	}
	return "index-space"
}

// Plan is the outcome of decoding both headers
type Plan struct {
	Path Path

	// BaseAffine and MovingAffine are nil when unavailable
	BaseAffine   *affine.Affine
	MovingAffine *affine.Affine
}

// PlanFor decodes both headers independently. Decoding failures are not
// errors: they select the index-space path. An affine that decoded on one
// side is still reported here but is not used by that path.
func PlanFor(baseHeader, movingHeader *models.Header) Plan {
	baseAffine, baseOK := affine.TryDecode(baseHeader)
	movingAffine, movingOK := affine.TryDecode(movingHeader)

	plan := Plan{Path: IndexSpacePath, BaseAffine: baseAffine, MovingAffine: movingAffine}
	if baseOK && movingOK {
		plan.Path = WorldSpacePath
	}
	return plan
}

// OverlayToBase resamples the moving volume onto the base volume's grid.
//
// If both headers decode to an affine the world-space path is used. If either
// does not, the index-space path is used and any affine found on the other
// side is discarded; alignment is given up in exchange for always producing
// an output of the base volume's shape.
func (r *Resampler) OverlayToBase(base *models.Volume, baseHeader *models.Header, moving *models.Volume, movingHeader *models.Header) (*models.Volume, error) {
	if base == nil {
		return nil, errors.New("base volume is nil")
	}

	plan := PlanFor(baseHeader, movingHeader)
	r.log.Debugw("overlay plan",
		"path", plan.Path.String(),
		"baseSource", affine.Describe(baseHeader),
		"movingSource", affine.Describe(movingHeader),
		"baseAffine", plan.BaseAffine != nil,
		"movingAffine", plan.MovingAffine != nil)

	if plan.Path == WorldSpacePath {
		return r.WorldSpace(base.Dims, moving, plan.BaseAffine, plan.MovingAffine)
	}
	return r.IndexSpace(moving, base.Dims)
}

// OverlayToBase resamples with the given method on all CPUs and no progress
// reporting.
func OverlayToBase(base *models.Volume, baseHeader *models.Header, moving *models.Volume, movingHeader *models.Header, method interpolation.Method) (*models.Volume, error) {
	params := DefaultParams()
	params.Method = method
	return NewResampler(params).OverlayToBase(base, baseHeader, moving, movingHeader)
}
