package resample

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"

	"mrioverlay/internal/models"
	"mrioverlay/pkg/interpolation"
)

// IndexSpace resamples the moving volume onto targetDims using array indices
// only. Along each axis the target samples are spaced evenly from the first
// to the last source sample, so the corners of both grids coincide whatever
// the size ratio. No physical geometry is involved.
//
// A moving volume that already has targetDims is returned unchanged (as a
// copy, without interpolation or cleanup).
func (r *Resampler) IndexSpace(moving *models.Volume, targetDims []int) (*models.Volume, error) {
	if err := checkMoving(moving); err != nil {
		return nil, err
	}
	if err := checkTarget(targetDims, "target"); err != nil {
		return nil, err
	}
	if moving.SameDims(targetDims) {
		r.log.Debugw("index-space resampling skipped, shapes match", "dims", models.FormatDims(targetDims))
		return moving.Clone(), nil
	}

	sampler, err := interpolation.NewSampler(moving, r.params.Method)
	if err != nil {
		return nil, errors.Wrap(err, "moving volume")
	}

	xs := axisCoordinates(moving.Width(), targetDims[0])
	ys := axisCoordinates(moving.Height(), targetDims[1])
	zs := axisCoordinates(moving.Depth(), targetDims[2])

	r.log.Debugw("index-space resampling",
		"moving", models.FormatDims(moving.Dims),
		"target", models.FormatDims(targetDims),
		"method", r.params.Method.String())

	data := r.evaluateGrid(targetDims[0], targetDims[1], targetDims[2], func(x, y, z int) float64 {
		return sampler.At(xs[x], ys[y], zs[z])
	})
	return models.NewVolumeFromData(data, targetDims...)
}

// axisCoordinates returns n evenly spaced source coordinates from 0 to
// source-1. A single target sample sits on the last source sample.
func axisCoordinates(source, n int) []float64 {
	coords := make([]float64, n)
	if n == 1 {
		coords[0] = float64(source - 1)
		return coords
	}
	return floats.Span(coords, 0, float64(source-1))
}
