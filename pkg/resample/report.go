package resample

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mrioverlay/internal/models"
)

// Summary describes the valid samples of a resampled volume.
type Summary struct {
	// Voxels is the total number of voxels
	Voxels int

	// Valid is the number of finite voxels; Missing counts NaN voxels
	Valid   int
	Missing int

	// Coverage is Valid/Voxels, between 0 and 1
	Coverage float64

	// Mean, StdDev, Min and Max are computed over valid voxels only. They are
	// NaN when no voxel is valid.
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes the Summary of a volume
func Summarize(v *models.Volume) Summary {
	s := Summary{Mean: nan, StdDev: nan, Min: nan, Max: nan}
	if v == nil {
		return s
	}
	valid := validSamples(v.Data)

	s.Voxels = len(v.Data)
	s.Valid = len(valid)
	s.Missing = s.Voxels - s.Valid
	if s.Voxels > 0 {
		s.Coverage = float64(s.Valid) / float64(s.Voxels)
	}
	if s.Valid == 0 {
		return s
	}

	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	if s.Valid == 1 {
		s.Mean, s.StdDev = valid[0], 0
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d voxels, %d valid (%.1f%%), %d missing, mean %.4g, std %.4g, range [%.4g, %.4g]",
		s.Voxels, s.Valid, 100*s.Coverage, s.Missing, s.Mean, s.StdDev, s.Min, s.Max)
}

// Agreement compares two volumes of the same shape over the voxels where
// both are valid.
type Agreement struct {
	// Overlap is the number of voxels valid in both volumes
	Overlap int

	// RMSE is the root mean square difference
	RMSE float64

	// Correlation is the Pearson correlation coefficient. It is NaN when
	// either side is constant over the overlap.
	Correlation float64
}

// Compare measures how closely two volumes agree. It is used to check a
// resampled overlay against the base it was mapped onto.
func Compare(a, b *models.Volume) (Agreement, error) {
	if a == nil || b == nil {
		return Agreement{}, errors.New("cannot compare a nil volume")
	}
	if !models.SameDims(a.Dims, b.Dims) {
		return Agreement{}, errors.Newf("shape mismatch: %s vs %s",
			models.FormatDims(a.Dims), models.FormatDims(b.Dims))
	}

	var xs, ys []float64
	for i := range a.Data {
		if isValid(a.Data[i]) && isValid(b.Data[i]) {
			xs = append(xs, a.Data[i])
			ys = append(ys, b.Data[i])
		}
	}
	ag := Agreement{Overlap: len(xs), RMSE: nan, Correlation: nan}
	if len(xs) == 0 {
		return ag, nil
	}

	diff := make([]float64, len(xs))
	floats.SubTo(diff, xs, ys)
	ag.RMSE = floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
	if len(xs) > 1 {
		ag.Correlation = stat.Correlation(xs, ys, nil)
	}
	return ag, nil
}

func validSamples(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if isValid(v) {
			valid = append(valid, v)
		}
	}
	return valid
}

func isValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
