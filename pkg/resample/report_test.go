package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrioverlay/internal/models"
)

// TestSummarize verifies statistics are taken over valid voxels only
func TestSummarize(t *testing.T) {
	v, err := models.NewVolumeFromData([]float64{math.NaN(), 1, 2, 3, math.NaN(), 5}, 6, 1, 1)
	require.NoError(t, err)

	s := Summarize(v)
	assert.Equal(t, 6, s.Voxels)
	assert.Equal(t, 4, s.Valid)
	assert.Equal(t, 2, s.Missing)
	assert.InDelta(t, 4.0/6.0, s.Coverage, 1e-12)
	assert.InDelta(t, 2.75, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(8.75/3), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Contains(t, s.String(), "4 valid")
}

// TestSummarizeEmpty verifies an all-missing volume has NaN statistics
func TestSummarizeEmpty(t *testing.T) {
	v := models.NewVolume(2, 2, 2)
	for i := range v.Data {
		v.Data[i] = math.NaN()
	}
	s := Summarize(v)
	assert.Equal(t, 0, s.Valid)
	assert.Equal(t, 8, s.Missing)
	assert.Zero(t, s.Coverage)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Max))

	assert.Zero(t, Summarize(nil).Voxels)
}

// TestCompare verifies agreement metrics over the shared valid region
func TestCompare(t *testing.T) {
	a, err := models.NewVolumeFromData([]float64{1, 2, 3, math.NaN()}, 2, 2, 1)
	require.NoError(t, err)
	b, err := models.NewVolumeFromData([]float64{2, 4, 6, 8}, 2, 2, 1)
	require.NoError(t, err)

	ag, err := Compare(a, a)
	require.NoError(t, err)
	assert.Equal(t, 3, ag.Overlap)
	assert.Zero(t, ag.RMSE)
	assert.InDelta(t, 1, ag.Correlation, 1e-12)

	ag, err = Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, ag.Overlap)
	assert.InDelta(t, math.Sqrt((1+4+9)/3.0), ag.RMSE, 1e-12)
	assert.InDelta(t, 1, ag.Correlation, 1e-12)

	_, err = Compare(a, models.NewVolume(4, 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}
