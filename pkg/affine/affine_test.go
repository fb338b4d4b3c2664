package affine

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrioverlay/internal/models"
)

func sformHeader() *models.Header {
	return &models.Header{
		SformCode: 1,
		SrowX:     [4]float64{2, 0, 0, -10},
		SrowY:     [4]float64{0, 3, 0, 20},
		SrowZ:     [4]float64{0, 0, 4, 5},
	}
}

func qformHeader(b, c, d, qfac float64) *models.Header {
	return &models.Header{
		QformCode: 1,
		QuaternB:  b,
		QuaternC:  c,
		QuaternD:  d,
		Pixdim:    [4]float64{qfac, 1.5, 2, 2.5},
		QOffset:   [3]float64{7, -8, 9},
	}
}

// TestSelectPriority verifies that sform wins over qform and qform over the raw matrix
func TestSelectPriority(t *testing.T) {
	h := sformHeader()
	h.QformCode = 2
	h.Pixdim = [4]float64{1, 9, 9, 9}
	h.Transform = Identity().Raw()
	assert.Equal(t, Sform, Select(h).Kind)

	h.SformCode = 0
	assert.Equal(t, Qform, Select(h).Kind)

	h.QformCode = 0
	assert.Equal(t, RawMatrix, Select(h).Kind)

	h.Transform = nil
	assert.Equal(t, None, Select(h).Kind)

	assert.Equal(t, None, Select(nil).Kind)
}

// TestDecodeSformIgnoresQform checks that a valid qform never leaks into an sform decode
func TestDecodeSformIgnoresQform(t *testing.T) {
	h := sformHeader()
	h.QformCode = 1
	h.QuaternB = 0.5
	h.Pixdim = [4]float64{-1, 7, 7, 7}
	h.QOffset = [3]float64{100, 100, 100}

	a, err := Decode(h)
	require.NoError(t, err)

	expected, err := FromRowMajor([]float64{
		2, 0, 0, -10,
		0, 3, 0, 20,
		0, 0, 4, 5,
		0, 0, 0, 1,
	})
	require.NoError(t, err)
	assert.True(t, a.Equal(expected, 0), "got\n%v", a)
}

// TestQformIdentityQuaternion checks spacing and offset placement for a zero rotation
func TestQformIdentityQuaternion(t *testing.T) {
	a, err := Decode(qformHeader(0, 0, 0, 1))
	require.NoError(t, err)

	expected := []float64{
		1.5, 0, 0, 7,
		0, 2, 0, -8,
		0, 0, 2.5, 9,
		0, 0, 0, 1,
	}
	assert.InDeltaSlice(t, expected, a.Raw(), 1e-12)
}

// TestQformZeroQfacActsAsOne verifies that qfac 0 does not collapse the third axis
func TestQformZeroQfacActsAsOne(t *testing.T) {
	zero, err := Decode(qformHeader(0.1, 0.2, 0.3, 0))
	require.NoError(t, err)
	one, err := Decode(qformHeader(0.1, 0.2, 0.3, 1))
	require.NoError(t, err)
	assert.True(t, zero.Equal(one, 1e-12))

	// the third column must not vanish
	col := math.Abs(zero.At(0, 2)) + math.Abs(zero.At(1, 2)) + math.Abs(zero.At(2, 2))
	assert.Greater(t, col, 0.0)
}

// TestQformNegativeQfacFlipsThirdColumn checks the handedness flip
func TestQformNegativeQfacFlipsThirdColumn(t *testing.T) {
	pos, err := Decode(qformHeader(0, 0, 0, 1))
	require.NoError(t, err)
	neg, err := Decode(qformHeader(0, 0, 0, -1))
	require.NoError(t, err)

	for r := 0; r < 3; r++ {
		assert.InDelta(t, pos.At(r, 0), neg.At(r, 0), 1e-12)
		assert.InDelta(t, pos.At(r, 1), neg.At(r, 1), 1e-12)
		assert.InDelta(t, -pos.At(r, 2), neg.At(r, 2), 1e-12)
		assert.InDelta(t, pos.At(r, 3), neg.At(r, 3), 1e-12)
	}
}

// TestQformRotation checks a 90 degree rotation about z: (b,c,d) = (0,0,sin 45°)
func TestQformRotation(t *testing.T) {
	h := qformHeader(0, 0, math.Sqrt(0.5), 1)
	h.Pixdim = [4]float64{1, 1, 1, 1}
	h.QOffset = [3]float64{}

	a, err := Decode(h)
	require.NoError(t, err)

	wx, wy, wz := a.Apply(1, 0, 0)
	assert.InDelta(t, 0, wx, 1e-12)
	assert.InDelta(t, 1, wy, 1e-12)
	assert.InDelta(t, 0, wz, 1e-12)
}

// TestQformClampsNoisyQuaternion ensures b²+c²+d² slightly above 1 does not produce NaN
func TestQformClampsNoisyQuaternion(t *testing.T) {
	h := qformHeader(1.0000001, 0, 0, 1)
	a, err := Decode(h)
	require.NoError(t, err)
	for _, v := range a.Raw() {
		assert.False(t, math.IsNaN(v))
	}
}

// TestRawMatrix verifies verbatim use and the transposed storage form
func TestRawMatrix(t *testing.T) {
	values := []float64{
		1, 0, 0, 3,
		0, 1, 0, 4,
		0, 0, 1, 5,
		0, 0, 0, 1,
	}
	a, err := Decode(&models.Header{Transform: values})
	require.NoError(t, err)
	assert.Equal(t, values, a.Raw())

	transposed := []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		3, 4, 5, 1,
	}
	b, err := Decode(&models.Header{Transform: transposed})
	require.NoError(t, err)
	assert.Equal(t, values, b.Raw())
}

// TestDecodeFailures covers every path that must degrade to unavailable
func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		header *models.Header
	}{
		{"nil header", nil},
		{"empty header", &models.Header{}},
		{"short matrix", &models.Header{Transform: []float64{1, 2, 3}}},
		{"bad bottom row", &models.Header{Transform: []float64{
			1, 0, 0, 1,
			0, 1, 0, 1,
			0, 0, 1, 1,
			1, 1, 1, 2,
		}}},
		{"nan sform", &models.Header{SformCode: 1, SrowX: [4]float64{math.NaN(), 0, 0, 0}}},
		{"inf qform offset", &models.Header{QformCode: 1, Pixdim: [4]float64{1, 1, 1, 1}, QOffset: [3]float64{math.Inf(1), 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.header)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoValidAffine), "error %v not marked", err)

			a, ok := TryDecode(tt.header)
			assert.False(t, ok)
			assert.Nil(t, a)
		})
	}
}

// TestInverse checks round trips and the singular case
func TestInverse(t *testing.T) {
	a, err := Decode(sformHeader())
	require.NoError(t, err)

	inv, err := a.Inverse()
	require.NoError(t, err)

	x, y, z := a.Apply(1, 2, 3)
	bx, by, bz := inv.Apply(x, y, z)
	assert.InDelta(t, 1, bx, 1e-12)
	assert.InDelta(t, 2, by, 1e-12)
	assert.InDelta(t, 3, bz, 1e-12)

	assert.True(t, a.Mul(inv).Equal(Identity(), 1e-12))

	singular, err := Decode(&models.Header{SformCode: 1, SrowX: [4]float64{1, 0, 0, 0}, SrowY: [4]float64{0, 1, 0, 0}})
	require.NoError(t, err)
	_, err = singular.Inverse()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSingular))
}

// TestDescribe checks the human readable source names
func TestDescribe(t *testing.T) {
	assert.Equal(t, "sform (code 1)", Describe(sformHeader()))
	assert.Equal(t, "none", Describe(&models.Header{}))
	assert.Contains(t, Describe(qformHeader(0, 0, 0, -1)), "qfac -1")
}
