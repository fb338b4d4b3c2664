// Package affine decodes voxel-to-world transforms from volume headers.
//
// A header may describe its orientation in three mutually exclusive ways
// (an sform row block, a qform quaternion block, or a precomputed matrix).
// The decoder first classifies the header into a Source, then builds a 4x4
// homogeneous Affine from the selected block. Decoding failures are ordinary
// values: TryDecode never returns an error and never panics, so callers can
// branch on availability and fall back to index-space resampling.
package affine

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoValidAffine is returned when no header block yields a usable matrix
	ErrNoValidAffine = errors.New("no valid affine")

	// ErrSingular is returned when an affine has no inverse
	ErrSingular = errors.New("affine matrix is singular")
)

// Affine is a 4x4 homogeneous transform mapping voxel indices (x, y, z, 1)
// to world coordinates. The bottom row is always [0 0 0 1].
type Affine struct {
	m *mat.Dense
}

// Identity returns the identity transform
func Identity() *Affine {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Affine{m: m}
}

// FromRowMajor builds an affine from 16 row-major values. The bottom row must
// be [0 0 0 1] and every entry must be finite.
func FromRowMajor(values []float64) (*Affine, error) {
	if len(values) != 16 {
		return nil, errors.Newf("expected 16 matrix values, got %d", len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Newf("matrix entry %d is not finite (%g)", i, v)
		}
	}
	if !isHomogeneousRow(values[12:16]) {
		return nil, errors.Newf("bottom row %v is not [0 0 0 1]", values[12:16])
	}
	return &Affine{m: mat.NewDense(4, 4, append([]float64(nil), values...))}, nil
}

// fromRows assembles an affine from three 4-element rows
func fromRows(r0, r1, r2 [4]float64) (*Affine, error) {
	values := make([]float64, 0, 16)
	values = append(values, r0[:]...)
	values = append(values, r1[:]...)
	values = append(values, r2[:]...)
	values = append(values, 0, 0, 0, 1)
	return FromRowMajor(values)
}

// At returns the matrix element at row r, column c
func (a *Affine) At(r, c int) float64 {
	return a.m.At(r, c)
}

// Raw returns the 16 matrix entries in row-major order
func (a *Affine) Raw() []float64 {
	out := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = a.m.At(r, c)
		}
	}
	return out
}

// Matrix exposes a copy of the underlying gonum matrix
func (a *Affine) Matrix() *mat.Dense {
	return mat.DenseCopyOf(a.m)
}

// Apply maps the homogeneous point (x, y, z, 1) through the transform
func (a *Affine) Apply(x, y, z float64) (float64, float64, float64) {
	raw := a.m.RawMatrix()
	d, s := raw.Data, raw.Stride
	wx := d[0]*x + d[1]*y + d[2]*z + d[3]
	wy := d[s]*x + d[s+1]*y + d[s+2]*z + d[s+3]
	wz := d[2*s]*x + d[2*s+1]*y + d[2*s+2]*z + d[2*s+3]
	return wx, wy, wz
}

// Mul returns a * b, i.e. the transform that applies b first and then a
func (a *Affine) Mul(b *Affine) *Affine {
	var m mat.Dense
	m.Mul(a.m, b.m)
	return &Affine{m: &m}
}

// Inverse returns the inverse transform. A singular or numerically
// non-invertible matrix yields an error marked ErrSingular.
func (a *Affine) Inverse() (*Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.m); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot invert affine (det=%g)", mat.Det(a.m)), ErrSingular)
	}
	raw := inv.RawMatrix().Data
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Mark(errors.Newf("inverse contains non-finite entries (det=%g)", mat.Det(a.m)), ErrSingular)
		}
	}
	// pin the homogeneous row against rounding
	inv.SetRow(3, []float64{0, 0, 0, 1})
	return &Affine{m: &inv}, nil
}

// Equal reports whether two affines agree to within tol in every entry
func (a *Affine) Equal(b *Affine, tol float64) bool {
	return mat.EqualApprox(a.m, b.m, tol)
}

// String renders the matrix one row per line
func (a *Affine) String() string {
	var sb strings.Builder
	for r := 0; r < 4; r++ {
		fmt.Fprintf(&sb, "[% 10.4f % 10.4f % 10.4f % 10.4f]", a.m.At(r, 0), a.m.At(r, 1), a.m.At(r, 2), a.m.At(r, 3))
		if r < 3 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func isHomogeneousRow(row []float64) bool {
	return row[0] == 0 && row[1] == 0 && row[2] == 0 && row[3] == 1
}
