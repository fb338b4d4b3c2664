package affine

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"mrioverlay/internal/models"
)

// SourceKind identifies which header block an affine is decoded from
type SourceKind int

const (
	None SourceKind = iota
	Sform
	Qform
	RawMatrix
)

func (k SourceKind) String() string {
	switch k {
	case Sform:
		return "sform"
	case Qform:
		return "qform"
	case RawMatrix:
		return "matrix"
	default:
		return "none"
	}
}

// Source is the header block selected for decoding. Only the fields
// belonging to Kind are populated.
type Source struct {
	Kind SourceKind

	// Sform rows
	Rows [3][4]float64

	// Qform components
	B, C, D float64
	Qfac    float64
	Spacing [3]float64
	Offset  [3]float64

	// Raw matrix values, row-major
	Matrix []float64
}

// Select classifies a header by the fixed priority sform > qform > matrix.
// A nil header selects None.
func Select(h *models.Header) Source {
	switch {
	case h == nil:
		return Source{Kind: None}
	case h.SformCode > 0:
		return Source{Kind: Sform, Rows: [3][4]float64{h.SrowX, h.SrowY, h.SrowZ}}
	case h.QformCode > 0:
		dx, dy, dz := h.Spacing()
		return Source{
			Kind:    Qform,
			B:       h.QuaternB,
			C:       h.QuaternC,
			D:       h.QuaternD,
			Qfac:    h.Qfac(),
			Spacing: [3]float64{dx, dy, dz},
			Offset:  h.QOffset,
		}
	case len(h.Transform) > 0:
		return Source{Kind: RawMatrix, Matrix: append([]float64(nil), h.Transform...)}
	default:
		return Source{Kind: None}
	}
}

// Affine builds the transform described by the source. Every failure is
// marked ErrNoValidAffine.
func (s Source) Affine() (*Affine, error) {
	var (
		a   *Affine
		err error
	)
	switch s.Kind {
	case Sform:
		a, err = fromRows(s.Rows[0], s.Rows[1], s.Rows[2])
	case Qform:
		a, err = s.qformAffine()
	case RawMatrix:
		a, err = rawAffine(s.Matrix)
	default:
		return nil, ErrNoValidAffine
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decoding %s", s.Kind), ErrNoValidAffine)
	}
	return a, nil
}

// qformAffine reconstructs the rotation from the quaternion (b, c, d) with
// a = sqrt(max(0, 1-b²-c²-d²)), scales its columns by the voxel spacing and
// the third column by qfac, and appends the offset column.
func (s Source) qformAffine() (*Affine, error) {
	b, c, d := s.B, s.C, s.D
	a := math.Sqrt(math.Max(0, 1-(b*b+c*c+d*d)))

	r := [3][3]float64{
		{a*a + b*b - c*c - d*d, 2 * (b*c - a*d), 2 * (b*d + a*c)},
		{2 * (b*c + a*d), a*a + c*c - b*b - d*d, 2 * (c*d - a*b)},
		{2 * (b*d - a*c), 2 * (c*d + a*b), a*a + d*d - b*b - c*c},
	}

	// 0 is not a legal handedness
	qfac := s.Qfac
	if qfac == 0 {
		qfac = 1
	}
	scale := [3]float64{s.Spacing[0], s.Spacing[1], s.Spacing[2] * qfac}

	var rows [3][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rows[i][j] = r[i][j] * scale[j]
		}
		rows[i][3] = s.Offset[i]
	}
	return fromRows(rows[0], rows[1], rows[2])
}

// rawAffine accepts a precomputed matrix. A matrix already in column form
// (bottom row [0 0 0 1]) is used verbatim. Row-vector storage (translation in
// the bottom row, last column [0 0 0 1]) is the same transform written for
// p·M instead of M·p, so it is transposed rather than rejected. Anything
// else is not an affine and FromRowMajor refuses it.
func rawAffine(values []float64) (*Affine, error) {
	if len(values) != 16 {
		return nil, errors.Newf("expected 16 matrix values, got %d", len(values))
	}
	if !isHomogeneousRow(values[12:16]) && isHomogeneousRow([]float64{values[3], values[7], values[11], values[15]}) {
		t := make([]float64, 16)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				t[c*4+r] = values[r*4+c]
			}
		}
		values = t
	}
	return FromRowMajor(values)
}

// Decode selects a header block and builds its affine. The returned error is
// always marked ErrNoValidAffine.
func Decode(h *models.Header) (*Affine, error) {
	return Select(h).Affine()
}

// TryDecode is the recoverable form of Decode: any failure, including a
// panic from malformed input, becomes (nil, false).
func TryDecode(h *models.Header) (a *Affine, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a, ok = nil, false
		}
	}()
	a, err := Decode(h)
	if err != nil {
		return nil, false
	}
	return a, true
}

// Describe returns a one-line description of the header's selected source
func Describe(h *models.Header) string {
	s := Select(h)
	switch s.Kind {
	case Sform:
		return fmt.Sprintf("sform (code %d)", h.SformCode)
	case Qform:
		return fmt.Sprintf("qform (code %d, qfac %g)", h.QformCode, s.Qfac)
	case RawMatrix:
		return fmt.Sprintf("precomputed matrix (%d values)", len(s.Matrix))
	default:
		return "none"
	}
}
