package models

// Header carries the spatial metadata of a volume as decoded from an image
// file. Any combination of the three blocks may be present; the affine
// decoder picks exactly one of them.
type Header struct {
	// SformCode > 0 marks the sform rows as valid
	SformCode int

	// SrowX, SrowY and SrowZ are the first three rows of the sform matrix:
	// direction cosines scaled by spacing, followed by the translation.
	SrowX [4]float64
	SrowY [4]float64
	SrowZ [4]float64

	// QformCode > 0 marks the quaternion block as valid
	QformCode int

	// QuaternB, QuaternC and QuaternD are the stored quaternion components.
	// The a component is derived.
	QuaternB float64
	QuaternC float64
	QuaternD float64

	// Pixdim holds qfac at index 0 followed by the three voxel spacings
	Pixdim [4]float64

	// QOffset is the world-space position of voxel (0, 0, 0)
	QOffset [3]float64

	// Transform is an optional precomputed 4x4 voxel-to-world matrix in
	// row-major order. It is only consulted when neither sform nor qform
	// is valid.
	Transform []float64
}

// Spacing returns the three voxel spacings from Pixdim
func (h *Header) Spacing() (dx, dy, dz float64) {
	return h.Pixdim[1], h.Pixdim[2], h.Pixdim[3]
}

// Qfac returns the stored qform sign factor
func (h *Header) Qfac() float64 {
	return h.Pixdim[0]
}
