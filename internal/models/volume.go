package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidShape marks data that does not fit the requested dimensions
var ErrInvalidShape = errors.New("invalid volume shape")

// Volume represents an image volume of real-valued voxel intensities.
//
// Data is stored as a 1D array in row-major order with the first axis varying
// fastest, so a 3D voxel (x, y, z) lives at z*Width*Height + y*Width + x. The
// same (x, y, z) order is the voxel coordinate fed to an affine transform.
//
// Dims normally has three entries. Other lengths are representable so that a
// caller handing over a 2D or 4D array can be told exactly what is wrong.
type Volume struct {
	// Data is the volume data as a 1D array in row-major order
	Data []float64

	// Dims holds the extent of each axis in voxels
	Dims []int

	// VoxelSize is the physical size of each voxel in mm. It is informational
	// only; resampling reads geometry from the header, never from here.
	VoxelSize struct {
		X, Y, Z float64
	}
}

// NewVolume allocates a zero-filled volume with the given dimensions
func NewVolume(dims ...int) *Volume {
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(dims) == 0 || n < 0 {
		n = 0
	}
	v := &Volume{
		Data: make([]float64, n),
		Dims: append([]int(nil), dims...),
	}
	v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z = 1, 1, 1
	return v
}

// NewVolumeFromData wraps existing data. The data length must match the
// product of the dimensions.
func NewVolumeFromData(data []float64, dims ...int) (*Volume, error) {
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, errors.Mark(errors.Newf("invalid dimension %d in %v", d, dims), ErrInvalidShape)
		}
		n *= d
	}
	if len(data) != n {
		return nil, errors.Mark(
			errors.Newf("data length %d does not match dimensions %v (%d voxels)", len(data), dims, n),
			ErrInvalidShape)
	}
	v := &Volume{Data: data, Dims: append([]int(nil), dims...)}
	v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z = 1, 1, 1
	return v, nil
}

// NDims returns the number of axes
func (v *Volume) NDims() int { return len(v.Dims) }

// Is3D reports whether the volume has exactly three axes
func (v *Volume) Is3D() bool { return len(v.Dims) == 3 }

// Width is the extent of the first axis
func (v *Volume) Width() int { return v.dim(0) }

// Height is the extent of the second axis
func (v *Volume) Height() int { return v.dim(1) }

// Depth is the extent of the third axis
func (v *Volume) Depth() int { return v.dim(2) }

func (v *Volume) dim(i int) int {
	if i < len(v.Dims) {
		return v.Dims[i]
	}
	return 1
}

// Index returns the flat offset of voxel (x, y, z)
func (v *Volume) Index(x, y, z int) int {
	w, h := v.Width(), v.Height()
	return z*w*h + y*w + x
}

// At returns the voxel value at (x, y, z)
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores a voxel value at (x, y, z)
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[v.Index(x, y, z)] = value
}

// SameDims reports whether the volume has exactly the given dimensions
func (v *Volume) SameDims(dims []int) bool {
	return SameDims(v.Dims, dims)
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	c := &Volume{
		Data: append([]float64(nil), v.Data...),
		Dims: append([]int(nil), v.Dims...),
	}
	c.VoxelSize = v.VoxelSize
	return c
}

// CountMissing returns the number of NaN voxels
func (v *Volume) CountMissing() int {
	n := 0
	for _, val := range v.Data {
		if math.IsNaN(val) {
			n++
		}
	}
	return n
}

// String returns a short description such as "64x64x32 volume"
func (v *Volume) String() string {
	return fmt.Sprintf("%s volume", FormatDims(v.Dims))
}

// SameDims compares two dimension lists
func SameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatDims renders dimensions as "WxHxD"
func FormatDims(dims []int) string {
	if len(dims) == 0 {
		return "0-d"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}
