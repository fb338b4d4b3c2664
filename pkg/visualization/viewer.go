package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"

	"mrioverlay/internal/models"
)

// Viewer extracts 2D slices from a volume for visual inspection.
//
// Intensities are windowed to the range of valid (non-NaN) samples of the
// whole volume, so every slice of a sequence uses the same mapping. Missing
// samples render black.
type Viewer struct {
	vol *models.Volume

	// lo and hi bound the intensity window
	lo, hi float64
}

// NewViewer creates a viewer for a 3D volume
func NewViewer(vol *models.Volume) (*Viewer, error) {
	if vol == nil || !vol.Is3D() {
		return nil, errors.New("viewer needs a 3D volume")
	}
	lo, hi := window(vol.Data)
	return &Viewer{vol: vol, lo: lo, hi: hi}, nil
}

// Window returns the intensity range mapped to black and white
func (v *Viewer) Window() (lo, hi float64) {
	return v.lo, v.hi
}

// normalize maps a sample into [0, 1]; ok is false for missing samples
func (v *Viewer) normalize(value float64) (float64, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	n := (value - v.lo) / (v.hi - v.lo)
	return math.Max(0, math.Min(1, n)), true
}

// plane describes how a slice maps image pixels (u, v) to voxels
type plane struct {
	width, height int
	voxel         func(u, v int) (x, y, z int)
}

// slicePlane resolves an axis name and position into a plane. The layout
// follows the usual radiological views: an x slice spans z by y, a y slice
// spans x by z and a z slice spans x by y.
func slicePlane(vol *models.Volume, axis string, position int) (plane, error) {
	if position < 0 {
		return plane{}, errors.New("position must be non-negative")
	}
	w, h, d := vol.Width(), vol.Height(), vol.Depth()

	switch axis {
	case "x", "X":
		if position >= w {
			return plane{}, errors.Newf("position %d exceeds width %d", position, w)
		}
		return plane{d, h, func(u, v int) (int, int, int) { return position, v, u }}, nil
	case "y", "Y":
		if position >= h {
			return plane{}, errors.Newf("position %d exceeds height %d", position, h)
		}
		return plane{w, d, func(u, v int) (int, int, int) { return u, position, v }}, nil
	case "z", "Z":
		if position >= d {
			return plane{}, errors.Newf("position %d exceeds depth %d", position, d)
		}
		return plane{w, h, func(u, v int) (int, int, int) { return u, v, position }}, nil
	default:
		return plane{}, errors.Newf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// axisLength returns the number of slices along an axis
func axisLength(vol *models.Volume, axis string) (int, error) {
	switch axis {
	case "x", "X":
		return vol.Width(), nil
	case "y", "Y":
		return vol.Height(), nil
	case "z", "Z":
		return vol.Depth(), nil
	default:
		return 0, errors.Newf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	p, err := slicePlane(v.vol, axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewGray16(image.Rect(0, 0, p.width, p.height))
	for row := 0; row < p.height; row++ {
		for col := 0; col < p.width; col++ {
			x, y, z := p.voxel(col, row)
			n, _ := v.normalize(v.vol.At(x, y, z))
			img.SetGray16(col, row, color.Gray16{Y: uint16(math.Round(n * 65535))})
		}
	}
	return img, nil
}

// SaveSlice saves an extracted slice; the format follows the file extension
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename, imaging.JPEGQuality(90))
}

// SaveSliceSequence extracts and saves every slice along the specified axis.
// Slices are resized so that pixels are square in physical units.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	n, err := axisLength(v.vol, axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(squarePixels(img, v.vol, axis), filename); err != nil {
			return errors.Wrapf(err, "saving slice %d", pos)
		}
	}
	return nil
}

// window returns the finite min and max of data. An empty or constant range
// is widened so normalization never divides by zero.
func window(data []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, val := range data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		lo = math.Min(lo, val)
		hi = math.Max(hi, val)
	}
	if lo > hi {
		return 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// squarePixels stretches a slice whose voxels are anisotropic in the slice
// plane. Images of isotropic volumes are returned unchanged.
func squarePixels(img image.Image, vol *models.Volume, axis string) image.Image {
	var du, dv float64
	vs := vol.VoxelSize
	switch axis {
	case "x", "X":
		du, dv = vs.Z, vs.Y
	case "y", "Y":
		du, dv = vs.X, vs.Z
	default:
		du, dv = vs.X, vs.Y
	}
	if du <= 0 || dv <= 0 || du == dv {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if du > dv {
		w = int(math.Round(float64(w) * du / dv))
	} else {
		h = int(math.Round(float64(h) * dv / du))
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}
