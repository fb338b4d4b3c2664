package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"mrioverlay/internal/models"
)

// Overlay renders a resampled volume tinted over the grayscale base it was
// mapped onto. Both volumes must share a grid.
type Overlay struct {
	base    *Viewer
	overlay *Viewer

	// Hue is the overlay tint in degrees, Alpha its opacity in [0, 1]
	Hue   float64
	Alpha float64
}

// NewOverlay pairs a base volume with an overlay of the same dimensions
func NewOverlay(base, overlay *models.Volume, hue, alpha float64) (*Overlay, error) {
	b, err := NewViewer(base)
	if err != nil {
		return nil, errors.Wrap(err, "base")
	}
	o, err := NewViewer(overlay)
	if err != nil {
		return nil, errors.Wrap(err, "overlay")
	}
	if !models.SameDims(base.Dims, overlay.Dims) {
		return nil, errors.WithHint(
			errors.Newf("overlay %s does not match base %s", models.FormatDims(overlay.Dims), models.FormatDims(base.Dims)),
			"resample the overlay onto the base first")
	}
	if alpha < 0 || alpha > 1 {
		return nil, errors.Newf("alpha must be between 0 and 1, got %g", alpha)
	}
	return &Overlay{base: b, overlay: o, Hue: hue, Alpha: alpha}, nil
}

// Render blends one slice. Overlay intensity drives the brightness of the
// tint; where the overlay is missing the base shows through untouched.
func (ov *Overlay) Render(axis string, position int) (*image.NRGBA, error) {
	p, err := slicePlane(ov.base.vol, axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	for row := 0; row < p.height; row++ {
		for col := 0; col < p.width; col++ {
			x, y, z := p.voxel(col, row)
			g, _ := ov.base.normalize(ov.base.vol.At(x, y, z))
			px := colorful.Color{R: g, G: g, B: g}

			if n, ok := ov.overlay.normalize(ov.overlay.vol.At(x, y, z)); ok {
				tint := colorful.Hsv(ov.Hue, 1, 0.25+0.75*n)
				px = px.BlendRgb(tint, ov.Alpha).Clamped()
			}
			r, gg, b := px.RGB255()
			img.SetNRGBA(col, row, color.NRGBA{R: r, G: gg, B: b, A: 255})
		}
	}
	return img, nil
}

// SaveSequence renders every slice along an axis as PNG files
func (ov *Overlay) SaveSequence(axis string, outputDir string) (int, error) {
	n, err := axisLength(ov.base.vol, axis)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	for pos := 0; pos < n; pos++ {
		img, err := ov.Render(axis, pos)
		if err != nil {
			return pos, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("overlay_%s_%03d.png", axis, pos))
		if err := imaging.Save(squarePixels(img, ov.base.vol, axis), filename); err != nil {
			return pos, errors.Wrapf(err, "saving overlay slice %d", pos)
		}
	}
	return n, nil
}

// RenderOverlay renders a single blended slice
func RenderOverlay(base, overlay *models.Volume, axis string, position int, hue, alpha float64) (*image.NRGBA, error) {
	ov, err := NewOverlay(base, overlay, hue, alpha)
	if err != nil {
		return nil, err
	}
	return ov.Render(axis, position)
}

// SaveOverlaySequence writes every blended slice along axis into outputDir
// and returns the number of images written.
func SaveOverlaySequence(base, overlay *models.Volume, axis, outputDir string, hue, alpha float64) (int, error) {
	ov, err := NewOverlay(base, overlay, hue, alpha)
	if err != nil {
		return 0, err
	}
	return ov.SaveSequence(axis, outputDir)
}
