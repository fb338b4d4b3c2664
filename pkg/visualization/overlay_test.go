package visualization

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrioverlay/internal/models"
)

// TestRenderOverlayLeavesMissingUntouched verifies NaN overlay samples show the base
func TestRenderOverlayLeavesMissingUntouched(t *testing.T) {
	base := layeredVolume(4, 4, 3)
	overlay := models.NewVolume(4, 4, 3)
	for i := range overlay.Data {
		overlay.Data[i] = math.NaN()
	}
	overlay.Set(1, 1, 2, 10)
	overlay.Set(2, 2, 2, 20)

	img, err := RenderOverlay(base, overlay, "z", 2, 0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	// base slice 2 is the brightest layer
	plain := img.NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), plain.R)
	assert.Equal(t, plain.R, plain.G)
	assert.Equal(t, plain.G, plain.B)

	// a red tint over white keeps red and loses green and blue
	tinted := img.NRGBAAt(2, 2)
	assert.Equal(t, uint8(255), tinted.R)
	assert.Less(t, tinted.G, uint8(255))
	assert.Equal(t, tinted.G, tinted.B)
}

// TestRenderOverlayOpacity verifies zero alpha reproduces the grayscale base
func TestRenderOverlayOpacity(t *testing.T) {
	base := layeredVolume(3, 3, 3)
	overlay := layeredVolume(3, 3, 3)

	img, err := RenderOverlay(base, overlay, "x", 1, 120, 0)
	require.NoError(t, err)
	px := img.NRGBAAt(1, 1)
	assert.Equal(t, px.R, px.G)
	assert.Equal(t, px.G, px.B)
}

// TestNewOverlayValidation checks shape and alpha errors
func TestNewOverlayValidation(t *testing.T) {
	_, err := NewOverlay(layeredVolume(3, 3, 3), layeredVolume(3, 3, 4), 0, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")

	_, err = NewOverlay(layeredVolume(3, 3, 3), layeredVolume(3, 3, 3), 0, 2)
	assert.Error(t, err)

	_, err = NewOverlay(models.NewVolume(3, 3), layeredVolume(3, 3, 3), 0, 0.5)
	assert.Error(t, err)
}

// TestSaveOverlaySequence verifies one PNG per slice is written
func TestSaveOverlaySequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}
	dir := filepath.Join(t.TempDir(), "overlay")

	n, err := SaveOverlaySequence(layeredVolume(4, 3, 2), layeredVolume(4, 3, 2), "z", dir, 200, 0.4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "overlay_z_000.png", entries[0].Name())

	_, err = SaveOverlaySequence(layeredVolume(4, 3, 2), layeredVolume(4, 3, 2), "w", dir, 200, 0.4)
	assert.Error(t, err)
}
