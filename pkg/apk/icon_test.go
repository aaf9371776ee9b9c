package apk

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractIconPrefersHighDensity(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml":               testManifest(t),
		"res/mipmap-hdpi/ic_launcher.png":   tinyPNG(t),
		"res/mipmap-xxhdpi/ic_launcher.png": tinyPNG(t),
	}))
	require.NoError(t, err)

	data, ext, err := NewIconExtractor().ExtractIcon(pkg)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, StandardIconSize, bounds.Dx())
	assert.Equal(t, StandardIconSize, bounds.Dy())
}

func TestExtractIconSkipsAdaptiveLayers(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml":                          testManifest(t),
		"res/drawable/ic_launcher_foreground.png":      tinyPNG(t),
		"res/drawable/ic_launcher_background.png":      tinyPNG(t),
		"res/drawable-anydpi-v26/ic_launcher_round.png": tinyPNG(t),
	}))
	require.NoError(t, err)

	data, _, err := NewIconExtractor().ExtractIcon(pkg)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestExtractIconMissing(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
	}))
	require.NoError(t, err)

	_, _, err = NewIconExtractor().ExtractIcon(pkg)
	require.Error(t, err)
}

func TestPickIconEntryPriority(t *testing.T) {
	picked := pickIconEntry([]string{
		"res/mipmap-hdpi/ic_launcher.png",
		"res/mipmap-xxxhdpi/ic_launcher.webp",
		"res/mipmap-xhdpi/ic_launcher.png",
	})
	// Raster priority walks mipmap densities high to low; xxxhdpi wins
	// even as webp.
	assert.Equal(t, "res/mipmap-xxxhdpi/ic_launcher.webp", picked)
}
