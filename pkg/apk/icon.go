package apk

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/webp"
)

// StandardIconSize is the edge length icons are normalized to.
const StandardIconSize = 144

// IconExtractor pulls the launcher icon out of an opened package and
// normalizes it to a PNG of the standard size.
type IconExtractor struct {
	targetSize uint
}

func NewIconExtractor() *IconExtractor {
	return &IconExtractor{targetSize: StandardIconSize}
}

// Densities in descending preference; the largest available icon
// downscales best.
var iconDensities = []string{"xxxhdpi", "xxhdpi", "xhdpi", "hdpi", "mdpi"}

// ExtractIcon returns the normalized icon bytes and their extension
// (always ".png" after processing).
func (e *IconExtractor) ExtractIcon(pkg *Package) ([]byte, string, error) {
	name := pickIconEntry(pkg.Index().Names())
	if name == "" {
		return nil, "", fmt.Errorf("no launcher icon found")
	}
	data, err := pkg.Index().ReadEntry(name)
	if err != nil {
		return nil, "", err
	}
	return e.process(data, filepath.Ext(name))
}

// pickIconEntry selects the best launcher icon entry: exact res paths by
// density first, then any ic_launcher raster as a last resort. Adaptive
// icon layers (foreground/background) are never the answer.
func pickIconEntry(names []string) string {
	byName := make(map[string]bool, len(names))
	for _, n := range names {
		byName[n] = true
	}

	for _, dir := range []string{"mipmap", "drawable"} {
		for _, density := range iconDensities {
			for _, ext := range []string{".png", ".webp"} {
				candidate := fmt.Sprintf("res/%s-%s/ic_launcher%s", dir, density, ext)
				if byName[candidate] {
					return candidate
				}
			}
		}
	}

	for _, n := range names {
		if !strings.Contains(n, "ic_launcher") {
			continue
		}
		if strings.Contains(n, "_foreground") || strings.Contains(n, "_background") {
			continue
		}
		if strings.HasSuffix(n, ".png") || strings.HasSuffix(n, ".webp") {
			return n
		}
	}
	return ""
}

func (e *IconExtractor) process(data []byte, ext string) ([]byte, string, error) {
	var img image.Image
	var err error
	if ext == ".webp" {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, "", fmt.Errorf("decoding icon: %w", err)
	}

	scaled := resize.Resize(e.targetSize, e.targetSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, "", fmt.Errorf("encoding icon: %w", err)
	}
	return buf.Bytes(), ".png", nil
}
