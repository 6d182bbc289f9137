package watermark

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// FontFallback selects the built-in face used when no preferred font is
// configured or the preferred font cannot be loaded.
type FontFallback string

const (
	// FallbackGoMono renders the embedded Go Mono font at the requested size.
	FallbackGoMono FontFallback = "gomono"
	// FallbackBasic renders a fixed 7x13 bitmap face. The requested size is
	// ignored.
	FallbackBasic FontFallback = "basic"
)

// fontDPI makes one point equal one pixel, so sizes are pixel heights.
const fontDPI = 72

var goMono struct {
	once sync.Once
	font *opentype.Font
	err  error
}

// loadFace opens the preferred font at size. When the preferred font is
// configured but cannot be loaded, the fallback face is returned together with
// the load failure in loadErr. An empty path uses the fallback directly.
func loadFace(path string, size float64, fallback FontFallback) (face font.Face, loadErr, err error) {
	if path != "" {
		face, loadErr = loadFontFile(path, size)
		if loadErr == nil {
			return face, nil, nil
		}
	}

	face, err = fallbackFace(fallback, size)
	return face, loadErr, err
}

func loadFontFile(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return newFace(f, size)
}

func fallbackFace(fallback FontFallback, size float64) (font.Face, error) {
	switch fallback {
	case FallbackBasic:
		return basicfont.Face7x13, nil
	case FallbackGoMono, "":
		goMono.once.Do(func() {
			goMono.font, goMono.err = opentype.Parse(gomono.TTF)
		})
		if goMono.err != nil {
			return nil, fmt.Errorf("parse embedded gomono: %w", goMono.err)
		}
		return newFace(goMono.font, size)
	}
	return nil, fmt.Errorf("unsupported font fallback %q", fallback)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
}
