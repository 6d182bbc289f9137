package watermark

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"sync"

	"go.uber.org/zap"
)

var errEmptyImage = errors.New("image has no pixels")

// Info captures the rendered size and placement of a watermark.
type Info struct {
	Size     image.Point
	Position image.Rectangle
	// FontFallback is set when the preferred font could not be loaded and a
	// built-in face was used instead.
	FontFallback bool
}

// Engine composites watermarks onto images. Its zero value is not usable;
// construct one with NewEngine. An Engine is safe for concurrent use.
type Engine struct {
	fontPath     string
	fontFallback FontFallback
	compression  png.CompressionLevel
	log          *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFontPath sets the preferred TrueType/OpenType font for text marks.
func WithFontPath(path string) Option {
	return func(e *Engine) { e.fontPath = path }
}

// WithFontFallback selects the built-in face used when the preferred font is
// missing or unreadable.
func WithFontFallback(f FontFallback) Option {
	return func(e *Engine) { e.fontFallback = f }
}

// WithCompression sets the PNG compression level of written images.
func WithCompression(level png.CompressionLevel) Option {
	return func(e *Engine) { e.compression = level }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l == nil {
			l = zap.NewNop()
		}
		e.log = l
	}
}

// NewEngine constructs an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fontFallback: FallbackGoMono,
		compression:  png.DefaultCompression,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine struct {
	once sync.Once
	eng  *Engine
}

// Apply watermarks the image at src and writes a PNG to dst using the default
// engine.
func Apply(src, dst string, mark Mark, pos Position, opacity uint8) (Info, error) {
	defaultEngine.once.Do(func() {
		defaultEngine.eng = NewEngine()
	})

	return defaultEngine.eng.Apply(src, dst, mark, pos, opacity)
}

// Apply reads the image at src, composites mark onto it and writes the result
// to dst as PNG regardless of the source format. No file is written when any
// step fails.
func (e *Engine) Apply(src, dst string, mark Mark, pos Position, opacity uint8) (Info, error) {
	out, info, err := e.Render(src, mark, pos, opacity)
	if err != nil {
		return Info{}, err
	}

	data, err := e.encode(out)
	if err != nil {
		return Info{}, err
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return Info{}, pathError("write output", dst, err)
	}

	e.log.Info("watermarked image saved",
		zap.String("input", src),
		zap.String("output", dst),
		zap.String("position", pos.String()),
		zap.Stringer("placement", info.Position))
	return info, nil
}

// Render reads the image at src and composites mark onto it without writing
// anything.
func (e *Engine) Render(src string, mark Mark, pos Position, opacity uint8) (*image.NRGBA, Info, error) {
	if err := validate(mark, pos); err != nil {
		return nil, Info{}, err
	}

	base, err := openImage("open input", src)
	if err != nil {
		return nil, Info{}, err
	}
	return e.Watermark(base, mark, pos, opacity)
}

// ApplyBytes watermarks an in-memory image and returns the PNG encoding.
func (e *Engine) ApplyBytes(src []byte, mark Mark, pos Position, opacity uint8) ([]byte, Info, error) {
	if err := validate(mark, pos); err != nil {
		return nil, Info{}, err
	}

	base, _, err := DecodeImageBytes(src)
	if err != nil {
		return nil, Info{}, ioError("decode input", "", err)
	}

	out, info, err := e.Watermark(base, mark, pos, opacity)
	if err != nil {
		return nil, Info{}, err
	}

	data, err := e.encode(out)
	if err != nil {
		return nil, Info{}, err
	}
	return data, info, nil
}

// Watermark composites mark onto a copy of base. The result is anchored at
// the origin, always has base's dimensions and keeps base's straight alpha
// outside the mark.
func (e *Engine) Watermark(base image.Image, mark Mark, pos Position, opacity uint8) (*image.NRGBA, Info, error) {
	if base == nil {
		return nil, Info{}, invalidArgument("watermark", "nil image provided")
	}
	if err := validate(mark, pos); err != nil {
		return nil, Info{}, err
	}

	canvas := toNRGBA(base)
	if canvas.Rect.Empty() {
		return nil, Info{}, ioError("watermark", "", errEmptyImage)
	}

	info, err := mark.render(e, canvas, pos, opacity)
	if err != nil {
		return nil, Info{}, err
	}

	e.log.Debug("composited watermark",
		zap.Stringer("canvas", canvas.Rect.Size()),
		zap.Stringer("placement", info.Position),
		zap.Uint8("opacity", opacity))
	return canvas, info, nil
}

func validate(mark Mark, pos Position) error {
	if mark == nil {
		return invalidArgument("watermark", "no watermark given")
	}
	if pos.IsNamed() && !pos.Anchor.valid() {
		return invalidArgument("resolve position", "unknown position %q: use top-left, center or bottom-right", pos.Anchor)
	}
	return nil
}

func (e *Engine) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, e.compression); err != nil {
		return nil, ioError("encode png", "", err)
	}
	return buf.Bytes(), nil
}
