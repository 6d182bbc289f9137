package watermark

import (
	"image"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// markWidthRatio is the width of an image mark relative to the canvas width.
const markWidthRatio = 0.1

// Mark is a watermark that can be composited onto a canvas. It is implemented
// by ImageMark and TextMark only.
type Mark interface {
	// render draws the mark onto canvas and reports where it landed.
	render(e *Engine, canvas *image.NRGBA, pos Position, opacity uint8) (Info, error)
}

// ImageMark is a raster watermark read from Path, or from Data when set.
type ImageMark struct {
	Path string
	Data []byte
}

// TextMark is a text watermark drawn in white at Size pixels.
type TextMark struct {
	Text string
	Size float64
}

var (
	_ Mark = ImageMark{}
	_ Mark = TextMark{}
)

func (m ImageMark) load() (image.Image, error) {
	if len(m.Data) > 0 {
		img, _, err := DecodeImageBytes(m.Data)
		if err != nil {
			return nil, ioError("decode watermark", "", err)
		}
		return img, nil
	}
	if m.Path == "" {
		return nil, invalidArgument("load watermark", "no watermark image path or data")
	}
	return openImage("open watermark", m.Path)
}

func (m ImageMark) render(e *Engine, canvas *image.NRGBA, pos Position, opacity uint8) (Info, error) {
	src, err := m.load()
	if err != nil {
		return Info{}, err
	}

	mark := toNRGBA(src)
	if mark.Rect.Empty() {
		return Info{}, ioError("decode watermark", m.Path, errEmptyImage)
	}

	width, height := scaledSize(canvas.Rect.Dx(), mark.Rect.Dx(), mark.Rect.Dy())
	resized := toNRGBA(resize.Resize(uint(width), uint(height), mark, resize.Lanczos3))
	e.log.Debug("resized image watermark",
		zap.Stringer("from", mark.Rect.Size()),
		zap.Stringer("to", resized.Rect.Size()))

	offset, err := pos.resolve(canvas.Rect.Size(), resized.Rect.Size())
	if err != nil {
		return Info{}, err
	}

	setAlpha(resized, opacity)
	dst := compositeOver(canvas, resized, offset)

	return Info{Size: resized.Rect.Size(), Position: dst}, nil
}

func (m TextMark) render(e *Engine, canvas *image.NRGBA, pos Position, opacity uint8) (Info, error) {
	if m.Text == "" {
		return Info{}, invalidArgument("render text", "watermark text is empty")
	}
	if m.Size <= 0 {
		return Info{}, invalidArgument("render text", "font size %v must be positive", m.Size)
	}

	face, loadErr, err := loadFace(e.fontPath, m.Size, e.fontFallback)
	if err != nil {
		return Info{}, ioError("load font", e.fontPath, err)
	}
	defer face.Close()

	fellBack := loadErr != nil
	if fellBack {
		e.log.Warn("preferred font unavailable, using built-in fallback; text size may differ",
			zap.String("font", e.fontPath),
			zap.String("fallback", string(e.fontFallback)),
			zap.Error(loadErr))
	}

	bounds, _ := font.BoundString(face, m.Text)
	size := image.Pt((bounds.Max.X - bounds.Min.X).Ceil(), (bounds.Max.Y - bounds.Min.Y).Ceil())

	offset, err := pos.resolve(canvas.Rect.Size(), size)
	if err != nil {
		return Info{}, err
	}

	// The top-left of the ink box, not the baseline origin, lands on offset.
	coverage := image.NewAlpha(canvas.Rect)
	d := &font.Drawer{
		Dst:  coverage,
		Src:  image.Opaque,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(offset.X) - bounds.Min.X,
			Y: fixed.I(offset.Y) - bounds.Min.Y,
		},
	}
	d.DrawString(m.Text)

	compositeOver(canvas, whiteLayer(coverage, opacity), canvas.Rect.Min)

	return Info{
		Size:         size,
		Position:     image.Rectangle{Min: offset, Max: offset.Add(size)},
		FontFallback: fellBack,
	}, nil
}

// scaledSize returns the mark dimensions for a canvas of the given width,
// keeping the mark's aspect ratio. Both dimensions are at least one pixel.
func scaledSize(canvasWidth, markWidth, markHeight int) (int, int) {
	width := int(float64(canvasWidth) * markWidthRatio)
	height := int(float64(markHeight) * (float64(width) / float64(markWidth)))
	return max(width, 1), max(height, 1)
}

// whiteLayer turns glyph coverage into white pixels whose alpha is the
// coverage scaled by opacity.
func whiteLayer(coverage *image.Alpha, opacity uint8) *image.NRGBA {
	layer := image.NewNRGBA(coverage.Rect)
	for y := 0; y < coverage.Rect.Dy(); y++ {
		for x := 0; x < coverage.Rect.Dx(); x++ {
			c := uint32(coverage.Pix[y*coverage.Stride+x])
			if c == 0 {
				continue
			}
			o := y*layer.Stride + x*4
			p := layer.Pix[o : o+4 : o+4]
			p[0], p[1], p[2] = 255, 255, 255
			p[3] = uint8((c*uint32(opacity) + 127) / 255)
		}
	}
	return layer
}

// compositeOver blends src onto dst with src's top-left at pt, using
// non-premultiplied source-over. Fully transparent src pixels leave dst
// untouched and fully opaque ones replace it. It returns the unclipped
// placement of src.
func compositeOver(dst, src *image.NRGBA, pt image.Point) image.Rectangle {
	placed := image.Rectangle{Min: pt, Max: pt.Add(src.Rect.Size())}
	clip := placed.Intersect(dst.Rect)
	shift := src.Rect.Min.Sub(pt)

	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			i := src.PixOffset(x+shift.X, y+shift.Y)
			s := src.Pix[i : i+4 : i+4]
			sa := uint32(s[3])
			if sa == 0 {
				continue
			}
			j := dst.PixOffset(x, y)
			d := dst.Pix[j : j+4 : j+4]
			if sa == 255 {
				copy(d, s)
				continue
			}

			// Alpha in units of 255*255.
			da := uint32(d[3])
			oa := sa*255 + da*(255-sa)
			for c := 0; c < 3; c++ {
				d[c] = uint8((uint32(s[c])*sa*255 + uint32(d[c])*da*(255-sa) + oa/2) / oa)
			}
			d[3] = uint8((oa + 127) / 255)
		}
	}
	return placed
}

// setAlpha replaces every pixel's alpha with a, keeping colour.
func setAlpha(img *image.NRGBA, a uint8) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = a
		}
	}
}
