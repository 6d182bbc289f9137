package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"

	// Register common decoders, including WebP, BMP and TIFF via x/image.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Decode reads an image from the reader, returning the decoded image and the
// detected format string ("png", "jpeg", "webp", etc.). JPEG EXIF orientation
// is applied so the pixels match what a viewer shows.
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// DecodeImageBytes decodes an in-memory image.
func DecodeImageBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	return Decode(bytes.NewReader(data))
}

// EncodePNG writes the provided image to the writer as PNG at the given
// compression level.
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	enc := png.Encoder{CompressionLevel: level}
	return enc.Encode(w, img)
}

// openImage decodes the image stored at path.
func openImage(op, path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pathError(op, path, err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, ioError(op, path, fmt.Errorf("decode: %w", err))
	}
	return img, nil
}

// toNRGBA converts img to a non-premultiplied 4-channel buffer anchored at the
// origin. Images without alpha become fully opaque.
func toNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
