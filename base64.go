package watermark

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// IsDataURL reports whether input looks like a "data:" URL.
func IsDataURL(input string) bool {
	return strings.HasPrefix(strings.ToLower(input), "data:")
}

// DecodeBase64 decodes base64 input, optionally wrapped in a data URL, into
// raw bytes.
func DecodeBase64(input string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(stripDataPrefix(input))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// DecodeBase64Image decodes a base64-encoded image (optionally a data URL) into
// an image.Image. It returns the decoded image and the detected format string
// ("png", "jpeg", "webp", etc.).
func DecodeBase64Image(input string) (image.Image, string, error) {
	data, err := DecodeBase64(input)
	if err != nil {
		return nil, "", err
	}

	return Decode(bytes.NewReader(data))
}

// EncodePNGToBase64 encodes an image as PNG and returns a base64 string.
func EncodePNGToBase64(img image.Image, level png.CompressionLevel) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, level); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ApplyBase64 watermarks a base64-encoded image and returns the result as
// base64 PNG.
func (e *Engine) ApplyBase64(input string, mark Mark, pos Position, opacity uint8) (string, Info, error) {
	if err := validate(mark, pos); err != nil {
		return "", Info{}, err
	}

	base, _, err := DecodeBase64Image(input)
	if err != nil {
		return "", Info{}, ioError("decode input", "", err)
	}

	out, info, err := e.Watermark(base, mark, pos, opacity)
	if err != nil {
		return "", Info{}, err
	}

	encoded, err := EncodePNGToBase64(out, e.compression)
	if err != nil {
		return "", Info{}, ioError("encode png", "", err)
	}
	return encoded, info, nil
}

func stripDataPrefix(input string) string {
	if IsDataURL(input) {
		if idx := strings.Index(input, ","); idx != -1 {
			return input[idx+1:]
		}
	}
	return input
}
