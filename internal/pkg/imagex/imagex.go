package imagex

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// FitDimensions scales (w, h) down so that neither dimension exceeds max,
// preserving aspect ratio. Images already within the bound are returned
// unchanged; this never upscales.
func FitDimensions(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, h * max / w
	}
	return w * max / h, max
}

// DetectMime sniffs the content type from the leading bytes, with any
// charset parameters stripped.
func DetectMime(data []byte) string {
	mime := http.DetectContentType(data)
	return strings.Split(mime, ";")[0]
}

// DataURI encodes raw bytes as a data URI with the given MIME type.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// TransparentPlaceholder renders the 1x1 fully-transparent PNG the server
// uses as its "no image" convention. Submitting it in an update clears the
// stored image.
func TransparentPlaceholder() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{})

	var buf bytes.Buffer
	// Encoding a 1x1 image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// IsPlaceholder reports whether data decodes to an exactly 1x1 image.
// Dimension is the whole check; the convention does not inspect pixel values.
func IsPlaceholder(data []byte) bool {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return cfg.Width == 1 && cfg.Height == 1
}
