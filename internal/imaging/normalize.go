// Package imaging bounds image payloads before they are sent to the model.
// Normalization is best-effort: the caller always gets an image back, just
// not always a smaller one.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultMaxDim is the largest edge forwarded to the model.
const DefaultMaxDim = 1024

const jpegQuality = 85

type Normalizer struct {
	maxDim int
	logger *slog.Logger
}

func NewNormalizer(maxDim int, logger *slog.Logger) *Normalizer {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{maxDim: maxDim, logger: logger}
}

// Normalize decodes, downscales so neither dimension exceeds the bound
// (aspect preserved, no upscaling), flattens alpha and palette modes onto
// RGB, and re-encodes as JPEG. On any failure the original bytes are
// forwarded unchanged rather than dropping the image.
func (n *Normalizer) Normalize(data []byte) []byte {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		n.logger.Warn("imaging.decode_failed", "error", err, "bytes", len(data))
		return data
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return data
	}

	tw, th := boundDims(w, h, n.maxDim)

	// flatten onto RGB; JPEG has no alpha and the model rejects exotic modes
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	if tw == w && th == h {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		n.logger.Warn("imaging.encode_failed", "error", err)
		return data
	}

	n.logger.Debug("imaging.normalized",
		"format", format,
		"from", [2]int{w, h},
		"to", [2]int{tw, th},
		"in_bytes", len(data),
		"out_bytes", buf.Len(),
	)
	return buf.Bytes()
}

// boundDims scales (w, h) down so the longest edge is at most maxDim.
func boundDims(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

// MIME sniffs the payload's content type for the inline data URL. Anything
// unrecognized ships as PNG, which is what the extractors emit.
func MIME(data []byte) string {
	ct := http.DetectContentType(data)
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return ct
	default:
		return "image/png"
	}
}
