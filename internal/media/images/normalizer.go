// Package images prepares chat photos for upload to the search API.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

// DefaultCeiling is the upload limit of the search API.
const DefaultCeiling = 10 << 20

const (
	baselineQuality = 90
	scaledQuality   = 70
)

var (
	qualityLadder = []int{85, 70, 55, 40}
	scaleLadder   = []float64{0.8, 0.6, 0.4}
)

// Payload is an encoded image ready for submission.
type Payload struct {
	Data        []byte
	Format      string // "jpeg", or the sniffed source format when Passthrough
	Width       int
	Height      int
	Quality     int
	Scale       float64
	Passthrough bool // raw input returned because it could not be decoded
	Attempts    int  // encodings tried
}

// ContentType returns the MIME type of the payload data.
func (p Payload) ContentType() string {
	if p.Format == "jpeg" {
		return "image/jpeg"
	}
	return http.DetectContentType(p.Data)
}

// Normalizer re-encodes images as JPEG under a byte ceiling, trading quality
// first and resolution second.
type Normalizer struct {
	ceiling int
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer. A non-positive ceiling selects
// DefaultCeiling.
func NewNormalizer(ceiling int64, logger *slog.Logger) *Normalizer {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Normalizer{ceiling: int(ceiling), logger: logger}
}

// Normalize decodes raw, flattens transparency onto white and encodes it as
// JPEG, stepping through the quality then the scale ladder until the result
// fits the ceiling. When nothing fits, the smallest attempt is returned.
// Undecodable input is returned unchanged.
func (n *Normalizer) Normalize(raw []byte) Payload {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		n.logger.Warn("image decode failed, passing raw bytes through",
			"size", len(raw),
			"error", domainerrors.Wrap(err, domainerrors.CodeDecode, "decode image"),
		)
		return passthrough(raw)
	}

	img := flatten(src)
	b := img.Bounds()

	var (
		best     Payload
		attempts int
	)
	try := func(im image.Image, quality int, scale float64) (Payload, bool, error) {
		attempts++
		data, err := encodeJPEG(im, quality)
		if err != nil {
			return Payload{}, false, err
		}
		p := Payload{
			Data:     data,
			Format:   "jpeg",
			Width:    im.Bounds().Dx(),
			Height:   im.Bounds().Dy(),
			Quality:  quality,
			Scale:    scale,
			Attempts: attempts,
		}
		if best.Data == nil || len(p.Data) < len(best.Data) {
			best = p
		}
		return p, len(data) <= n.ceiling, nil
	}

	p, ok, err := try(img, baselineQuality, 1)
	if err != nil {
		return n.encodeFailed(raw, err)
	}
	if ok {
		return p
	}

	for _, q := range qualityLadder {
		p, ok, err := try(img, q, 1)
		if err != nil {
			return n.encodeFailed(raw, err)
		}
		if ok {
			n.logDownsized(format, len(raw), p)
			return p
		}
	}

	for _, s := range scaleLadder {
		w, h := scaled(b.Dx(), s), scaled(b.Dy(), s)
		p, ok, err := try(imaging.Resize(img, w, h, imaging.Lanczos), scaledQuality, s)
		if err != nil {
			return n.encodeFailed(raw, err)
		}
		if ok {
			n.logDownsized(format, len(raw), p)
			return p
		}
	}

	best.Attempts = attempts
	n.logger.Warn("image still above ceiling after all attempts",
		"ceiling", n.ceiling,
		"size", len(best.Data),
		"width", best.Width,
		"height", best.Height,
	)
	return best
}

func (n *Normalizer) logDownsized(format string, rawSize int, p Payload) {
	n.logger.Debug("image downsized",
		"source_format", format,
		"source_size", rawSize,
		"size", len(p.Data),
		"quality", p.Quality,
		"scale", p.Scale,
		"attempts", p.Attempts,
	)
}

func (n *Normalizer) encodeFailed(raw []byte, err error) Payload {
	n.logger.Error("jpeg encode failed, passing raw bytes through", "error", err)
	return passthrough(raw)
}

func passthrough(raw []byte) Payload {
	format := "unknown"
	if ct := http.DetectContentType(raw); strings.HasPrefix(ct, "image/") {
		format = strings.TrimPrefix(ct, "image/")
	}
	return Payload{Data: raw, Format: format, Passthrough: true, Scale: 1}
}

// flatten composites images that may carry transparency onto an opaque
// white background.
func flatten(img image.Image) image.Image {
	switch im := img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return img
	case *image.Paletted:
		// palette entries may be transparent; always composite
	case interface{ Opaque() bool }:
		if im.Opaque() {
			return img
		}
	}

	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// scaled truncates like an integer conversion but never returns zero.
func scaled(n int, factor float64) int {
	return max(int(float64(n)*factor), 1)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg (q=%d): %w", quality, err)
	}
	return buf.Bytes(), nil
}
