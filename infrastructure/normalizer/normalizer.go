// Package normalizer implements the Image Normalizer (C4): decode,
// validate, downscale to pixel/byte budgets, re-encode.
package normalizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"drivesync/domain/services"
)

func init() {
	// image.DecodeConfig needs every format's header reader registered so
	// pixel counts can be read without a full decode.
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("webp", "RIFF", webp.Decode, webp.DecodeConfig)
}

const (
	absoluteMaxPixels = 100_000_000
	maxOutputBytes    = 5 * 1024 * 1024
	minScale          = 0.3
	startQuality      = 90
	minQuality        = 60
	qualityStep       = 10
)

// Normalizer implements services.Normalizer against Go's standard image
// decoders plus golang.org/x/image's bmp/webp decode-only support and
// CatmullRom high-quality resampling — there is no third-party-from-the-
// pack alternative for this job (see DESIGN.md).
type Normalizer struct {
	maxPixels int
}

// New builds a Normalizer with the given pixel budget (default 2,300,000
// per §4.2 when maxPixels is zero).
func New(maxPixels int) *Normalizer {
	if maxPixels <= 0 {
		maxPixels = 2_300_000
	}
	return &Normalizer{maxPixels: maxPixels}
}

func (n *Normalizer) Normalize(ctx context.Context, data []byte, filename string) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, services.NewNormalizeError(services.CorruptReasonCannotIdentify, err)
	}

	pixels := cfg.Width * cfg.Height
	if pixels > absoluteMaxPixels {
		return nil, services.NewNormalizeError(services.CorruptReasonTooLarge, fmt.Errorf("%d pixels exceeds absolute ceiling", pixels))
	}

	if pixels <= n.maxPixels {
		// Verify the body actually decodes (catches truncated/corrupt
		// payloads that pass header parsing) before accepting it unchanged.
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return nil, services.NewNormalizeError(services.CorruptReasonOpenError, err)
		}
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.NewNormalizeError(services.CorruptReasonOpenError, err)
	}

	scale := math.Max(minScale, math.Sqrt(float64(n.maxPixels)/float64(pixels)))
	srcBounds := img.Bounds()
	newW := int(float64(srcBounds.Dx()) * scale)
	newH := int(float64(srcBounds.Dy()) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	opaque := compositeOnWhite(img)
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), opaque, opaque.Bounds(), xdraw.Over, nil)

	out, err := encodeWithBudget(dst)
	if err != nil {
		return nil, services.NewNormalizeError(services.CorruptReasonResizeFailure, err)
	}
	return out, nil
}

// compositeOnWhite flattens any alpha channel onto an opaque white
// background, matching the spec's "composite onto white if source has
// alpha" step.
func compositeOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Over)
	return rgba
}

func encodeWithBudget(img image.Image) ([]byte, error) {
	quality := startQuality
	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
		if buf.Len() <= maxOutputBytes || quality < minQuality {
			return buf.Bytes(), nil
		}
		quality -= qualityStep
	}
}

// ensure gif/png decoders stay linked in for image.Decode's format registry
var (
	_ = gif.Decode
	_ = png.Decode
)

var _ services.Normalizer = (*Normalizer)(nil)
