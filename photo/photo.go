// Package photo decodes article images at a bounded resolution.
//
// Decoding is done in two passes: a bounds-only probe of the header, which
// picks the power-of-two sample size and refuses oversized sources, and then
// the pixel decode itself, resampled so that neither side of the result
// exceeds the configured maximum.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const DefaultMaxDim = 1024

var (
	ErrDecode   = errors.New("cannot decode image")
	ErrTooLarge = errors.New("image too large")
)

// Bounds is the result of the header probe
type Bounds struct {
	Width  int
	Height int
	Format string
}

// Image is a decoded photo whose sides do not exceed the decoder's MaxDim
type Image struct {
	image.Image
	SampleSize int
	Source     Bounds
}

// Probe reads the image header only
func Probe(data []byte) (Bounds, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Bounds{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Bounds{}, fmt.Errorf("%w: empty %s image %dx%d", ErrDecode, format, cfg.Width, cfg.Height)
	}
	return Bounds{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// SampleSize returns the smallest power of two s for which both half
// dimensions divided by s fit into maxDim.
func SampleSize(width, height, maxDim int) int {
	s := 1
	if maxDim <= 0 {
		return s
	}
	halfWidth, halfHeight := width/2, height/2
	for halfHeight/s > maxDim || halfWidth/s > maxDim {
		s *= 2
	}
	return s
}

type Decoder struct {
	MaxDim          int
	MaxSourcePixels int // 0 = no limit
}

func NewDecoder(maxDim, maxSourcePixels int) Decoder {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	return Decoder{MaxDim: maxDim, MaxSourcePixels: maxSourcePixels}
}

// Decode probes data, then decodes and resamples it.
// The standard decoders cannot subsample while decoding, so the probe's
// pixel limit is what bounds the transient full-size decode.
func (d Decoder) Decode(data []byte) (Image, error) {
	bounds, err := Probe(data)
	if err != nil {
		return Image{}, err
	}
	if d.MaxSourcePixels > 0 && int64(bounds.Width)*int64(bounds.Height) > int64(d.MaxSourcePixels) {
		return Image{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, bounds.Width, bounds.Height, d.MaxSourcePixels)
	}

	maxDim := d.MaxDim
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	sample := SampleSize(bounds.Width, bounds.Height, maxDim)

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	srcWidth, srcHeight := src.Bounds().Dx(), src.Bounds().Dy()
	width, height := targetSize(srcWidth, srcHeight, sample, maxDim)
	if width == srcWidth && height == srcHeight {
		return Image{Image: src, SampleSize: sample, Source: bounds}, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return Image{Image: dst, SampleSize: sample, Source: bounds}, nil
}

// targetSize divides by the sample size, then fits the result into
// maxDim x maxDim keeping the aspect ratio.
func targetSize(width, height, sample, maxDim int) (int, int) {
	w := (width + sample - 1) / sample
	h := (height + sample - 1) / sample
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}
