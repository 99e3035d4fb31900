package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// ErrUnknownFormat is returned for output formats other than webp and png.
var ErrUnknownFormat = errors.New("render: unknown format")

// Format is an image output format.
type Format string

const (
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

// FormatFor guesses the format from a file name, defaulting to WebP.
func FormatFor(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		return FormatPNG
	}
	return FormatWebP
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatWebP:
		return EncodeWebP(w, img)
	case FormatPNG:
		return EncodePNG(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("render: webp: %w", err)
	}
	return nil
}

func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: png: %w", err)
	}
	return nil
}
