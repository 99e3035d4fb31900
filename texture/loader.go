// Package texture loads body and background images from disk.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

var (
	ErrNotFound    = errors.New("texture: not found")
	ErrInvalidName = errors.New("texture: invalid name")
	ErrReleased    = errors.New("texture: cache released")
	ErrUnsupported = errors.New("texture: unsupported format")
)

// Loader reads textures from a directory. Images with an edge longer than
// MaxEdge are scaled down; zero keeps the original size.
type Loader struct {
	Root    string
	MaxEdge int
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string, maxEdge int) *Loader {
	return &Loader{Root: dir, MaxEdge: maxEdge}
}

// Load decodes the named texture. Names are slash-separated and must stay
// inside Root.
func (l *Loader) Load(name string) (*image.NRGBA, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(l.Root, filepath.FromSlash(name))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", name, err)
	}
	defer f.Close()

	img, err := Decode(name, f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", name, err)
	}
	return Downsize(img, l.MaxEdge), nil
}

// Decode reads a JPEG, PNG or TGA image as NRGBA. The format comes from the
// extension of name; TGA has no magic number to sniff.
func Decode(name string, r io.Reader) (*image.NRGBA, error) {
	var decode func(io.Reader) (image.Image, error)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		decode = png.Decode
	case ".jpg", ".jpeg":
		decode = jpeg.Decode
	case ".tga":
		decode = tga.Decode
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Downsize scales img so that its longest edge is at most maxEdge, keeping
// the aspect ratio. It returns img unchanged when no scaling is needed.
func Downsize(img *image.NRGBA, maxEdge int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
