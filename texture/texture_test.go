package texture_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/plus3/orrery/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoaderDecodesPNG(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "red.png", 8, 4, color.RGBA{R: 255, A: 255})

	img, err := texture.NewLoader(dir, 0).Load("red.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(3, 2))
}

func TestLoaderDecodesJPEG(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	f, err := os.Create(filepath.Join(dir, "gray.jpg"))
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, src, nil))
	require.NoError(t, f.Close())

	img, err := texture.NewLoader(dir, 0).Load("gray.jpg")
	require.NoError(t, err)
	px := img.NRGBAAt(8, 8)
	assert.Equal(t, uint8(255), px.A)
	assert.InDelta(t, 200, int(px.R), 2)
}

func TestLoaderDownsizes(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "wide.png", 64, 16, color.White)

	img, err := texture.NewLoader(dir, 32).Load("wide.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 8), img.Bounds())
}

func TestDecodeByExtension(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	var pngData, tgaData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, src))
	require.NoError(t, tga.Encode(&tgaData, src))

	img, err := texture.Decode("white.png", bytes.NewReader(pngData.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(1, 1))

	img, err = texture.Decode("WHITE.TGA", bytes.NewReader(tgaData.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(2, 3))

	_, err = texture.Decode("white.bmp", bytes.NewReader(pngData.Bytes()))
	assert.ErrorIs(t, err, texture.ErrUnsupported)
}

func TestLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644))
	loader := texture.NewLoader(dir, 0)

	_, err := loader.Load("absent.jpg")
	assert.ErrorIs(t, err, texture.ErrNotFound)

	_, err = loader.Load("../escape.png")
	assert.ErrorIs(t, err, texture.ErrInvalidName)

	_, err = loader.Load("junk.png")
	assert.ErrorContains(t, err, "texture: decode junk.png")
}

type countingSource struct {
	mu    sync.Mutex
	loads map[string]int
}

func (s *countingSource) Load(name string) (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[name]++
	if name == "missing" {
		return nil, texture.ErrNotFound
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestCacheMemoizes(t *testing.T) {
	src := &countingSource{loads: map[string]int{}}
	cache := texture.NewCache(src)

	a, err := cache.Texture("a")
	require.NoError(t, err)
	b, err := cache.Texture("a")
	require.NoError(t, err)
	assert.Same(t, a, b)

	for range 3 {
		_, err = cache.Texture("missing")
		assert.ErrorIs(t, err, texture.ErrNotFound)
	}
	assert.Equal(t, map[string]int{"a": 1, "missing": 1}, src.loads)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheConcurrentLookups(t *testing.T) {
	cache := texture.NewCache(&countingSource{loads: map[string]int{}})

	var wg sync.WaitGroup
	results := make([]*image.NRGBA, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = cache.Texture("shared")
		}()
	}
	wg.Wait()

	for _, img := range results {
		assert.Same(t, results[0], img)
	}
}

func TestCacheRelease(t *testing.T) {
	cache := texture.NewCache(&countingSource{loads: map[string]int{}})
	_, err := cache.Texture("a")
	require.NoError(t, err)

	cache.Release()
	assert.True(t, cache.Released())
	assert.Zero(t, cache.Len())
	cache.Release()

	_, err = cache.Texture("a")
	assert.True(t, errors.Is(err, texture.ErrReleased))
}
