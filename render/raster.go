package render

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/plus3/orrery/solar"
	"golang.org/x/image/draw"
)

// Rasterizer draws frames into a reusable RGBA buffer. It is not safe for
// concurrent use.
type Rasterizer struct {
	img *image.RGBA

	bgSrc    *image.NRGBA
	bgScaled *image.RGBA
}

// NewRasterizer allocates a w×h target.
func NewRasterizer(w, h int) *Rasterizer {
	r := &Rasterizer{}
	r.Resize(w, h)
	return r
}

// Resize reallocates the target. Zero or negative sizes are ignored.
func (r *Rasterizer) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if r.img != nil && r.img.Bounds().Dx() == w && r.img.Bounds().Dy() == h {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, w, h))
	r.bgScaled = nil
}

// Image returns the last rendered frame.
func (r *Rasterizer) Image() *image.RGBA {
	return r.img
}

// Render draws frame and returns the target buffer, which is reused by the
// next call.
func (r *Rasterizer) Render(frame solar.Frame) *image.RGBA {
	r.Resize(frame.Width, frame.Height)
	r.background(frame.Background)

	lighting := newLighting(frame)
	for _, d := range Project(frame) {
		r.disc(d, lighting)
	}
	return r.img
}

func (r *Rasterizer) background(bg solar.Background) {
	if bg.Texture == nil {
		draw.Draw(r.img, r.img.Bounds(), image.NewUniform(bg.Color), image.Point{}, draw.Src)
		return
	}
	if r.bgScaled == nil || r.bgSrc != bg.Texture {
		r.bgSrc = bg.Texture
		r.bgScaled = image.NewRGBA(r.img.Bounds())
		draw.BiLinear.Scale(r.bgScaled, r.bgScaled.Bounds(), bg.Texture, bg.Texture.Bounds(), draw.Src, nil)
	}
	copy(r.img.Pix, r.bgScaled.Pix)
}

type lighting struct {
	forward, right, up vec3
	light              vec3
	lightColor         [3]float32
	ambient            [3]float32
}

func newLighting(frame solar.Frame) *lighting {
	f, rt, u := frame.Camera.Basis()
	l := &lighting{
		forward: fromR3(f),
		right:   fromR3(rt),
		up:      fromR3(u),
		light:   fromR3(frame.Light.Position),
	}
	li := float32(frame.Light.Intensity)
	ai := float32(frame.Ambient.Intensity)
	l.lightColor = channels(frame.Light.Color, li)
	l.ambient = channels(frame.Ambient.Color, ai)
	return l
}

func channels(c color.NRGBA, intensity float32) [3]float32 {
	return [3]float32{
		float32(c.R) / 255 * intensity,
		float32(c.G) / 255 * intensity,
		float32(c.B) / 255 * intensity,
	}
}

// disc shades every pixel inside the projected sphere.
func (r *Rasterizer) disc(d Disc, l *lighting) {
	bounds := r.img.Bounds()
	x0 := max(bounds.Min.X, int(math32.Floor(d.X-d.Radius)))
	x1 := min(bounds.Max.X, int(math32.Ceil(d.X+d.Radius)))
	y0 := max(bounds.Min.Y, int(math32.Floor(d.Y-d.Radius)))
	y1 := min(bounds.Max.Y, int(math32.Ceil(d.Y+d.Radius)))

	body := d.Body
	rot := eulerXYZ(body.Rotation)
	center := fromR3(body.Position)
	radius := float32(body.Radius)
	opacity := float32(body.Opacity)

	var faces []vec3
	switch body.Kind {
	case solar.KindDodecahedron:
		faces = dodecahedronFaces
	case solar.KindIcosahedron:
		faces = icosahedronFaces
	}

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			sx := (float32(px) + 0.5 - d.X) / d.Radius
			sy := (float32(py) + 0.5 - d.Y) / d.Radius
			d2 := sx*sx + sy*sy
			if d2 > 1 {
				continue
			}
			sz := math32.Sqrt(1 - d2)

			world := l.right.scale(sx).add(l.up.scale(-sy)).add(l.forward.scale(-sz))
			local := rot.applyInverse(world)
			if faces != nil {
				local = facet(local, faces)
				world = rot.apply(local)
			}

			c := shade(body, local, world, center.add(world.scale(radius)), l)
			r.blend(px, py, c, opacity)
		}
	}
}

// shade returns the lit surface colour in [0, 1] per channel.
func shade(body solar.BodyState, local, normal, point vec3, l *lighting) [3]float32 {
	base := [3]float32{
		float32(body.Color.R) / 255,
		float32(body.Color.G) / 255,
		float32(body.Color.B) / 255,
	}
	if body.Texture != nil {
		u, v := equirect(local)
		tex := sample(body.Texture, u, v)
		for i := range base {
			base[i] *= tex[i]
		}
	}
	if body.Emissive {
		return base
	}

	diffuse := math32.Max(0, normal.dot(l.light.sub(point).unit()))
	var out [3]float32
	for i := range out {
		out[i] = math32.Min(1, base[i]*(l.ambient[i]+l.lightColor[i]*diffuse))
	}
	return out
}

// sample is a nearest-neighbour lookup.
func sample(img *image.NRGBA, u, v float32) [3]float32 {
	b := img.Bounds()
	x := b.Min.X + min(b.Dx()-1, int(u*float32(b.Dx())))
	y := b.Min.Y + min(b.Dy()-1, int(v*float32(b.Dy())))
	c := img.NRGBAAt(x, y)
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

func (r *Rasterizer) blend(x, y int, c [3]float32, alpha float32) {
	i := r.img.PixOffset(x, y)
	pix := r.img.Pix[i : i+4 : i+4]
	for ch := range 3 {
		src := c[ch] * 255
		dst := float32(pix[ch])
		pix[ch] = uint8(math32.Floor(src*alpha + dst*(1-alpha) + 0.5))
	}
	pix[3] = 0xff
}
