// Package render rasterizes scene snapshots into images.
package render

import (
	"cmp"
	"slices"

	"github.com/plus3/orrery/solar"
)

// minDiscRadius keeps far stars visible as single pixels.
const minDiscRadius = 0.75

// Disc is a body projected onto the viewport.
type Disc struct {
	Body   solar.BodyState
	X, Y   float32
	Radius float32
	Depth  float32
}

// Project maps the visible bodies of frame onto its viewport, farthest
// first. Bodies at equal depth keep build order.
func Project(frame solar.Frame) []Disc {
	w, h := float64(frame.Width), float64(frame.Height)
	cam := frame.Camera

	discs := make([]Disc, 0, len(frame.Bodies))
	for _, b := range frame.Bodies {
		p := cam.Project(b.Position, w, h)
		if !p.Visible {
			continue
		}
		r := float32(b.Radius * cam.PixelsPerUnit(p.Depth, h))
		if r < minDiscRadius {
			r = minDiscRadius
		}
		x, y := float32(p.X), float32(p.Y)
		if x+r < 0 || y+r < 0 || x-r > float32(w) || y-r > float32(h) {
			continue
		}
		discs = append(discs, Disc{Body: b, X: x, Y: y, Radius: r, Depth: float32(p.Depth)})
	}

	slices.SortStableFunc(discs, func(a, b Disc) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	return discs
}
