package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

// Display correction applied to model boxes before drawing, in normalized units.
const (
	overlayYOffset = 12
	overlayHPad    = 5
)

var highlightFill = color.RGBA{R: 0xfa, G: 0xcc, B: 0x15, A: 0xff}

// Highlight marks one located field.
type Highlight struct {
	Label string
	Box   geometry.BoundingBox
}

// RenderOverlay paints translucent highlights for the page's boxes onto a
// copy of the original-resolution page.
func RenderOverlay(p *Page, highlights []Highlight) *image.RGBA {
	b := p.Source.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), p.Source, b.Min, draw.Src)

	mask := image.NewUniform(color.Alpha{A: 0x80})
	fill := image.NewUniform(highlightFill)
	for _, h := range highlights {
		if h.Box.Page != p.Number || h.Box.IsEmpty() {
			continue
		}
		shifted := h.Box
		shifted.YMin += overlayYOffset
		shifted.YMax += overlayYOffset + overlayHPad
		r := geometry.ToPagePixels(shifted.Clamp(), p.Geometry).Image().Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		draw.DrawMask(out, r, fill, image.Point{}, mask, image.Point{}, draw.Over)
	}
	return out
}
