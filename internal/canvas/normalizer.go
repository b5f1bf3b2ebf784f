package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

// DefaultSize is the side of the square canvas every page is fitted onto.
const DefaultSize = 1000

// Page is one normalized page: the square canvas, the geometry used to
// produce it and the decoded source raster (kept for highlight overlays).
type Page struct {
	Number   int
	Canvas   *image.RGBA
	Geometry geometry.NormalizedPage
	Source   image.Image
}

// NormalizePage letterboxes src onto a white size×size canvas: contain-fit,
// aspect ratio preserved, centered on both axes.
func NormalizePage(src image.Image, number, size int) (*Page, error) {
	if src == nil {
		return nil, common.NewDecodeError("page has no raster", nil)
	}
	b := src.Bounds()
	g, err := geometry.NewNormalizedPage(number, b.Dx(), b.Dy(), size)
	if err != nil {
		return nil, common.NewDecodeError("page has no drawable area", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, targetRect(g), src, b, draw.Over, nil)

	return &Page{Number: number, Canvas: dst, Geometry: g, Source: src}, nil
}

// targetRect is the integer destination rectangle of the scaled content.
// A sliver thinner than a pixel still gets one row or column.
func targetRect(g geometry.NormalizedPage) image.Rectangle {
	x0 := int(math.Round(g.OffsetX))
	y0 := int(math.Round(g.OffsetY))
	x1 := int(math.Round(g.OffsetX + g.RenderedWidth()))
	y1 := int(math.Round(g.OffsetY + g.RenderedHeight()))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}
