package geometry

import (
	"image"
	"math"
)

// PixelRect is an axis-aligned rectangle in pixel space. Fractional values
// are kept so transforms compose without drift.
type PixelRect struct {
	X0, Y0, X1, Y1 float64
}

func (r PixelRect) Dx() float64 { return r.X1 - r.X0 }
func (r PixelRect) Dy() float64 { return r.Y1 - r.Y0 }

// Image rounds outward to integer pixels.
func (r PixelRect) Image() image.Rectangle {
	return image.Rect(int(math.Floor(r.X0)), int(math.Floor(r.Y0)), int(math.Ceil(r.X1)), int(math.Ceil(r.Y1)))
}

// RectFromImage converts an integer rectangle.
func RectFromImage(r image.Rectangle) PixelRect {
	return PixelRect{X0: float64(r.Min.X), Y0: float64(r.Min.Y), X1: float64(r.Max.X), Y1: float64(r.Max.Y)}
}

// ToCanvasPixels maps a normalized box onto a canvas of the given side.
func ToCanvasPixels(b BoundingBox, canvasSize int) PixelRect {
	u := float64(canvasSize) / NormalizedMax
	return PixelRect{X0: b.XMin * u, Y0: b.YMin * u, X1: b.XMax * u, Y1: b.YMax * u}
}

// FromCanvasPixels is the inverse of ToCanvasPixels.
func FromCanvasPixels(r PixelRect, canvasSize, page int) BoundingBox {
	u := float64(canvasSize) / NormalizedMax
	return BoundingBox{YMin: r.Y0 / u, XMin: r.X0 / u, YMax: r.Y1 / u, XMax: r.X1 / u, Page: page}
}

// ToPagePixels maps a normalized box onto the original page's pixel space,
// undoing the letterbox offset and scale.
func ToPagePixels(b BoundingBox, p NormalizedPage) PixelRect {
	c := ToCanvasPixels(b, p.CanvasSize)
	return PixelRect{
		X0: (c.X0 - p.OffsetX) / p.Scale,
		Y0: (c.Y0 - p.OffsetY) / p.Scale,
		X1: (c.X1 - p.OffsetX) / p.Scale,
		Y1: (c.Y1 - p.OffsetY) / p.Scale,
	}
}

// ToNormalized maps a rectangle on the original page back into normalized
// canvas space.
func ToNormalized(r PixelRect, p NormalizedPage) BoundingBox {
	c := PixelRect{
		X0: r.X0*p.Scale + p.OffsetX,
		Y0: r.Y0*p.Scale + p.OffsetY,
		X1: r.X1*p.Scale + p.OffsetX,
		Y1: r.Y1*p.Scale + p.OffsetY,
	}
	return FromCanvasPixels(c, p.CanvasSize, p.Number)
}

// CropToNormalized converts a rectangle found inside a crop of the canvas
// (crop-local pixels) to normalized canvas space: crop origin first, then
// the canvas-to-normalized scale.
func CropToNormalized(local PixelRect, cropOrigin image.Point, canvasSize, page int) BoundingBox {
	ox, oy := float64(cropOrigin.X), float64(cropOrigin.Y)
	c := PixelRect{X0: local.X0 + ox, Y0: local.Y0 + oy, X1: local.X1 + ox, Y1: local.Y1 + oy}
	return FromCanvasPixels(c, canvasSize, page)
}
