package geometry

import (
	"fmt"
	"math"
)

// NormalizedPage records how one source page was fitted onto the square
// canvas. scale = min(size/w, size/h); the content is centered.
type NormalizedPage struct {
	Number       int     `json:"number"`
	SourceWidth  int     `json:"sourceWidth"`
	SourceHeight int     `json:"sourceHeight"`
	CanvasSize   int     `json:"canvasSize"`
	Scale        float64 `json:"scale"`
	OffsetX      float64 `json:"offsetX"`
	OffsetY      float64 `json:"offsetY"`
}

// NewNormalizedPage computes the contain-fit geometry for a w×h source.
func NewNormalizedPage(number, w, h, canvasSize int) (NormalizedPage, error) {
	if w <= 0 || h <= 0 {
		return NormalizedPage{}, fmt.Errorf("source page %dx%d has no area", w, h)
	}
	if canvasSize <= 0 {
		return NormalizedPage{}, fmt.Errorf("canvas size %d must be positive", canvasSize)
	}
	size := float64(canvasSize)
	scale := math.Min(size/float64(w), size/float64(h))
	return NormalizedPage{
		Number:       number,
		SourceWidth:  w,
		SourceHeight: h,
		CanvasSize:   canvasSize,
		Scale:        scale,
		OffsetX:      (size - float64(w)*scale) / 2,
		OffsetY:      (size - float64(h)*scale) / 2,
	}, nil
}

func (p NormalizedPage) RenderedWidth() float64  { return float64(p.SourceWidth) * p.Scale }
func (p NormalizedPage) RenderedHeight() float64 { return float64(p.SourceHeight) * p.Scale }

// unit is canvas pixels per normalized unit.
func (p NormalizedPage) unit() float64 {
	return float64(p.CanvasSize) / NormalizedMax
}
