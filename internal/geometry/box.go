package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// NormalizedMax is the side of the normalized coordinate space.
const NormalizedMax = 1000.0

// BoundingBox is a field location in [0,1000] normalized canvas space on a
// 1-based page.
type BoundingBox struct {
	YMin float64
	XMin float64
	YMax float64
	XMax float64
	Page int
}

// wireBox is the shape the vision model emits and the UI consumes.
type wireBox struct {
	Box  []float64 `json:"box"`
	Page int       `json:"page"`
}

func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBox{Box: []float64{b.YMin, b.XMin, b.YMax, b.XMax}, Page: b.Page})
}

func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var w wireBox
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Box) != 4 {
		return fmt.Errorf("box: want 4 values [ymin,xmin,ymax,xmax], got %d", len(w.Box))
	}
	page := w.Page
	if page == 0 {
		page = 1
	}
	*b = BoundingBox{YMin: w.Box[0], XMin: w.Box[1], YMax: w.Box[2], XMax: w.Box[3], Page: page}
	return nil
}

// Validate checks ordering, range and page.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.YMin, b.XMin, b.YMax, b.XMax} {
		if math.IsNaN(v) || v < 0 || v > NormalizedMax {
			return fmt.Errorf("box %v: coordinate %v outside [0,%v]", b, v, NormalizedMax)
		}
	}
	if b.YMin > b.YMax || b.XMin > b.XMax {
		return fmt.Errorf("box %v: min exceeds max", b)
	}
	if b.Page < 1 {
		return fmt.Errorf("box %v: page must be 1-based", b)
	}
	return nil
}

// IsEmpty reports a zero-area box, which means "not found".
func (b BoundingBox) IsEmpty() bool {
	return b.YMax <= b.YMin || b.XMax <= b.XMin
}

// Pad grows the box by margin on every side and clamps it to the canvas.
func (b BoundingBox) Pad(margin float64) BoundingBox {
	return BoundingBox{
		YMin: b.YMin - margin,
		XMin: b.XMin - margin,
		YMax: b.YMax + margin,
		XMax: b.XMax + margin,
		Page: b.Page,
	}.Clamp()
}

// Clamp limits every coordinate to [0,1000].
func (b BoundingBox) Clamp() BoundingBox {
	return BoundingBox{
		YMin: clamp(b.YMin, 0, NormalizedMax),
		XMin: clamp(b.XMin, 0, NormalizedMax),
		YMax: clamp(b.YMax, 0, NormalizedMax),
		XMax: clamp(b.XMax, 0, NormalizedMax),
		Page: b.Page,
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("p%d[%g,%g,%g,%g]", b.Page, b.YMin, b.XMin, b.YMax, b.XMax)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
