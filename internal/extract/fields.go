package extract

import (
	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
)

// ExtractedField is one entry of the field map handed to the form. A nil
// Value means "needs manual entry", never zero.
type ExtractedField struct {
	Key   constants.FieldKey    `json:"key"`
	Value any                   `json:"value"`
	Box   *geometry.BoundingBox `json:"box"`
}

// Result is the assembled extraction for one document.
type Result struct {
	Fields            []ExtractedField `json:"fields"`
	AddressCandidates []string         `json:"addressCandidates"`
	Refinement        ocr.Report       `json:"-"`
}

// Field returns the entry for k. Assembled results always carry every key.
func (r Result) Field(k constants.FieldKey) (ExtractedField, bool) {
	for _, f := range r.Fields {
		if f.Key == k {
			return f, true
		}
	}
	return ExtractedField{}, false
}

// Number returns the numeric value of k, or nil when absent.
func (r Result) Number(k constants.FieldKey) *float64 {
	f, ok := r.Field(k)
	if !ok {
		return nil
	}
	v, ok := f.Value.(float64)
	if !ok {
		return nil
	}
	return &v
}

// Text returns the string value of k, or "" when absent.
func (r Result) Text(k constants.FieldKey) string {
	f, ok := r.Field(k)
	if !ok {
		return ""
	}
	s, _ := f.Value.(string)
	return s
}

// Boxes lists the located fields, for overlays.
func (r Result) Boxes() map[constants.FieldKey]geometry.BoundingBox {
	out := make(map[constants.FieldKey]geometry.BoundingBox)
	for _, f := range r.Fields {
		if f.Box != nil {
			out[f.Key] = *f.Box
		}
	}
	return out
}
