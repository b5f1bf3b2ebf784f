package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

// ModelResponse is the sanitized, schema-valid vision-model output.
type ModelResponse struct {
	PlanInfo          map[constants.FieldKey]any                   `json:"planInfo"`
	Coordinates       map[constants.FieldKey]*geometry.BoundingBox `json:"coordinates"`
	AddressCandidates []string                                     `json:"address_candidates"`
}

var (
	reFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	reNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// planAliases maps keys older prompts produced onto the field set.
var planAliases = map[string]constants.FieldKey{
	"area_m2":         constants.FieldLandArea,
	"land_area":       constants.FieldLandArea,
	"floor_area":      constants.FieldFloorArea,
	"road_price":      constants.FieldRoadPrice,
	"fixed_tax_value": constants.FieldFixedTaxValue,
}

// CutJSONObject strips code fences and returns the text between the first
// '{' and the last '}'.
func CutJSONObject(text string) ([]byte, bool) {
	s := strings.TrimSpace(text)
	if m := reFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || start > end {
		return nil, false
	}
	return []byte(s[start : end+1]), true
}

// ParseModelResponse turns raw model text into a ModelResponse. Unknown keys
// are dropped and logged; anything else malformed is a ModelExtractionError.
func ParseModelResponse(raw []byte, logger *slog.Logger) (*ModelResponse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, ok := CutJSONObject(string(raw))
	if !ok {
		return nil, common.NewModelExtractionError("valid JSON object not found in response", nil)
	}

	clean, dropped, err := SanitizeResponse(doc)
	if err != nil {
		return nil, common.NewModelExtractionError("response is not JSON", err)
	}
	if len(dropped) > 0 {
		logger.Warn("extract.response.sanitize", "dropped", slices.Clone(dropped))
	}
	if err := ValidateJSONAgainstSchema(BuildResponseSchema(), clean); err != nil {
		return nil, common.NewModelExtractionError("response does not match schema", err)
	}

	var resp ModelResponse
	if err := json.Unmarshal(clean, &resp); err != nil {
		return nil, common.NewModelExtractionError("decode response", err)
	}
	return &resp, nil
}

// SanitizeResponse
// - Lifts flat responses ({"landArea":..}) into planInfo
// - Renames known synonyms (area_m2 -> landArea)
// - Coerces numeric strings ("１２０．５㎡", "1,200円") to numbers
// - Accepts bare [ymin,xmin,ymax,xmax] boxes and drops out-of-range ones
// - Removes unknown keys
func SanitizeResponse(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	dropped := make([]string, 0, 8)

	plan, _ := m["planInfo"].(map[string]any)
	if plan == nil {
		plan = map[string]any{}
		for k, v := range m {
			if constants.IsValidField(k) {
				plan[k] = v
				delete(m, k)
			} else if _, ok := planAliases[k]; ok {
				plan[k] = v
				delete(m, k)
			}
		}
	}
	for from, to := range planAliases {
		if v, ok := plan[from]; ok {
			if _, exists := plan[string(to)]; !exists {
				plan[string(to)] = v
			}
			delete(plan, from)
			dropped = append(dropped, from+"->"+string(to))
		}
	}
	for k := range maps.Clone(plan) {
		if !constants.IsValidField(k) {
			delete(plan, k)
			dropped = append(dropped, "planInfo."+k+"(unknown)")
			continue
		}
		if reason := coerceValue(plan, constants.FieldKey(k)); reason != "" {
			dropped = append(dropped, "planInfo."+k+"("+reason+")")
		}
	}

	coords, _ := m["coordinates"].(map[string]any)
	if coords == nil {
		coords = map[string]any{}
	}
	for k, v := range maps.Clone(coords) {
		if !constants.IsValidField(k) {
			delete(coords, k)
			dropped = append(dropped, "coordinates."+k+"(unknown)")
			continue
		}
		box, ok := coerceBox(v)
		if !ok {
			coords[k] = nil
			dropped = append(dropped, "coordinates."+k+"(invalid)")
			continue
		}
		coords[k] = box
	}

	var candidates []any
	if list, ok := m["address_candidates"].([]any); ok {
		for _, c := range list {
			s, ok := c.(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			if len(candidates) == MaxAddressCandidates {
				dropped = append(dropped, "address_candidates(overflow)")
				break
			}
			candidates = append(candidates, strings.TrimSpace(s))
		}
	}

	out := map[string]any{
		"planInfo":    plan,
		"coordinates": coords,
	}
	if candidates != nil {
		out["address_candidates"] = candidates
	}
	for k := range m {
		switch k {
		case "planInfo", "coordinates", "address_candidates":
		default:
			dropped = append(dropped, k+"(unknown)")
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}

func coerceValue(plan map[string]any, k constants.FieldKey) string {
	v := plan[string(k)]
	if constants.IsTextField(k) {
		switch t := v.(type) {
		case nil:
			return ""
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				plan[string(k)] = nil
				return "empty"
			}
			if k == constants.FieldStructure {
				if n, ok := NormalizeStructure(s); ok {
					s = n
				}
			}
			plan[string(k)] = s
			return ""
		default:
			plan[string(k)] = nil
			return "type"
		}
	}
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if t < 0 {
			plan[string(k)] = nil
			return "negative"
		}
		return ""
	case string:
		f, ok := ParseNumber(t)
		if !ok || f < 0 {
			plan[string(k)] = nil
			return "unparsable"
		}
		plan[string(k)] = f
		return ""
	default:
		plan[string(k)] = nil
		return "type"
	}
}

// ParseNumber reads the first number out of free text after folding
// full-width characters and dropping thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	m := reNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func coerceBox(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	var b geometry.BoundingBox
	switch t := v.(type) {
	case []any:
		vals, ok := floats(t)
		if !ok {
			return nil, false
		}
		b = geometry.BoundingBox{YMin: vals[0], XMin: vals[1], YMax: vals[2], XMax: vals[3], Page: 1}
	case map[string]any:
		arr, _ := t["box"].([]any)
		vals, ok := floats(arr)
		if !ok {
			return nil, false
		}
		page := 1
		if p, ok := t["page"].(float64); ok && p >= 1 {
			page = int(p)
		}
		b = geometry.BoundingBox{YMin: vals[0], XMin: vals[1], YMax: vals[2], XMax: vals[3], Page: page}
	default:
		return nil, false
	}
	if err := b.Validate(); err != nil {
		return nil, false
	}
	return b, true
}

func floats(arr []any) ([]float64, bool) {
	if len(arr) != 4 {
		return nil, false
	}
	out := make([]float64, 4)
	for i, x := range arr {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
