package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

// MaxAddressCandidates caps address_candidates.
const MaxAddressCandidates = 3

// BuildResponseSchema returns the JSON-Schema (draft 2020-12 subset) the
// vision model is asked to follow. It is sent with the prompt and used
// locally to validate the sanitized response.
func BuildResponseSchema() map[string]any {
	plan := map[string]any{}
	coords := map[string]any{}
	for _, k := range constants.AllFields() {
		if constants.IsTextField(k) {
			plan[string(k)] = map[string]any{"type": []string{"string", "null"}}
		} else {
			plan[string(k)] = map[string]any{"type": []string{"number", "null"}, "minimum": 0}
		}
		coords[string(k)] = map[string]any{
			"oneOf": []any{
				map[string]any{"type": "null"},
				boxProp(),
			},
		}
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"planInfo"},
		"properties": map[string]any{
			"planInfo": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           plan,
			},
			"coordinates": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           coords,
			},
			"address_candidates": map[string]any{
				"type":     "array",
				"maxItems": MaxAddressCandidates,
				"items":    map[string]any{"type": "string"},
			},
		},
	}
}

func boxProp() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"box"},
		"properties": map[string]any{
			"box": map[string]any{
				"type":     "array",
				"minItems": 4,
				"maxItems": 4,
				"items": map[string]any{
					"type":    "number",
					"minimum": 0,
					"maximum": geometry.NormalizedMax,
				},
			},
			"page": map[string]any{"type": "integer", "minimum": 1},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
