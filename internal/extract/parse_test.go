package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

func TestParseModelResponseFencedPlanInfo(t *testing.T) {
	raw := "```json\n" + `{
	  "planInfo": {"landArea": 120.5, "floorArea": "８０．２㎡", "structure": "鉄筋コンクリート造", "buildingType": "House", "area_m2": 99},
	  "coordinates": {
	    "landArea": {"box": [100, 200, 150, 400], "page": 2},
	    "floorArea": [300, 200, 340, 380],
	    "structure": null,
	    "workType": [1, 2, 3, 4]
	  },
	  "warnings": ["blurry"]
	}` + "\n```"

	resp, err := ParseModelResponse([]byte(raw), nil)
	require.NoError(t, err)

	assert.Equal(t, 120.5, resp.PlanInfo[constants.FieldLandArea])
	assert.Equal(t, 80.2, resp.PlanInfo[constants.FieldFloorArea])
	assert.Equal(t, "RC造・SRC造", resp.PlanInfo[constants.FieldStructure])
	assert.NotContains(t, resp.PlanInfo, constants.FieldKey("buildingType"))

	require.NotNil(t, resp.Coordinates[constants.FieldLandArea])
	assert.Equal(t, geometry.BoundingBox{YMin: 100, XMin: 200, YMax: 150, XMax: 400, Page: 2}, *resp.Coordinates[constants.FieldLandArea])
	require.NotNil(t, resp.Coordinates[constants.FieldFloorArea])
	assert.Equal(t, 1, resp.Coordinates[constants.FieldFloorArea].Page)
	assert.Nil(t, resp.Coordinates[constants.FieldStructure])
	assert.NotContains(t, resp.Coordinates, constants.FieldKey("workType"))
}

func TestParseModelResponseFlatShape(t *testing.T) {
	raw := `Here you go: {"landArea": "1,234.5", "structure": "Ｗ造", "age": 12, "roadPrice": null,
	  "address_candidates": ["東京都港区芝公園4-2-8", "東京都港区芝公園", "港区", "東京都"]} thanks`

	resp, err := ParseModelResponse([]byte(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, resp.PlanInfo[constants.FieldLandArea])
	assert.Equal(t, "木造", resp.PlanInfo[constants.FieldStructure])
	assert.Equal(t, 12.0, resp.PlanInfo[constants.FieldAge])
	assert.Nil(t, resp.PlanInfo[constants.FieldRoadPrice])
	assert.Equal(t, []string{"東京都港区芝公園4-2-8", "東京都港区芝公園", "港区"}, resp.AddressCandidates)
}

func TestParseModelResponseDropsBadValuesAndBoxes(t *testing.T) {
	raw := `{"planInfo": {"landArea": "不明", "floorArea": -5, "address": 12},
	  "coordinates": {"landArea": [0, 0, 1200, 5], "floorArea": {"box": [10, 10, 5, 20]}}}`

	resp, err := ParseModelResponse([]byte(raw), nil)
	require.NoError(t, err)
	assert.Nil(t, resp.PlanInfo[constants.FieldLandArea])
	assert.Nil(t, resp.PlanInfo[constants.FieldFloorArea])
	assert.Nil(t, resp.PlanInfo[constants.FieldAddress])
	assert.Nil(t, resp.Coordinates[constants.FieldLandArea])
	assert.Nil(t, resp.Coordinates[constants.FieldFloorArea])
}

func TestParseModelResponseErrors(t *testing.T) {
	cases := map[string]string{
		"no object":   "I could not read the document.",
		"not json":    "{ landArea: 12 }",
		"reversed":    "} {",
		"empty input": "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModelResponse([]byte(raw), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrModelExtraction)
		})
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildResponseSchema()
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"planInfo":{"landArea":10,"structure":null}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"planInfo":{"landArea":"ten"}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"coordinates":{}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"planInfo":{},"coordinates":{"landArea":{"box":[1,2,3]}}}`)))
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"120.5", 120.5, true},
		{"１２０．５㎡", 120.5, true},
		{"1,200,000円", 1200000, true},
		{"築 15 年", 15, true},
		{"なし", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeStructure(t *testing.T) {
	cases := map[string]string{
		"木造":          "木造",
		"木造瓦葺2階建":     "木造",
		"Ｗ造":          "木造",
		"軽量鉄骨造":       "軽量鉄骨造",
		"重量鉄骨造":       "重量鉄骨造",
		"鉄骨造":         "重量鉄骨造",
		"S造":          "重量鉄骨造",
		"鉄筋コンクリート造":   "RC造・SRC造",
		"鉄骨鉄筋コンクリート造": "RC造・SRC造",
		"SRC":         "RC造・SRC造",
		"RC造・SRC造":    "RC造・SRC造",
	}
	for in, want := range cases {
		got, ok := NormalizeStructure(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeStructure("ブロック造")
	assert.False(t, ok)
}
