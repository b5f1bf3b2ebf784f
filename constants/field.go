package constants

// FieldKey identifies one extracted field. The set is closed: keys the
// vision model returns that are not listed here are ignored.
type FieldKey string

const (
	FieldLandArea                FieldKey = "landArea"
	FieldFloorArea               FieldKey = "floorArea"
	FieldStructure               FieldKey = "structure"
	FieldAddress                 FieldKey = "address"
	FieldRoadPrice               FieldKey = "roadPrice"
	FieldAge                     FieldKey = "age"
	FieldFixedTaxValue           FieldKey = "fixedTaxValue"
	FieldLandFixedAssetTax       FieldKey = "landFixedAssetTax"
	FieldLandCityPlanningTax     FieldKey = "landCityPlanningTax"
	FieldBuildingFixedAssetTax   FieldKey = "buildingFixedAssetTax"
	FieldBuildingCityPlanningTax FieldKey = "buildingCityPlanningTax"
)

var allFields = []FieldKey{
	FieldLandArea,
	FieldFloorArea,
	FieldStructure,
	FieldAddress,
	FieldRoadPrice,
	FieldAge,
	FieldFixedTaxValue,
	FieldLandFixedAssetTax,
	FieldLandCityPlanningTax,
	FieldBuildingFixedAssetTax,
	FieldBuildingCityPlanningTax,
}

// refinable fields hold numeric values OCR can tighten a box around.
var refinableFields = map[FieldKey]struct{}{
	FieldLandArea:  {},
	FieldFloorArea: {},
	FieldRoadPrice: {},
}

// AllFields returns the closed field set in display order.
func AllFields() []FieldKey {
	out := make([]FieldKey, len(allFields))
	copy(out, allFields)
	return out
}

// IsValidField reports whether k belongs to the closed field set.
func IsValidField(k string) bool {
	for _, f := range allFields {
		if string(f) == k {
			return true
		}
	}
	return false
}

// IsRefinable reports whether OCR refinement may replace the box of k.
func IsRefinable(k FieldKey) bool {
	_, ok := refinableFields[k]
	return ok
}

// IsTextField reports whether k carries a string value rather than a number.
func IsTextField(k FieldKey) bool {
	return k == FieldStructure || k == FieldAddress
}
