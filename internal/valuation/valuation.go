// Package valuation estimates land and depreciated building value.
package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

type Method string

const (
	MethodAuto       Method = "auto"
	MethodRoad       Method = "road"
	MethodMultiplier Method = "multiplier"
)

type RoadPriceUnit string

const (
	UnitYen      RoadPriceUnit = "yen"
	UnitThousand RoadPriceUnit = "thousand"
)

// StructureSpec is the standard construction cost and statutory useful life
// of a structure class.
type StructureSpec struct {
	UnitPrice  int64 `json:"unitPrice"`
	UsefulLife int   `json:"usefulLife"`
}

var structures = map[constants.Structure]StructureSpec{
	constants.StructureWood:       {UnitPrice: 150000, UsefulLife: 22},
	constants.StructureLightSteel: {UnitPrice: 150000, UsefulLife: 19},
	constants.StructureHeavySteel: {UnitPrice: 180000, UsefulLife: 34},
	constants.StructureRC:         {UnitPrice: 200000, UsefulLife: 47},
}

// LookupStructure returns the table entry for s.
func LookupStructure(s constants.Structure) (StructureSpec, bool) {
	spec, ok := structures[s]
	return spec, ok
}

// Inputs are the user-confirmed fields. Nil pointers are "not entered".
type Inputs struct {
	Method        Method        `json:"method"`
	RoadPrice     *float64      `json:"roadPrice"`
	RoadPriceUnit RoadPriceUnit `json:"roadPriceUnit"`
	LandArea      *float64      `json:"landArea"`
	FixedTaxValue *float64      `json:"fixedTaxValue"`
	Multiplier    *float64      `json:"multiplier"`

	Structure constants.Structure `json:"structure"`
	// UnitPrice and UsefulLife override the structure table when set.
	UnitPrice  *float64 `json:"unitPrice,omitempty"`
	UsefulLife *int     `json:"usefulLife,omitempty"`
	Age        *float64 `json:"age"`
	FloorArea  *float64 `json:"floorArea"`
}

// Snapshot is the human-auditable record of what the calculation used.
type Snapshot struct {
	Method        Method        `json:"method"`
	AutoResolved  bool          `json:"autoResolved"`
	RoadPrice     float64       `json:"roadPrice"`
	RoadPriceUnit RoadPriceUnit `json:"roadPriceUnit"`
	RoadPriceYen  float64       `json:"roadPriceYen"`
	LandArea      float64       `json:"landArea"`
	FixedTaxValue float64       `json:"fixedTaxValue"`
	Multiplier    float64       `json:"multiplier"`
	Structure     string        `json:"structure,omitempty"`
	UnitPrice     float64       `json:"unitPrice"`
	UsefulLife    int           `json:"usefulLife"`
	Age           float64       `json:"age"`
	FloorArea     float64       `json:"floorArea"`
}

type Result struct {
	LandPrice     int64    `json:"landPrice"`
	BuildingPrice int64    `json:"buildingPrice"`
	Total         int64    `json:"total"`
	Snapshot      Snapshot `json:"snapshot"`
}

// EffectiveMethod resolves auto against the current inputs: road when a road
// price has been entered, multiplier otherwise. The second value reports
// whether auto resolution happened, so callers can show it.
func EffectiveMethod(in Inputs) (Method, bool) {
	switch in.Method {
	case MethodRoad, MethodMultiplier:
		return in.Method, false
	}
	if in.RoadPrice != nil {
		return MethodRoad, true
	}
	return MethodMultiplier, true
}

// Calculate prices land and building. Every missing or invalid field is
// reported in one ValidationErrors batch.
func Calculate(in Inputs) (Result, error) {
	method, auto := EffectiveMethod(in)

	v := common.NewValidator()
	v.Field("method", methodOrAuto(in.Method), common.OneOf(string(MethodAuto), string(MethodRoad), string(MethodMultiplier)))
	switch method {
	case MethodRoad:
		v.Field("roadPrice", in.RoadPrice, common.Required, common.NonNegative)
		v.Field("roadPriceUnit", unitOrYen(in.RoadPriceUnit), common.OneOf(string(UnitYen), string(UnitThousand)))
		v.Field("landArea", in.LandArea, common.Required, common.NonNegative)
	case MethodMultiplier:
		v.Field("fixedTaxValue", in.FixedTaxValue, common.Required, common.NonNegative)
		v.Field("multiplier", in.Multiplier, common.Required, common.NonNegative)
	}
	v.Field("age", in.Age, common.Required, common.NonNegative)
	v.Field("floorArea", in.FloorArea, common.Required, common.NonNegative)

	spec, known := structures[in.Structure]
	if !known && (in.UnitPrice == nil || in.UsefulLife == nil) {
		v.Field("structure", string(in.Structure), common.Required, common.OneOf(structureNames()...))
	}
	v.Field("unitPrice", in.UnitPrice, common.NonNegative)
	v.Field("usefulLife", in.UsefulLife, common.Positive)
	if err := v.Err(); err != nil {
		return Result{}, err
	}

	unitPrice := decimal.NewFromInt(spec.UnitPrice)
	if in.UnitPrice != nil {
		unitPrice = decimal.NewFromFloat(*in.UnitPrice)
	}
	life := spec.UsefulLife
	if in.UsefulLife != nil {
		life = *in.UsefulLife
	}

	snap := Snapshot{
		Method:        method,
		AutoResolved:  auto,
		RoadPriceUnit: unitOrYen(in.RoadPriceUnit),
		Structure:     string(in.Structure),
		UnitPrice:     unitPrice.InexactFloat64(),
		UsefulLife:    life,
		Age:           *in.Age,
		FloorArea:     *in.FloorArea,
	}

	var land decimal.Decimal
	switch method {
	case MethodRoad:
		perSqm := decimal.NewFromFloat(*in.RoadPrice)
		if snap.RoadPriceUnit == UnitThousand {
			perSqm = perSqm.Mul(decimal.NewFromInt(1000))
		}
		land = perSqm.Mul(decimal.NewFromFloat(*in.LandArea))
		snap.RoadPrice = *in.RoadPrice
		snap.RoadPriceYen = perSqm.InexactFloat64()
		snap.LandArea = *in.LandArea
	case MethodMultiplier:
		land = decimal.NewFromFloat(*in.FixedTaxValue).Mul(decimal.NewFromFloat(*in.Multiplier))
		snap.FixedTaxValue = *in.FixedTaxValue
		snap.Multiplier = *in.Multiplier
	}

	building := BuildingPrice(unitPrice, decimal.NewFromFloat(*in.FloorArea), decimal.NewFromFloat(*in.Age), life)

	landPrice := land.Floor().IntPart()
	buildingPrice := building.IntPart()
	return Result{
		LandPrice:     landPrice,
		BuildingPrice: buildingPrice,
		Total:         landPrice + buildingPrice,
		Snapshot:      snap,
	}, nil
}

// BuildingPrice is straight-line depreciation, floored:
// unitPrice × floorArea × max(0, life − age) / life.
func BuildingPrice(unitPrice, floorArea, age decimal.Decimal, usefulLife int) decimal.Decimal {
	if usefulLife <= 0 {
		return decimal.Zero
	}
	life := decimal.NewFromInt(int64(usefulLife))
	remaining := life.Sub(age)
	if !remaining.IsPositive() {
		return decimal.Zero
	}
	return unitPrice.Mul(floorArea).Mul(remaining).Div(life).Floor()
}

func methodOrAuto(m Method) string {
	if m == "" {
		return string(MethodAuto)
	}
	return string(m)
}

func unitOrYen(u RoadPriceUnit) RoadPriceUnit {
	if u == "" {
		return UnitYen
	}
	return u
}

func structureNames() []string {
	out := make([]string, 0, len(structures))
	for _, s := range constants.AllStructures() {
		out = append(out, string(s))
	}
	return out
}

// String renders a one-line summary for logs and the CLI.
func (r Result) String() string {
	return fmt.Sprintf("land=%d building=%d total=%d method=%s", r.LandPrice, r.BuildingPrice, r.Total, r.Snapshot.Method)
}
