// Package apportionment splits a property sale price between land and
// building in proportion to their assessed values.
package apportionment

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// Mode says whether the sale price already includes consumption tax.
type Mode string

const (
	TaxIncluded Mode = "included"
	TaxExcluded Mode = "excluded"
)

// DefaultTaxRatePercent is the consumption tax rate applied to buildings.
const DefaultTaxRatePercent = 10.0

type Inputs struct {
	SalesPrice            *float64 `json:"salesPrice"`
	Mode                  Mode     `json:"mode"`
	LandAssessedValue     *float64 `json:"landAssessedValue"`
	BuildingAssessedValue *float64 `json:"buildingAssessedValue"`
	// TaxRatePercent defaults to 10 when nil.
	TaxRatePercent *float64 `json:"taxRatePercent,omitempty"`
}

type Result struct {
	Mode                 Mode    `json:"mode"`
	TaxRatePercent       float64 `json:"taxRatePercent"`
	BuildingRatioPercent float64 `json:"buildingRatio"`
	LandPrice            int64   `json:"landPrice"`
	BuildingPriceIncl    int64   `json:"buildingPriceIncl"`
	BuildingPriceExcl    int64   `json:"buildingPriceExcl"`
	ConsumptionTax       int64   `json:"consumptionTax"`
}

var hundred = decimal.NewFromInt(100)

// Calculate apportions the sale price. Land is always the remainder after
// the rounded building share, so land + building equals the sale price.
func Calculate(in Inputs) (Result, error) {
	mode := in.Mode
	if mode == "" {
		mode = TaxIncluded
	}

	v := common.NewValidator()
	v.Field("salesPrice", in.SalesPrice, common.Required, common.NonNegative, common.WholeNumber)
	v.Field("mode", string(mode), common.OneOf(string(TaxIncluded), string(TaxExcluded)))
	v.Field("landAssessedValue", in.LandAssessedValue, common.Required, common.NonNegative)
	v.Field("buildingAssessedValue", in.BuildingAssessedValue, common.Required, common.NonNegative)
	v.Field("taxRatePercent", in.TaxRatePercent, common.NonNegative)
	if err := v.Err(); err != nil {
		return Result{}, err
	}

	land := decimal.NewFromFloat(*in.LandAssessedValue)
	building := decimal.NewFromFloat(*in.BuildingAssessedValue)
	denom := land.Add(building)
	if denom.IsZero() {
		return Result{}, common.NewDegenerateError("land and building assessed values are both zero")
	}

	ratePct := decimal.NewFromFloat(DefaultTaxRatePercent)
	if in.TaxRatePercent != nil {
		ratePct = decimal.NewFromFloat(*in.TaxRatePercent)
	}
	// 1 + rate, kept as (100 + pct) / 100 so the division stays exact
	grossPct := hundred.Add(ratePct)

	price := decimal.NewFromFloat(*in.SalesPrice)
	share := price.Mul(building).Div(denom).Round(0)

	res := Result{
		Mode:                 mode,
		TaxRatePercent:       ratePct.InexactFloat64(),
		BuildingRatioPercent: building.Mul(hundred).Div(denom).InexactFloat64(),
	}

	var incl, excl decimal.Decimal
	switch mode {
	case TaxIncluded:
		incl = share
		excl = incl.Mul(hundred).Div(grossPct).Round(0)
	case TaxExcluded:
		excl = share
		incl = excl.Mul(grossPct).Div(hundred).Round(0)
	}
	res.LandPrice = price.Sub(share).IntPart()
	res.BuildingPriceIncl = incl.IntPart()
	res.BuildingPriceExcl = excl.IntPart()
	res.ConsumptionTax = incl.Sub(excl).IntPart()
	return res, nil
}
