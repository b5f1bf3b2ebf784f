// Package proration splits annual fixed-asset and city-planning taxes
// between seller and buyer by days held in the tax year.
package proration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// FiscalStart is the day the tax year is reckoned from.
type FiscalStart string

const (
	// CalendarYear starts on January 1 (common in the Kanto region).
	CalendarYear FiscalStart = "jan1"
	// FiscalApril starts on April 1 (common in the Kansai region).
	FiscalApril FiscalStart = "apr1"
)

// DaysPerYear is fixed; leap years are not special-cased.
const DaysPerYear = 365

// ConsumptionTaxPercent applies to the buyer's building share when taxable.
const ConsumptionTaxPercent = 10

type Inputs struct {
	LandFixedAssetTax       float64     `json:"landFixedAssetTax"`
	LandCityPlanningTax     float64     `json:"landCityPlanningTax"`
	BuildingFixedAssetTax   float64     `json:"buildingFixedAssetTax"`
	BuildingCityPlanningTax float64     `json:"buildingCityPlanningTax"`
	SettlementDate          time.Time   `json:"settlementDate"`
	Start                   FiscalStart `json:"start"`
	// Taxable adds consumption tax on the buyer's building share.
	Taxable bool `json:"taxable"`
}

// LandTotal is the annual land tax.
func (in Inputs) LandTotal() float64 { return in.LandFixedAssetTax + in.LandCityPlanningTax }

// BuildingTotal is the annual building tax.
func (in Inputs) BuildingTotal() float64 {
	return in.BuildingFixedAssetTax + in.BuildingCityPlanningTax
}

type Result struct {
	FiscalStartDate time.Time `json:"fiscalStartDate"`
	SellerDays      int       `json:"sellerDays"`
	BuyerDays       int       `json:"buyerDays"`

	SellerLand     int64 `json:"sellerLand"`
	SellerBuilding int64 `json:"sellerBuilding"`
	SellerTotal    int64 `json:"sellerTotal"`

	BuyerLand           int64 `json:"buyerLand"`
	BuyerBuilding       int64 `json:"buyerBuilding"`
	BuyerConsumptionTax int64 `json:"buyerConsumptionTax"`
	BuyerTotal          int64 `json:"buyerTotal"`

	// SellerPeriod is empty when settlement falls on the fiscal start.
	SellerPeriod string `json:"sellerPeriod"`
	BuyerPeriod  string `json:"buyerPeriod"`

	DailyRateLand     int64 `json:"dailyRateLand"`
	DailyRateBuilding int64 `json:"dailyRateBuilding"`
}

var daysPerYear = decimal.NewFromInt(DaysPerYear)

// FiscalStartDate returns the start of the tax year containing settlement.
func FiscalStartDate(settlement time.Time, start FiscalStart) time.Time {
	y, m, _ := settlement.Date()
	if start == FiscalApril {
		if m < time.April {
			y--
		}
		return time.Date(y, time.April, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Calculate prorates the annual taxes. Each seller share is floored and the
// buyer share is the remainder, so the two always sum to the annual amount.
func Calculate(in Inputs) (Result, error) {
	start := in.Start
	if start == "" {
		start = CalendarYear
	}
	v := common.NewValidator()
	v.Field("settlementDate", in.SettlementDate, common.Required)
	v.Field("start", string(start), common.OneOf(string(CalendarYear), string(FiscalApril)))
	v.Field("landFixedAssetTax", in.LandFixedAssetTax, common.NonNegative, common.WholeNumber)
	v.Field("landCityPlanningTax", in.LandCityPlanningTax, common.NonNegative, common.WholeNumber)
	v.Field("buildingFixedAssetTax", in.BuildingFixedAssetTax, common.NonNegative, common.WholeNumber)
	v.Field("buildingCityPlanningTax", in.BuildingCityPlanningTax, common.NonNegative, common.WholeNumber)
	if err := v.Err(); err != nil {
		return Result{}, err
	}

	// civil dates only; time of day and zone must not shift the day count
	y, m, d := in.SettlementDate.Date()
	settle := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	fiscal := FiscalStartDate(settle, start)

	sellerDays := int(settle.Sub(fiscal).Hours() / 24)
	if sellerDays < 0 {
		sellerDays = 0
	}
	buyerDays := DaysPerYear - sellerDays

	land := decimal.NewFromFloat(in.LandTotal())
	building := decimal.NewFromFloat(in.BuildingTotal())

	sellerLand, buyerLand := split(land, sellerDays)
	sellerBuilding, buyerBuilding := split(building, sellerDays)

	var consumption decimal.Decimal
	if in.Taxable {
		consumption = buyerBuilding.Mul(decimal.NewFromInt(ConsumptionTaxPercent)).Div(decimal.NewFromInt(100)).Floor()
	}

	periodEnd := fiscal.AddDate(1, 0, -1)
	res := Result{
		FiscalStartDate:     fiscal,
		SellerDays:          sellerDays,
		BuyerDays:           buyerDays,
		SellerLand:          sellerLand.IntPart(),
		SellerBuilding:      sellerBuilding.IntPart(),
		BuyerLand:           buyerLand.IntPart(),
		BuyerBuilding:       buyerBuilding.IntPart(),
		BuyerConsumptionTax: consumption.IntPart(),
		DailyRateLand:       land.Div(daysPerYear).Floor().IntPart(),
		DailyRateBuilding:   building.Div(daysPerYear).Floor().IntPart(),
	}
	// a side with no days has no period
	if sellerDays > 0 {
		res.SellerPeriod = Period(fiscal, settle.AddDate(0, 0, -1))
	}
	if buyerDays > 0 {
		res.BuyerPeriod = Period(settle, periodEnd)
	}
	res.SellerTotal = res.SellerLand + res.SellerBuilding
	res.BuyerTotal = res.BuyerLand + res.BuyerBuilding + res.BuyerConsumptionTax
	return res, nil
}

func split(annual decimal.Decimal, sellerDays int) (seller, buyer decimal.Decimal) {
	seller = annual.Mul(decimal.NewFromInt(int64(sellerDays))).Div(daysPerYear).Floor()
	return seller, annual.Sub(seller)
}

// Period formats an inclusive date range as "M月D日 ～ M月D日".
func Period(from, to time.Time) string {
	return fmt.Sprintf("%d月%d日 ～ %d月%d日", int(from.Month()), from.Day(), int(to.Month()), to.Day())
}
