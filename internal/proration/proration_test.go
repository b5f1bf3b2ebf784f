package proration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sample(settle time.Time, start FiscalStart) Inputs {
	return Inputs{
		LandFixedAssetTax:       100_000,
		LandCityPlanningTax:     20_000,
		BuildingFixedAssetTax:   60_000,
		BuildingCityPlanningTax: 10_000,
		SettlementDate:          settle,
		Start:                   start,
	}
}

func TestCalculateCalendarYear(t *testing.T) {
	in := sample(date(2025, time.June, 15), CalendarYear)
	in.Taxable = true

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 1), res.FiscalStartDate)
	assert.Equal(t, 165, res.SellerDays)
	assert.Equal(t, 200, res.BuyerDays)

	assert.Equal(t, int64(54_246), res.SellerLand)
	assert.Equal(t, int64(65_754), res.BuyerLand)
	assert.Equal(t, int64(31_643), res.SellerBuilding)
	assert.Equal(t, int64(38_357), res.BuyerBuilding)
	assert.Equal(t, int64(3_835), res.BuyerConsumptionTax)
	assert.Equal(t, int64(85_889), res.SellerTotal)
	assert.Equal(t, int64(107_946), res.BuyerTotal)
	assert.Equal(t, int64(328), res.DailyRateLand)
	assert.Equal(t, int64(191), res.DailyRateBuilding)

	assert.Equal(t, "1月1日 ～ 6月14日", res.SellerPeriod)
	assert.Equal(t, "6月15日 ～ 12月31日", res.BuyerPeriod)
}

func TestCalculateNotTaxable(t *testing.T) {
	res, err := Calculate(sample(date(2025, time.June, 15), CalendarYear))
	require.NoError(t, err)
	assert.Zero(t, res.BuyerConsumptionTax)
	assert.Equal(t, res.BuyerLand+res.BuyerBuilding, res.BuyerTotal)
}

func TestCalculateAprilStartUsesPreviousYearBeforeApril(t *testing.T) {
	res, err := Calculate(sample(date(2025, time.February, 10), FiscalApril))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.April, 1), res.FiscalStartDate)
	assert.Equal(t, 315, res.SellerDays)
	assert.Equal(t, 50, res.BuyerDays)
	assert.Equal(t, "4月1日 ～ 2月9日", res.SellerPeriod)
	assert.Equal(t, "2月10日 ～ 3月31日", res.BuyerPeriod)
}

func TestCalculateAprilStartOnFirstDay(t *testing.T) {
	res, err := Calculate(sample(date(2025, time.April, 1), FiscalApril))
	require.NoError(t, err)
	assert.Equal(t, 0, res.SellerDays)
	assert.Equal(t, 365, res.BuyerDays)
	assert.Zero(t, res.SellerTotal)
	assert.Empty(t, res.SellerPeriod)
	assert.Equal(t, "4月1日 ～ 3月31日", res.BuyerPeriod)
}

func TestCalculateCalendarStartOnFirstDayHasNoSellerPeriod(t *testing.T) {
	res, err := Calculate(sample(date(2025, time.January, 1), CalendarYear))
	require.NoError(t, err)
	assert.Equal(t, 0, res.SellerDays)
	assert.Empty(t, res.SellerPeriod)
	assert.Equal(t, "1月1日 ～ 12月31日", res.BuyerPeriod)
}

func TestCalculateIgnoresTimeOfDayAndZone(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	res, err := Calculate(sample(time.Date(2025, time.June, 15, 23, 30, 0, 0, jst), CalendarYear))
	require.NoError(t, err)
	assert.Equal(t, 165, res.SellerDays)
}

// The year is always 365 days. In a leap year every settlement after
// February 28 gives the seller one extra day and the buyer one fewer; this
// is kept deliberately and pinned here as a known limitation.
func TestLeapYearKnownLimitation(t *testing.T) {
	res, err := Calculate(sample(date(2024, time.March, 1), CalendarYear))
	require.NoError(t, err)
	assert.Equal(t, 60, res.SellerDays)
	assert.Equal(t, 305, res.BuyerDays, "buyer actually holds 306 days in 2024")

	res, err = Calculate(sample(date(2024, time.December, 31), CalendarYear))
	require.NoError(t, err)
	assert.Equal(t, 365, res.SellerDays)
	assert.Equal(t, 0, res.BuyerDays, "buyer actually holds 1 day in 2024")
	assert.Zero(t, res.BuyerLand)
}

func TestSumInvariant(t *testing.T) {
	amounts := []float64{0, 1, 99, 123_457, 1_000_003}
	for _, start := range []FiscalStart{CalendarYear, FiscalApril} {
		for d := date(2023, time.January, 1); d.Year() < 2026; d = d.AddDate(0, 0, 1) {
			for _, amt := range amounts {
				in := Inputs{LandFixedAssetTax: amt, BuildingCityPlanningTax: amt + 7, SettlementDate: d, Start: start}
				res, err := Calculate(in)
				require.NoError(t, err)
				require.Equal(t, DaysPerYear, res.SellerDays+res.BuyerDays, "%s %s", start, d)
				require.Equal(t, int64(amt), res.SellerLand+res.BuyerLand, "%s %s", start, d)
				require.Equal(t, int64(amt+7), res.SellerBuilding+res.BuyerBuilding, "%s %s", start, d)
				require.GreaterOrEqual(t, res.BuyerDays, 0)
			}
		}
	}
}

func TestValidation(t *testing.T) {
	_, err := Calculate(Inputs{Start: "mar1", LandFixedAssetTax: -1, BuildingFixedAssetTax: 10.5})
	var verr *common.ValidationErrors
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"settlementDate", "start", "landFixedAssetTax", "buildingFixedAssetTax"}, verr.Fields())
}
