package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/apportionment"
	"github.com/joseph-ayodele/estate-toolkit/internal/proration"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/calculation"
	"github.com/joseph-ayodele/estate-toolkit/internal/valuation"
)

var saveSnapshot bool

var valuationCmd = &cobra.Command{
	Use:   "valuation",
	Short: "Estimate land and building value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := valuation.Inputs{
			Method:        valuation.Method(mustString(f, "method")),
			RoadPriceUnit: valuation.RoadPriceUnit(mustString(f, "road-price-unit")),
			Structure:     constants.Structure(mustString(f, "structure")),
			RoadPrice:     floatFlag(f, "road-price"),
			LandArea:      floatFlag(f, "land-area"),
			FixedTaxValue: floatFlag(f, "fixed-tax-value"),
			Multiplier:    floatFlag(f, "multiplier"),
			UnitPrice:     floatFlag(f, "unit-price"),
			Age:           floatFlag(f, "age"),
			FloorArea:     floatFlag(f, "floor-area"),
		}
		if f.Changed("useful-life") {
			v, _ := f.GetInt("useful-life")
			in.UsefulLife = &v
		}
		return runCalculation(cmd, func(calc *calculation.Service) (any, error) {
			return calc.Valuation(userContext(cmd.Context()), in)
		})
	},
}

var apportionCmd = &cobra.Command{
	Use:   "apportion",
	Short: "Split a sale price between land and building",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := apportionment.Inputs{
			Mode:                  apportionment.Mode(mustString(f, "mode")),
			SalesPrice:            floatFlag(f, "sales-price"),
			LandAssessedValue:     floatFlag(f, "land-assessed"),
			BuildingAssessedValue: floatFlag(f, "building-assessed"),
			TaxRatePercent:        floatFlag(f, "tax-rate"),
		}
		return runCalculation(cmd, func(calc *calculation.Service) (any, error) {
			return calc.Apportionment(userContext(cmd.Context()), in)
		})
	},
}

var prorateCmd = &cobra.Command{
	Use:   "prorate",
	Short: "Settle annual property taxes between seller and buyer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		settlement, err := time.Parse(time.DateOnly, mustString(f, "settlement"))
		if err != nil {
			return fmt.Errorf("invalid --settlement, use YYYY-MM-DD: %w", err)
		}
		taxable, _ := f.GetBool("taxable")
		in := proration.Inputs{
			LandFixedAssetTax:       valueOf(floatFlag(f, "land-fixed-asset-tax")),
			LandCityPlanningTax:     valueOf(floatFlag(f, "land-city-planning-tax")),
			BuildingFixedAssetTax:   valueOf(floatFlag(f, "building-fixed-asset-tax")),
			BuildingCityPlanningTax: valueOf(floatFlag(f, "building-city-planning-tax")),
			SettlementDate:          settlement,
			Start:                   proration.FiscalStart(mustString(f, "start")),
			Taxable:                 taxable,
		}
		return runCalculation(cmd, func(calc *calculation.Service) (any, error) {
			return calc.Proration(userContext(cmd.Context()), in)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{valuationCmd, apportionCmd, prorateCmd} {
		c.Flags().BoolVar(&saveSnapshot, "save", false, "store the result as a snapshot in the database")
		RootCmd.AddCommand(c)
	}

	vf := valuationCmd.Flags()
	vf.String("method", string(valuation.MethodAuto), "auto, road or multiplier")
	vf.Float64("road-price", 0, "road price per square meter")
	vf.String("road-price-unit", string(valuation.UnitYen), "yen or thousand")
	vf.Float64("land-area", 0, "land area in square meters")
	vf.Float64("fixed-tax-value", 0, "fixed asset tax value of the land")
	vf.Float64("multiplier", 0, "multiplier applied to the fixed asset tax value")
	vf.String("structure", string(constants.StructureWood), "building structure class")
	vf.Float64("unit-price", 0, "construction cost per square meter, overrides the structure table")
	vf.Int("useful-life", 0, "useful life in years, overrides the structure table")
	vf.Float64("age", 0, "building age in years")
	vf.Float64("floor-area", 0, "floor area in square meters")

	af := apportionCmd.Flags()
	af.Float64("sales-price", 0, "sale price in yen")
	af.String("mode", string(apportionment.TaxIncluded), "included or excluded")
	af.Float64("land-assessed", 0, "assessed value of the land")
	af.Float64("building-assessed", 0, "assessed value of the building")
	af.Float64("tax-rate", apportionment.DefaultTaxRatePercent, "consumption tax rate in percent")

	pf := prorateCmd.Flags()
	pf.Float64("land-fixed-asset-tax", 0, "annual fixed asset tax on the land")
	pf.Float64("land-city-planning-tax", 0, "annual city planning tax on the land")
	pf.Float64("building-fixed-asset-tax", 0, "annual fixed asset tax on the building")
	pf.Float64("building-city-planning-tax", 0, "annual city planning tax on the building")
	pf.String("settlement", "", "settlement date (YYYY-MM-DD)")
	pf.String("start", string(proration.CalendarYear), "jan1 or apr1")
	pf.Bool("taxable", false, "add consumption tax to the buyer's building share")
	_ = prorateCmd.MarkFlagRequired("settlement")
}

func runCalculation(cmd *cobra.Command, calc func(*calculation.Service) (any, error)) error {
	deps, err := app.Build(cmd.Context(), config, logger, app.Options{Database: saveSnapshot})
	if err != nil {
		return err
	}
	defer deps.Close()

	out, err := calc(deps.Calc)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// floatFlag returns nil for flags the user did not set so the calculators
// can tell a missing input from zero.
func floatFlag(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v, err := f.GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func valueOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func mustString(f *pflag.FlagSet, name string) string {
	v, _ := f.GetString(name)
	return v
}
