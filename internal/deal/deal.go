// Package deal converts raw analyze form submissions into the typed inputs the
// job pipeline consumes. Parsing is deliberately lenient: malformed numbers
// fall back to defaults, and percentages arrive as whole numbers and are
// normalised to fractions here.
package deal

import (
	"net/url"
	"strconv"
	"strings"
)

// Inputs holds a single deal as entered on the underwriting form, plus the
// financing and growth overrides with their stock defaults applied.
type Inputs struct {
	PropertyType string `json:"property_type"`
	Address      string `json:"address"`
	YearBuilt    int    `json:"year_built"`

	PurchasePrice       float64 `json:"purchase_price"`
	CurrentNOI          float64 `json:"current_noi"`
	TotalUnits          int     `json:"total_units"`
	TotalSF             float64 `json:"total_sf"`
	InPlaceRent         float64 `json:"in_place_rent"`
	MarketRent          float64 `json:"market_rent"`
	Occupancy           float64 `json:"occupancy"`
	DeferredMaintenance float64 `json:"deferred_maintenance"`
	PlannedCapex        float64 `json:"planned_capex"`
	CapexDescription    string  `json:"capex_description"`
	HoldPeriodYears     int     `json:"hold_period_years"`
	TaxRate             float64 `json:"tax_rate"`
	LandValuePct        float64 `json:"land_value_pct"`

	LTV                        float64 `json:"ltv"`
	InterestRate               float64 `json:"interest_rate"`
	AmortizationYears          int     `json:"amortization_years"`
	LoanTermYears              int     `json:"loan_term_years"`
	IOPeriodYears              int     `json:"io_period_years"`
	ClosingCostsPct            float64 `json:"closing_costs_pct"`
	RevenueGrowthRate          float64 `json:"revenue_growth_rate"`
	ExpenseGrowthRate          float64 `json:"expense_growth_rate"`
	ManagementFeePct           float64 `json:"management_fee_pct"`
	ExitCapRateSpread          float64 `json:"exit_cap_rate_spread"`
	SaleCostsPct               float64 `json:"sale_costs_pct"`
	ReplacementReservesPerUnit float64 `json:"replacement_reserves_per_unit"`

	MLValuation    bool `json:"ml_valuation"`
	RentPrediction bool `json:"rent_prediction"`
}

// ParseForm builds Inputs from submitted form values.
func ParseForm(values url.Values) Inputs {
	return Inputs{
		PropertyType: valueOr(values, "property_type", "Multifamily - Class B"),
		Address:      values.Get("address"),
		YearBuilt:    parseInt(values.Get("year_built"), 2000),

		PurchasePrice:       parseFloat(values.Get("purchase_price"), 0),
		CurrentNOI:          parseFloat(values.Get("current_noi"), 0),
		TotalUnits:          parseInt(values.Get("total_units"), 0),
		TotalSF:             parseFloat(values.Get("total_sf"), 0),
		InPlaceRent:         parseFloat(values.Get("in_place_rent"), 0),
		MarketRent:          parseFloat(values.Get("market_rent"), 0),
		Occupancy:           parseFloat(values.Get("occupancy"), 92) / 100,
		DeferredMaintenance: parseFloat(values.Get("deferred_maintenance"), 0),
		PlannedCapex:        parseFloat(values.Get("planned_capex"), 0),
		CapexDescription:    values.Get("capex_description"),
		HoldPeriodYears:     parseInt(values.Get("hold_period_years"), 7),
		TaxRate:             parseFloat(values.Get("tax_rate"), 1.1) / 100,
		LandValuePct:        parseFloat(values.Get("land_value_pct"), 20) / 100,

		LTV:                        parseFloat(values.Get("ltv"), 65) / 100,
		InterestRate:               parseFloat(values.Get("interest_rate"), 6.75) / 100,
		AmortizationYears:          parseInt(values.Get("amortization_years"), 30),
		LoanTermYears:              parseInt(values.Get("loan_term_years"), 10),
		IOPeriodYears:              parseInt(values.Get("io_period_years"), 0),
		ClosingCostsPct:            parseFloat(values.Get("closing_costs_pct"), 3) / 100,
		RevenueGrowthRate:          parseFloat(values.Get("revenue_growth_rate"), 3) / 100,
		ExpenseGrowthRate:          parseFloat(values.Get("expense_growth_rate"), 3) / 100,
		ManagementFeePct:           parseFloat(values.Get("management_fee_pct"), 3.5) / 100,
		ExitCapRateSpread:          parseFloat(values.Get("exit_cap_rate_spread"), 25) / 10000,
		SaleCostsPct:               parseFloat(values.Get("sale_costs_pct"), 2.5) / 100,
		ReplacementReservesPerUnit: parseFloat(values.Get("replacement_reserves_per_unit"), 250),

		MLValuation:    parseBool(values.Get("mlValuation")),
		RentPrediction: parseBool(values.Get("rentPrediction")),
	}
}

func valueOr(values url.Values, key, fallback string) string {
	if v := strings.TrimSpace(values.Get(key)); v != "" {
		return v
	}
	return fallback
}

func parseFloat(raw string, fallback float64) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return value
}

func parseInt(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return value
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
