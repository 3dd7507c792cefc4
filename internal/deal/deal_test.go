package deal_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/propforma/underwrite/internal/deal"
)

func TestParseFormAppliesDefaults(t *testing.T) {
	got := deal.ParseForm(url.Values{})

	want := deal.Inputs{
		PropertyType:               "Multifamily - Class B",
		YearBuilt:                  2000,
		Occupancy:                  0.92,
		HoldPeriodYears:            7,
		TaxRate:                    1.1 / 100,
		LandValuePct:               0.20,
		LTV:                        0.65,
		InterestRate:               0.0675,
		AmortizationYears:          30,
		LoanTermYears:              10,
		ClosingCostsPct:            0.03,
		RevenueGrowthRate:          0.03,
		ExpenseGrowthRate:          0.03,
		ManagementFeePct:           0.035,
		ExitCapRateSpread:          0.0025,
		SaleCostsPct:               0.025,
		ReplacementReservesPerUnit: 250,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormNormalisesPercentages(t *testing.T) {
	values := url.Values{}
	values.Set("occupancy", "93")
	values.Set("ltv", "70")
	values.Set("interest_rate", "6.25")
	values.Set("exit_cap_rate_spread", "50")
	values.Set("tax_rate", "1.2")

	got := deal.ParseForm(values)

	if got.Occupancy != 0.93 {
		t.Fatalf("expected occupancy 0.93, got %v", got.Occupancy)
	}
	if got.LTV != 0.70 {
		t.Fatalf("expected ltv 0.70, got %v", got.LTV)
	}
	if got.InterestRate != 0.0625 {
		t.Fatalf("expected interest rate 0.0625, got %v", got.InterestRate)
	}
	if got.ExitCapRateSpread != 0.005 {
		t.Fatalf("expected exit cap spread 0.005, got %v", got.ExitCapRateSpread)
	}
	if got.TaxRate != 0.012 {
		t.Fatalf("expected tax rate 0.012, got %v", got.TaxRate)
	}
}

func TestParseFormLenientOnMalformedNumbers(t *testing.T) {
	values := url.Values{}
	values.Set("purchase_price", "twelve million")
	values.Set("total_units", "ninety-six")
	values.Set("hold_period_years", "abc")

	got := deal.ParseForm(values)

	if got.PurchasePrice != 0 {
		t.Fatalf("expected malformed price to fall back to 0, got %v", got.PurchasePrice)
	}
	if got.TotalUnits != 0 {
		t.Fatalf("expected malformed unit count to fall back to 0, got %v", got.TotalUnits)
	}
	if got.HoldPeriodYears != 7 {
		t.Fatalf("expected malformed hold period to fall back to 7, got %v", got.HoldPeriodYears)
	}
}

func TestParseFormCheckboxEncodings(t *testing.T) {
	for _, raw := range []string{"on", "true", "1", "yes", "YES"} {
		values := url.Values{}
		values.Set("mlValuation", raw)
		if got := deal.ParseForm(values); !got.MLValuation {
			t.Fatalf("expected %q to mean checked", raw)
		}
	}
	for _, raw := range []string{"", "off", "false", "0"} {
		values := url.Values{}
		values.Set("rentPrediction", raw)
		if got := deal.ParseForm(values); got.RentPrediction {
			t.Fatalf("expected %q to mean unchecked", raw)
		}
	}
}

func TestParseFormPassesThroughText(t *testing.T) {
	values := url.Values{}
	values.Set("address", "4250 Maple Grove Ln, Charlotte, NC 28205")
	values.Set("capex_description", "Roof replacement on buildings 2 and 4.")
	values.Set("property_type", "Mixed-Use")

	got := deal.ParseForm(values)

	if got.Address != "4250 Maple Grove Ln, Charlotte, NC 28205" {
		t.Fatalf("unexpected address %q", got.Address)
	}
	if got.CapexDescription != "Roof replacement on buildings 2 and 4." {
		t.Fatalf("unexpected capex description %q", got.CapexDescription)
	}
	if got.PropertyType != "Mixed-Use" {
		t.Fatalf("unexpected property type %q", got.PropertyType)
	}
}
