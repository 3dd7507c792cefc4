package form

// DemoPreset is a fixed mapping of field names to sample values used to fill
// the form for demonstrations. Entries without a matching field in the model
// are ignored when applied.
type DemoPreset struct {
	Values  map[string]string
	Checked []string
}

// DemoDeal returns the sample multifamily deal preset. The two model-toggle
// checkboxes are forced on as part of the same action.
func DemoDeal() DemoPreset {
	return DemoPreset{
		Values: map[string]string{
			"property_type":        "Multifamily - Class B",
			"year_built":           "1987",
			"address":              "4250 Maple Grove Ln, Charlotte, NC 28205",
			"purchase_price":       "12500000",
			"current_noi":          "812500",
			"total_units":          "96",
			"total_sf":             "82400",
			"in_place_rent":        "1185",
			"market_rent":          "1295",
			"occupancy":            "93",
			"deferred_maintenance": "350000",
			"planned_capex":        "1200000",
			"capex_description":    "Unit interior refresh, roof replacement on buildings 2 and 4, parking lot resurfacing.",
			"hold_period_years":    "7",
			"tax_rate":             "1.1",
			"land_value_pct":       "20",
		},
		Checked: []string{"mlValuation", "rentPrediction"},
	}
}
