package form_test

import (
	"testing"

	"github.com/propforma/underwrite/pkg/form"
)

func sampleModel() form.Model {
	return form.Model{
		OperationID: "analyze-deal",
		Endpoint:    "/api/analyze",
		Method:      "POST",
		Fields: []form.Field{
			{Name: "address", Type: form.FieldTypeString, Required: true},
			{Name: "purchase_price", Type: form.FieldTypeNumber, Required: true},
			{Name: "year_built", Type: form.FieldTypeInteger},
			{Name: "mlValuation", Type: form.FieldTypeBoolean},
		},
	}
}

func TestModelFieldLookup(t *testing.T) {
	m := sampleModel()

	field, ok := m.Field("purchase_price")
	if !ok {
		t.Fatalf("expected purchase_price to be present")
	}
	if field.Type != form.FieldTypeNumber {
		t.Fatalf("expected number type, got %q", field.Type)
	}

	if _, ok := m.Field("cap_rate"); ok {
		t.Fatalf("expected cap_rate lookup to miss")
	}
	if !m.Has("  address  ") {
		t.Fatalf("expected Has to trim the lookup name")
	}
}

func TestModelRequiredFields(t *testing.T) {
	m := sampleModel()

	got := m.RequiredFields()
	want := []string{"address", "purchase_price"}
	if len(got) != len(want) {
		t.Fatalf("expected %d required fields, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected required field %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestFieldCheckbox(t *testing.T) {
	m := sampleModel()

	field, _ := m.Field("mlValuation")
	if !field.Checkbox() {
		t.Fatalf("expected boolean field to render as a checkbox")
	}
	field, _ = m.Field("address")
	if field.Checkbox() {
		t.Fatalf("expected string field not to render as a checkbox")
	}
}

func TestDemoDealCoversCheckedToggles(t *testing.T) {
	preset := form.DemoDeal()

	if preset.Values["purchase_price"] != "12500000" {
		t.Fatalf("expected demo purchase price, got %q", preset.Values["purchase_price"])
	}
	if preset.Values["address"] == "" {
		t.Fatalf("expected demo address to be set")
	}

	wantChecked := map[string]bool{"mlValuation": false, "rentPrediction": false}
	for _, name := range preset.Checked {
		if _, ok := wantChecked[name]; !ok {
			t.Fatalf("unexpected checked toggle %q", name)
		}
		wantChecked[name] = true
	}
	for name, seen := range wantChecked {
		if !seen {
			t.Fatalf("expected %q in the demo checked list", name)
		}
	}
}
