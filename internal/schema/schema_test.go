package schema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/propforma/underwrite/internal/schema"
	"github.com/propforma/underwrite/pkg/form"
)

func TestLoadEmbeddedDocument(t *testing.T) {
	model, err := schema.Load(context.Background())
	if err != nil {
		t.Fatalf("load embedded document: %v", err)
	}

	if model.OperationID != "analyze-deal" {
		t.Fatalf("expected operation id analyze-deal, got %q", model.OperationID)
	}
	if model.Endpoint != "/api/analyze" || model.Method != "POST" {
		t.Fatalf("expected POST /api/analyze, got %s %s", model.Method, model.Endpoint)
	}
	if model.Summary != "Run Analysis" {
		t.Fatalf("expected summary, got %q", model.Summary)
	}

	wantOrder := []string{
		"property_type", "year_built", "address", "purchase_price",
		"current_noi", "total_units", "total_sf", "in_place_rent",
		"market_rent", "occupancy", "deferred_maintenance", "planned_capex",
		"capex_description", "hold_period_years", "tax_rate", "land_value_pct",
		"mlValuation", "rentPrediction",
	}
	var gotOrder []string
	for _, field := range model.Fields {
		gotOrder = append(gotOrder, field.Name)
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	wantRequired := []string{
		"property_type", "address", "purchase_price",
		"current_noi", "total_units", "in_place_rent",
	}
	gotRequired := map[string]bool{}
	for _, name := range model.RequiredFields() {
		gotRequired[name] = true
	}
	if len(gotRequired) != len(wantRequired) {
		t.Fatalf("expected %d required fields, got %v", len(wantRequired), model.RequiredFields())
	}
	for _, name := range wantRequired {
		if !gotRequired[name] {
			t.Fatalf("expected %q to be required", name)
		}
	}

	for _, name := range []string{"mlValuation", "rentPrediction"} {
		field, ok := model.Field(name)
		if !ok {
			t.Fatalf("expected %q in the model", name)
		}
		if field.Type != form.FieldTypeBoolean || !field.Checkbox() {
			t.Fatalf("expected %q to be a checkbox, got %q", name, field.Type)
		}
		if field.Description == "" {
			t.Fatalf("expected %q to carry a description", name)
		}
	}

	capex, _ := model.Field("capex_description")
	if capex.Format != "textarea" {
		t.Fatalf("expected capex_description textarea format, got %q", capex.Format)
	}

	propertyType, _ := model.Field("property_type")
	if len(propertyType.Enum) != 6 {
		t.Fatalf("expected 6 property type options, got %v", propertyType.Enum)
	}

	yearBuilt, _ := model.Field("year_built")
	if yearBuilt.Type != form.FieldTypeInteger {
		t.Fatalf("expected year_built integer, got %q", yearBuilt.Type)
	}
	if yearBuilt.Placeholder != "1987" {
		t.Fatalf("expected year_built placeholder from the example, got %q", yearBuilt.Placeholder)
	}
}

func TestParseRejectsMissingOperation(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info:
  title: Other API
  version: "1.0"
paths:
  /api/other:
    get:
      operationId: other
      responses:
        "200":
          description: ok
`)
	if _, err := schema.Parse(context.Background(), doc); err == nil {
		t.Fatalf("expected an error when POST /api/analyze is absent")
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := schema.Parse(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for an empty payload")
	}
}

func TestParseFallsBackToSortedOrder(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info:
  title: Underwrite API
  version: "1.0"
paths:
  /api/analyze:
    post:
      operationId: analyze-deal
      requestBody:
        required: true
        content:
          multipart/form-data:
            schema:
              type: object
              required: [address]
              properties:
                zebra:
                  type: string
                address:
                  type: string
      responses:
        "200":
          description: ok
`)
	model, err := schema.Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(model.Fields) != 2 || model.Fields[0].Name != "address" || model.Fields[1].Name != "zebra" {
		t.Fatalf("expected sorted fallback ordering, got %+v", model.Fields)
	}
}

func TestParseRejectsDanglingOrderEntry(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info:
  title: Underwrite API
  version: "1.0"
paths:
  /api/analyze:
    post:
      operationId: analyze-deal
      requestBody:
        required: true
        content:
          multipart/form-data:
            schema:
              type: object
              x-field-order: [address, cap_rate]
              properties:
                address:
                  type: string
      responses:
        "200":
          description: ok
`)
	if _, err := schema.Parse(context.Background(), doc); err == nil {
		t.Fatalf("expected an error for an order entry without a property")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := schema.LoadFile(context.Background(), "does-not-exist.yaml"); err == nil {
		t.Fatalf("expected an error for a missing document")
	}
}
