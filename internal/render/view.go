package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/propforma/underwrite/pkg/form"
)

var descriptionPolicy = bluemonday.StrictPolicy()

// SanitizeDescription strips any markup from schema-provided help text before
// it reaches a template marked |safe.
func SanitizeDescription(raw string) string {
	return strings.TrimSpace(descriptionPolicy.Sanitize(raw))
}

// FieldView is a template-friendly projection of a form field.
type FieldView struct {
	Name        string
	Label       string
	Placeholder string
	Description string
	InputType   string
	Required    bool
	IsCheckbox  bool
	IsTextarea  bool
	IsSelect    bool
	Options     []string
	Value       string
}

// FormContext assembles the data the form page template consumes, including
// the demo preset serialised for the page script.
func FormContext(m form.Model, preset form.DemoPreset) (map[string]any, error) {
	views := make([]FieldView, 0, len(m.Fields))
	for _, field := range m.Fields {
		view := FieldView{
			Name:        field.Name,
			Label:       field.Label,
			Placeholder: field.Placeholder,
			Description: SanitizeDescription(field.Description),
			Required:    field.Required,
			Value:       field.Default,
		}
		if view.Label == "" {
			view.Label = field.Name
		}
		switch {
		case field.Checkbox():
			view.IsCheckbox = true
		case len(field.Enum) > 0:
			view.IsSelect = true
			view.Options = field.Enum
		case field.Format == "textarea":
			view.IsTextarea = true
		case field.Type == form.FieldTypeInteger || field.Type == form.FieldTypeNumber:
			view.InputType = "number"
		default:
			view.InputType = "text"
		}
		views = append(views, view)
	}

	demo, err := json.Marshal(map[string]any{
		"values":  preset.Values,
		"checked": preset.Checked,
	})
	if err != nil {
		return nil, fmt.Errorf("render: encode demo preset: %w", err)
	}

	return map[string]any{
		"title":     "Real Estate Underwriting",
		"summary":   m.Summary,
		"endpoint":  m.Endpoint,
		"fields":    views,
		"demo_json": string(demo),
	}, nil
}
