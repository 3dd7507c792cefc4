package form

import "strings"

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
)

// Field models an individual input inside the underwriting form. Struct fields
// are annotated so handlers and renderers can serialise them directly.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Format      string    `json:"format,omitempty"`
	Required    bool      `json:"required"`
	Label       string    `json:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	Default     string    `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// Checkbox reports whether the field renders as a checkbox rather than a text
// input.
func (f Field) Checkbox() bool {
	return f.Type == FieldTypeBoolean
}

// Model is the top-level representation the controller, the renderer, and the
// terminal client consume.
type Model struct {
	OperationID string  `json:"operationId"`
	Endpoint    string  `json:"endpoint"`
	Method      string  `json:"method"`
	Summary     string  `json:"summary,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field returns the field with the given name, if present.
func (m Model) Field(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Has reports whether a field with the given name exists in the model.
func (m Model) Has(name string) bool {
	_, ok := m.Field(name)
	return ok
}

// RequiredFields returns the names of all fields flagged required, in model
// order.
func (m Model) RequiredFields() []string {
	var names []string
	for _, field := range m.Fields {
		if field.Required {
			names = append(names, field.Name)
		}
	}
	return names
}
