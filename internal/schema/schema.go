// Package schema turns the OpenAPI description of the analyze operation into
// the form model the rest of the tool consumes. The document is embedded so
// the binaries are self-contained; an on-disk override exists for iterating on
// the form without recompiling.
package schema

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/propforma/underwrite/pkg/form"
)

//go:embed openapi.yaml
var embeddedDocument []byte

const analyzePath = "/api/analyze"

const fieldOrderExtension = "x-field-order"

var errNoAnalyzeOperation = errors.New("schema: document does not declare POST " + analyzePath)

// Load builds the analyze form model from the embedded document.
func Load(ctx context.Context) (form.Model, error) {
	return Parse(ctx, embeddedDocument)
}

// LoadFile builds the form model from an on-disk OpenAPI document.
func LoadFile(ctx context.Context, path string) (form.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return form.Model{}, fmt.Errorf("schema: read document: %w", err)
	}
	return Parse(ctx, data)
}

// Parse builds the form model from raw OpenAPI YAML or JSON.
func Parse(ctx context.Context, raw []byte) (form.Model, error) {
	if len(raw) == 0 {
		return form.Model{}, errors.New("schema: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return form.Model{}, fmt.Errorf("schema: load document: %w", err)
	}

	if doc.Paths == nil {
		return form.Model{}, errNoAnalyzeOperation
	}
	item := doc.Paths.Find(analyzePath)
	if item == nil || item.Post == nil {
		return form.Model{}, errNoAnalyzeOperation
	}
	operation := item.Post

	body := requestSchema(operation)
	if body == nil {
		return form.Model{}, fmt.Errorf("schema: POST %s has no form request body", analyzePath)
	}

	fields, err := buildFields(body)
	if err != nil {
		return form.Model{}, err
	}

	opID := operation.OperationID
	if opID == "" {
		opID = "post:" + analyzePath
	}
	return form.Model{
		OperationID: opID,
		Endpoint:    analyzePath,
		Method:      "POST",
		Summary:     operation.Summary,
		Fields:      fields,
	}, nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	content := operation.RequestBody.Value.Content
	for _, mediaType := range []string{"multipart/form-data", "application/x-www-form-urlencoded"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func buildFields(body *openapi3.Schema) ([]form.Field, error) {
	if len(body.Properties) == 0 {
		return nil, errors.New("schema: request body declares no properties")
	}

	required := make(map[string]struct{}, len(body.Required))
	for _, name := range body.Required {
		required[name] = struct{}{}
	}

	fields := make([]form.Field, 0, len(body.Properties))
	for _, name := range fieldOrder(body) {
		ref, ok := body.Properties[name]
		if !ok || ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("schema: field order references unknown property %q", name)
		}
		prop := ref.Value

		field := form.Field{
			Name:        name,
			Type:        fieldType(prop),
			Format:      prop.Format,
			Label:       prop.Title,
			Description: prop.Description,
		}
		if _, ok := required[name]; ok {
			field.Required = true
		}
		if example, ok := prop.Example.(string); ok {
			field.Placeholder = example
		}
		if prop.Default != nil {
			field.Default = fmt.Sprint(prop.Default)
		}
		for _, value := range prop.Enum {
			field.Enum = append(field.Enum, fmt.Sprint(value))
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// fieldOrder returns property names in the order declared by the
// x-field-order extension, falling back to sorted names since YAML mapping
// order does not survive parsing.
func fieldOrder(body *openapi3.Schema) []string {
	if raw, ok := body.Extensions[fieldOrderExtension]; ok {
		if listed, ok := raw.([]any); ok {
			names := make([]string, 0, len(listed))
			for _, entry := range listed {
				if name, ok := entry.(string); ok && strings.TrimSpace(name) != "" {
					names = append(names, name)
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fieldType(prop *openapi3.Schema) form.FieldType {
	types := prop.Type
	switch {
	case types.Is(openapi3.TypeBoolean):
		return form.FieldTypeBoolean
	case types.Is(openapi3.TypeInteger):
		return form.FieldTypeInteger
	case types.Is(openapi3.TypeNumber):
		return form.FieldTypeNumber
	default:
		return form.FieldTypeString
	}
}
