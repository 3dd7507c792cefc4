package prompt

import (
	"context"
	"fmt"

	"github.com/propforma/underwrite/pkg/form"
	"github.com/propforma/underwrite/pkg/formflow"
)

// Fill walks every field in the controller's model, prompting according to the
// field's kind and recording answers on the controller. Required fields are
// flagged in the prompt message; emptiness is still enforced by the
// controller's own validation at submit time.
func Fill(ctx context.Context, driver Driver, model form.Model, controller *formflow.Controller) error {
	for _, field := range model.Fields {
		message := field.Label
		if message == "" {
			message = field.Name
		}
		if field.Required {
			message += " (required)"
		}

		switch {
		case field.Checkbox():
			checked, err := driver.Confirm(ctx, ConfirmConfig{
				Message: message,
				Default: controller.Checked(field.Name),
				Help:    field.Description,
			})
			if err != nil {
				return fmt.Errorf("prompt: field %q: %w", field.Name, err)
			}
			controller.SetChecked(field.Name, checked)

		case len(field.Enum) > 0:
			idx, err := driver.Select(ctx, SelectConfig{
				Message: message,
				Options: field.Enum,
				Help:    field.Description,
			})
			if err != nil {
				return fmt.Errorf("prompt: field %q: %w", field.Name, err)
			}
			if idx >= 0 {
				controller.SetValue(field.Name, field.Enum[idx])
			}

		case field.Format == "textarea":
			value, err := driver.TextArea(ctx, InputConfig{
				Message: message,
				Default: controller.Value(field.Name),
				Help:    field.Description,
			})
			if err != nil {
				return fmt.Errorf("prompt: field %q: %w", field.Name, err)
			}
			controller.SetValue(field.Name, value)

		default:
			value, err := driver.Input(ctx, InputConfig{
				Message: message,
				Default: controller.Value(field.Name),
				Help:    field.Description,
			})
			if err != nil {
				return fmt.Errorf("prompt: field %q: %w", field.Name, err)
			}
			controller.SetValue(field.Name, value)
		}
	}
	return nil
}
