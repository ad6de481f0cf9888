package resolve

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
)

// FormPrompter prompts on the terminal with huh forms.
type FormPrompter struct{}

// Prompt implements Prompter.
func (FormPrompter) Prompt(ctx context.Context, in Input) (string, error) {
	var value string

	if len(in.Choices) > 0 {
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(in.Title()).
					Options(huh.NewOptions(in.Choices...)...).
					Value(&value),
			),
		).RunWithContext(ctx)
		return value, err
	}

	field := huh.NewInput().
		Title(in.Title()).
		Value(&value).
		Validate(notEmpty)
	if in.Secret {
		field = field.EchoMode(huh.EchoModePassword)
	}
	fields := []huh.Field{field}

	if in.Verify {
		var repeated string
		confirm := huh.NewInput().
			Title(in.Title() + " (again)").
			Value(&repeated).
			Validate(func(s string) error {
				if s != value {
					return errors.New("values do not match")
				}
				return nil
			})
		if in.Secret {
			confirm = confirm.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, confirm)
	}

	err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx)
	return value, err
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("a value is required")
	}
	return nil
}
