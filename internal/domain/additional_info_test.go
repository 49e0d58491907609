package domain

import (
	"errors"
	"testing"
)

func TestParseAdditionalInfoFieldText(t *testing.T) {
	field, err := ParseAdditionalInfoField(map[string]any{
		"name":  "Voltagem",
		"value": "220V",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind != FieldKindText {
		t.Errorf("Kind = %q, want %q", field.Kind, FieldKindText)
	}
	if field.Label != "Voltagem" || field.Value != "220V" {
		t.Errorf("field = %+v, want Voltagem=220V", field)
	}
}

func TestParseAdditionalInfoFieldLabelPriority(t *testing.T) {
	t.Run("custom_name wins over name", func(t *testing.T) {
		field, err := ParseAdditionalInfoField(map[string]any{
			"custom_name": "Cor Personalizada",
			"name":        "Cor",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if field.Label != "Cor Personalizada" {
			t.Errorf("Label = %q, want custom_name", field.Label)
		}
	})

	t.Run("label is the last fallback", func(t *testing.T) {
		field, err := ParseAdditionalInfoField(map[string]any{"label": "Tamanho"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if field.Label != "Tamanho" {
			t.Errorf("Label = %q, want Tamanho", field.Label)
		}
	})

	t.Run("missing label is rejected", func(t *testing.T) {
		_, err := ParseAdditionalInfoField(map[string]any{"value": "220V"})
		if !errors.Is(err, ErrInvalidAdditionalInfo) {
			t.Errorf("err = %v, want ErrInvalidAdditionalInfo", err)
		}
	})
}

func TestParseAdditionalInfoFieldSelect(t *testing.T) {
	t.Run("string options", func(t *testing.T) {
		field, err := ParseAdditionalInfoField(map[string]any{
			"name":     "Cor",
			"options":  []any{"Azul", "Preto"},
			"selected": "Azul",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if field.Kind != FieldKindSelect {
			t.Errorf("Kind = %q, want %q", field.Kind, FieldKindSelect)
		}
		if len(field.Options) != 2 || field.Options[0].Value != "Azul" {
			t.Errorf("Options = %+v, want Azul and Preto", field.Options)
		}
		if field.Selected != "Azul" {
			t.Errorf("Selected = %q, want Azul", field.Selected)
		}
	})

	t.Run("map options", func(t *testing.T) {
		field, err := ParseAdditionalInfoField(map[string]any{
			"name": "Tamanho",
			"options": []any{
				map[string]any{"value": "p", "label": "Pequeno"},
				map[string]any{"label": "Grande"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if field.Options[0].Value != "p" || field.Options[0].Label != "Pequeno" {
			t.Errorf("first option = %+v", field.Options[0])
		}
		// A label-only option borrows its label as value.
		if field.Options[1].Value != "Grande" {
			t.Errorf("second option value = %q, want Grande", field.Options[1].Value)
		}
	})

	t.Run("empty options are rejected", func(t *testing.T) {
		_, err := ParseAdditionalInfoField(map[string]any{
			"name":    "Cor",
			"options": []any{},
		})
		if !errors.Is(err, ErrInvalidAdditionalInfo) {
			t.Errorf("err = %v, want ErrInvalidAdditionalInfo", err)
		}
	})

	t.Run("unsupported option type is rejected", func(t *testing.T) {
		_, err := ParseAdditionalInfoField(map[string]any{
			"name":    "Cor",
			"options": []any{42},
		})
		if !errors.Is(err, ErrInvalidAdditionalInfo) {
			t.Errorf("err = %v, want ErrInvalidAdditionalInfo", err)
		}
	})
}

func TestParseAdditionalInfoFieldsPartialFailure(t *testing.T) {
	fields, errs := ParseAdditionalInfoFields([]map[string]any{
		{"name": "Voltagem", "value": "220V"},
		{"value": "no label"},
		{"name": "Cor", "options": []any{"Azul"}},
	})

	if len(fields) != 2 {
		t.Errorf("fields = %d, want 2", len(fields))
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %d, want 1", len(errs))
	}
	if !errors.Is(errs[0], ErrInvalidAdditionalInfo) {
		t.Errorf("err = %v, want ErrInvalidAdditionalInfo", errs[0])
	}
}
