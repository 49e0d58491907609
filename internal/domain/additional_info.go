package domain

import "fmt"

// FieldKind discriminates the shapes an "additional information" entry
// can take on the platform's edit view.
type FieldKind string

const (
	FieldKindText   FieldKind = "text"
	FieldKindSelect FieldKind = "select"
)

// Option is one selectable value of a select-type field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AdditionalInfoField is the typed form of one "additional information"
// entry. The platform serves these as loosely-typed JSON; they are
// validated exactly once, on ingestion, so everything downstream stays
// strongly typed. Options is populated only for select fields.
type AdditionalInfoField struct {
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Value    string    `json:"value,omitempty"`
	Options  []Option  `json:"options,omitempty"`
	Selected string    `json:"selected,omitempty"`
}

// ParseAdditionalInfoField validates a single loose platform blob into a
// typed field. Entries without a usable label, or select entries without
// options, are rejected.
func ParseAdditionalInfoField(raw map[string]any) (AdditionalInfoField, error) {
	label := stringValue(raw, "custom_name")
	if label == "" {
		label = stringValue(raw, "name")
	}
	if label == "" {
		label = stringValue(raw, "label")
	}
	if label == "" {
		return AdditionalInfoField{}, fmt.Errorf("%w: missing name", ErrInvalidAdditionalInfo)
	}

	rawOpts, hasOpts := raw["options"]
	if !hasOpts {
		return AdditionalInfoField{
			Kind:  FieldKindText,
			Label: label,
			Value: stringValue(raw, "value"),
		}, nil
	}

	list, ok := rawOpts.([]any)
	if !ok || len(list) == 0 {
		return AdditionalInfoField{}, fmt.Errorf("%w: %q has empty or malformed options", ErrInvalidAdditionalInfo, label)
	}

	opts := make([]Option, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			opts = append(opts, Option{Value: v, Label: v})
		case map[string]any:
			opt := Option{Value: stringValue(v, "value"), Label: stringValue(v, "label")}
			if opt.Label == "" {
				opt.Label = stringValue(v, "name")
			}
			if opt.Value == "" && opt.Label == "" {
				return AdditionalInfoField{}, fmt.Errorf("%w: %q has an option without value or label", ErrInvalidAdditionalInfo, label)
			}
			if opt.Value == "" {
				opt.Value = opt.Label
			}
			opts = append(opts, opt)
		default:
			return AdditionalInfoField{}, fmt.Errorf("%w: %q has an option of unsupported type %T", ErrInvalidAdditionalInfo, label, entry)
		}
	}

	return AdditionalInfoField{
		Kind:     FieldKindSelect,
		Label:    label,
		Options:  opts,
		Selected: stringValue(raw, "selected"),
	}, nil
}

// ParseAdditionalInfoFields validates a batch of loose entries, keeping
// the valid ones and collecting one error per rejected entry.
func ParseAdditionalInfoFields(raws []map[string]any) ([]AdditionalInfoField, []error) {
	var (
		fields []AdditionalInfoField
		errs   []error
	)
	for i, raw := range raws {
		field, err := ParseAdditionalInfoField(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		fields = append(fields, field)
	}
	return fields, errs
}

func stringValue(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
