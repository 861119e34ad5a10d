package scene

import (
	"fmt"
	"math"
	"slices"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// FieldKind selects the control used to edit a ConfigField.
type FieldKind int

const (
	FieldNumber FieldKind = iota
	FieldCheckbox
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumber:
		return "number"
	case FieldCheckbox:
		return "checkbox"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// ConfigField describes one scene tunable so a generic form can edit it.
// Checkbox values are 0 (off) or 1 (on).
type ConfigField struct {
	Key     string
	Label   string
	Kind    FieldKind
	Order   int
	Default float64

	Min    float64
	HasMin bool
	Max    float64
	HasMax bool

	// OnChange mutates the live scene. It is only called with valid values.
	OnChange func(value float64) error
}

// Validate checks value against the field's constraints.
func (f ConfigField) Validate(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.NewValidationError(f.Key, value, "must be a finite number", domain.ErrInvalidFieldValue)
	}
	if f.Kind == FieldCheckbox {
		if value != 0 && value != 1 {
			return domain.NewValidationError(f.Key, value, "checkbox value must be 0 or 1", domain.ErrInvalidFieldValue)
		}
		return nil
	}
	if f.HasMin && value < f.Min {
		return domain.NewValidationError(f.Key, value, fmt.Sprintf("must be at least %g", f.Min), domain.ErrInvalidFieldValue)
	}
	if f.HasMax && value > f.Max {
		return domain.NewValidationError(f.Key, value, fmt.Sprintf("must be at most %g", f.Max), domain.ErrInvalidFieldValue)
	}
	return nil
}

// Apply validates value and passes it to OnChange.
func (f ConfigField) Apply(value float64) error {
	if err := f.Validate(value); err != nil {
		return err
	}
	if f.OnChange == nil {
		return nil
	}
	return f.OnChange(value)
}

// SortFields returns a copy of fields ordered by ascending Order.
// Fields with equal Order keep their relative position.
func SortFields(fields []ConfigField) []ConfigField {
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(a, b ConfigField) int { return a.Order - b.Order })
	return out
}

// BoolValue encodes a checkbox state.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
