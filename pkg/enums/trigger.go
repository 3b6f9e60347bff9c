package enums

import "fmt"

// TriggerKind names the page event that asked for a reconciliation.
type TriggerKind string

const (
	TriggerCheckboxToggled    TriggerKind = "checkbox_toggled"
	TriggerCartUpdated        TriggerKind = "cart_updated"
	TriggerPageInit           TriggerKind = "page_init"
	TriggerAddToCartCompleted TriggerKind = "add_to_cart_completed"
	TriggerQuantityStepper    TriggerKind = "quantity_stepper"
	TriggerQuantityInput      TriggerKind = "quantity_input"
)

var validTriggerKinds = []TriggerKind{
	TriggerCheckboxToggled,
	TriggerCartUpdated,
	TriggerPageInit,
	TriggerAddToCartCompleted,
	TriggerQuantityStepper,
	TriggerQuantityInput,
}

// String implements fmt.Stringer.
func (t TriggerKind) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TriggerKind.
func (t TriggerKind) IsValid() bool {
	for _, candidate := range validTriggerKinds {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsDebounced reports whether the trigger waits for the quiescence window.
func (t TriggerKind) IsDebounced() bool {
	return t == TriggerQuantityStepper || t == TriggerQuantityInput
}

// ParseTriggerKind converts raw input into a TriggerKind.
func ParseTriggerKind(value string) (TriggerKind, error) {
	for _, candidate := range validTriggerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger kind %q", value)
}
