package enums

import "fmt"

// FeeAction is the single cart mutation chosen by a reconciliation pass.
type FeeAction string

const (
	FeeActionNone        FeeAction = "none"
	FeeActionRemove      FeeAction = "remove"
	FeeActionAdd         FeeAction = "add"
	FeeActionSetQuantity FeeAction = "set_quantity"
)

var validFeeActions = []FeeAction{
	FeeActionNone,
	FeeActionRemove,
	FeeActionAdd,
	FeeActionSetQuantity,
}

// String implements fmt.Stringer.
func (a FeeAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known FeeAction.
func (a FeeAction) IsValid() bool {
	for _, candidate := range validFeeActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// Mutates reports whether applying the action writes to the cart.
func (a FeeAction) Mutates() bool {
	return a != FeeActionNone && a != ""
}

// ParseFeeAction converts raw input into a FeeAction.
func ParseFeeAction(value string) (FeeAction, error) {
	for _, candidate := range validFeeActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee action %q", value)
}

// AdjustmentSource identifies which flow produced a ledger entry.
type AdjustmentSource string

const (
	AdjustmentSourceReconcile AdjustmentSource = "reconcile"
	AdjustmentSourceRemoval   AdjustmentSource = "removal"
)

var validAdjustmentSources = []AdjustmentSource{
	AdjustmentSourceReconcile,
	AdjustmentSourceRemoval,
}

// String implements fmt.Stringer.
func (s AdjustmentSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AdjustmentSource.
func (s AdjustmentSource) IsValid() bool {
	for _, candidate := range validAdjustmentSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAdjustmentSource converts raw input into an AdjustmentSource.
func ParseAdjustmentSource(value string) (AdjustmentSource, error) {
	for _, candidate := range validAdjustmentSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment source %q", value)
}
