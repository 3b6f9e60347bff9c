// Package reconcile converges a cart's fee line onto the session preference.
package reconcile

import (
	"github.com/angelmondragon/packfinderz-cartfee/internal/cart"
	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
)

// Calculator computes the desired fee for a subtotal.
type Calculator interface {
	Calculate(subtotal int64) int64
}

// Action is the single mutation a pass applies.
type Action struct {
	Kind   enums.FeeAction `json:"kind"`
	Key    string          `json:"key,omitempty"`
	Amount int64           `json:"amount"`
}

// None is the no-op action.
var None = Action{Kind: enums.FeeActionNone}

// Decide maps a snapshot and preference to one action. First match wins:
// duplicate fee lines are zeroed one at a time, then an empty cart or a
// missing opt-in removes the fee, otherwise the fee is added or resized.
func Decide(snap cart.Snapshot, pref preference.Value, calc Calculator) Action {
	if len(snap.DuplicateFeeLines) > 0 {
		return Action{Kind: enums.FeeActionRemove, Key: snap.DuplicateFeeLines[0].Key}
	}

	if snap.SubtotalExcludingFee <= 0 || !pref.WantsFee() {
		if snap.FeeLine != nil {
			return Action{Kind: enums.FeeActionRemove, Key: snap.FeeLine.Key}
		}
		return None
	}

	desired := calc.Calculate(snap.SubtotalExcludingFee)
	switch {
	case snap.FeeLine == nil:
		return Action{Kind: enums.FeeActionAdd, Amount: desired}
	case snap.FeeLine.Quantity == desired:
		return None
	default:
		return Action{Kind: enums.FeeActionSetQuantity, Key: snap.FeeLine.Key, Amount: desired}
	}
}
