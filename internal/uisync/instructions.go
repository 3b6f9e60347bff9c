// Package uisync tells the page how to reflect a reconciliation.
package uisync

import pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"

const (
	EventCartUpdated = "cart:updated"
	EventFeeChanged  = "paypal-fee-changed"

	ControlCart    = "paypal-fee-checkbox-cart"
	ControlDrawer  = "paypal-fee-checkbox-drawer"
	ControlProduct = "paypal-fee-checkbox-product"
)

// Controls lists every fee checkbox the page may render.
func Controls() []string {
	return []string{ControlCart, ControlDrawer, ControlProduct}
}

// IsControl reports whether id names a fee checkbox.
func IsControl(id string) bool {
	for _, c := range Controls() {
		if c == id {
			return true
		}
	}
	return false
}

// Fragment is replacement markup for a page section.
type Fragment struct {
	SectionID  string `json:"section_id"`
	HTML       string `json:"html"`
	Generation uint64 `json:"generation"`
}

// CheckboxState sets a fee checkbox.
type CheckboxState struct {
	ControlID string `json:"control_id,omitempty"`
	Checked   bool   `json:"checked"`
	Disabled  bool   `json:"disabled"`
}

// DialogState drives the removal confirmation dialog.
type DialogState struct {
	Open bool `json:"open"`
}

// Instructions is the page-facing outcome of an operation.
type Instructions struct {
	Reload          bool           `json:"reload"`
	Fragment        *Fragment      `json:"fragment,omitempty"`
	Events          []string       `json:"events,omitempty"`
	Checkbox        *CheckboxState `json:"checkbox,omitempty"`
	UncheckControls []string       `json:"uncheck_controls,omitempty"`
	Dialog          *DialogState   `json:"dialog,omitempty"`
	ScrollLock      *bool          `json:"scroll_lock,omitempty"`
	Message         string         `json:"message,omitempty"`
}

// Emit appends events, skipping ones already present.
func (i *Instructions) Emit(events ...string) {
	for _, ev := range events {
		seen := false
		for _, existing := range i.Events {
			if existing == ev {
				seen = true
				break
			}
		}
		if !seen {
			i.Events = append(i.Events, ev)
		}
	}
}

// Merge folds other into i. Reload wins over a fragment swap.
func (i *Instructions) Merge(other Instructions) {
	i.Reload = i.Reload || other.Reload
	if other.Fragment != nil {
		i.Fragment = other.Fragment
	}
	if i.Reload {
		i.Fragment = nil
	}
	i.Emit(other.Events...)
	if other.Checkbox != nil {
		i.Checkbox = other.Checkbox
	}
	i.UncheckControls = append(i.UncheckControls, other.UncheckControls...)
	if other.Dialog != nil {
		i.Dialog = other.Dialog
	}
	if other.ScrollLock != nil {
		i.ScrollLock = other.ScrollLock
	}
	if other.Message != "" {
		i.Message = other.Message
	}
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Failure is an operation error translated for the shopper.
type Failure struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

// FailureFrom maps err onto its code and public message.
func FailureFrom(err error) *Failure {
	return &Failure{Code: pkgerrors.CodeOf(err), Message: pkgerrors.PublicMessage(err)}
}
