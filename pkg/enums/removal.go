package enums

import "fmt"

// RemovalState is the lifecycle of the remove-fee confirmation dialog.
type RemovalState string

const (
	RemovalStateClosed RemovalState = "closed"
	RemovalStateOpen   RemovalState = "open"
)

// String implements fmt.Stringer.
func (s RemovalState) String() string {
	return string(s)
}

// RemovalCancelReason records how the dialog was dismissed.
type RemovalCancelReason string

const (
	RemovalCancelButton  RemovalCancelReason = "cancel_button"
	RemovalCancelOverlay RemovalCancelReason = "overlay"
	RemovalCancelEscape  RemovalCancelReason = "escape"
)

var validRemovalCancelReasons = []RemovalCancelReason{
	RemovalCancelButton,
	RemovalCancelOverlay,
	RemovalCancelEscape,
}

// String implements fmt.Stringer.
func (r RemovalCancelReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RemovalCancelReason.
func (r RemovalCancelReason) IsValid() bool {
	for _, candidate := range validRemovalCancelReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRemovalCancelReason converts raw input into a RemovalCancelReason.
// Empty input defaults to the cancel button.
func ParseRemovalCancelReason(value string) (RemovalCancelReason, error) {
	if value == "" {
		return RemovalCancelButton, nil
	}
	for _, candidate := range validRemovalCancelReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid removal cancel reason %q", value)
}
