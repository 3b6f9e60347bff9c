package cart

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

// FeeLine identifies the surcharge line in a cart.
type FeeLine struct {
	Key      string `json:"key"`
	Quantity int64  `json:"quantity"`
}

// Snapshot is a point-in-time summary of a cart used for one decision.
type Snapshot struct {
	SubtotalExcludingFee  int64     `json:"subtotal_excluding_fee"`
	ItemCountExcludingFee int64     `json:"item_count_excluding_fee"`
	FeeLine               *FeeLine  `json:"fee_line,omitempty"`
	DuplicateFeeLines     []FeeLine `json:"duplicate_fee_lines,omitempty"`
}

// HasFee reports whether the cart carries a fee line.
func (s Snapshot) HasFee() bool {
	return s.FeeLine != nil
}

// FeeAmount is the current fee quantity, or 0 without a fee line.
func (s Snapshot) FeeAmount() int64 {
	if s.FeeLine == nil {
		return 0
	}
	return s.FeeLine.Quantity
}

// Matcher recognizes the fee line by sku marker or variant id.
type Matcher struct {
	SKU       string
	VariantID int64
}

// IsFee reports whether item is a fee line.
func (m Matcher) IsFee(item LineItem) bool {
	if m.SKU != "" && item.SKU == m.SKU {
		return true
	}
	return m.VariantID != 0 && item.VariantID == m.VariantID
}

// Summarize folds a cart into a snapshot. Zero-quantity lines are ignored.
func Summarize(c *Cart, m Matcher) Snapshot {
	var snap Snapshot
	if c == nil {
		return snap
	}
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		if !m.IsFee(item) {
			snap.SubtotalExcludingFee += item.FinalLinePrice
			snap.ItemCountExcludingFee += item.Quantity
			continue
		}
		line := FeeLine{Key: item.Key, Quantity: item.Quantity}
		if snap.FeeLine == nil {
			snap.FeeLine = &line
			continue
		}
		snap.DuplicateFeeLines = append(snap.DuplicateFeeLines, line)
	}
	return snap
}

// Reader performs a single cart read per call and summarizes it.
type Reader struct {
	store   Store
	matcher Matcher
}

// NewReader builds a snapshot reader over store.
func NewReader(store Store, matcher Matcher) (*Reader, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if matcher.SKU == "" && matcher.VariantID == 0 {
		return nil, fmt.Errorf("fee matcher needs a sku or variant id")
	}
	return &Reader{store: store, matcher: matcher}, nil
}

// Matcher returns the fee line matcher in use.
func (r *Reader) Matcher() Matcher {
	return r.matcher
}

// Read fetches the session's cart once. Any failure is reported as
// STORE_UNAVAILABLE; it never degrades to an empty snapshot.
func (r *Reader) Read(ctx context.Context, session string) (Snapshot, error) {
	c, err := r.store.GetCart(ctx, session)
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) && typed.Code() == pkgerrors.CodeStoreUnavailable {
			return Snapshot{}, err
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "read cart snapshot")
	}
	if c == nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeStoreUnavailable, "cart store returned no cart")
	}
	return Summarize(c, r.matcher), nil
}
