// Package cart talks to the external cart store and summarizes its contents.
package cart

import "context"

// LineItem mirrors one entry of the store's cart payload.
type LineItem struct {
	Key            string         `json:"key"`
	VariantID      int64          `json:"id"`
	SKU            string         `json:"sku"`
	Quantity       int64          `json:"quantity"`
	Price          int64          `json:"price"`
	FinalLinePrice int64          `json:"final_line_price"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// Cart is the store's current cart for a session.
type Cart struct {
	Token     string     `json:"token,omitempty"`
	Items     []LineItem `json:"items"`
	ItemCount int64      `json:"item_count"`
}

// AddLineItemInput describes a new line appended to the cart.
type AddLineItemInput struct {
	VariantID  int64          `json:"id"`
	Quantity   int64          `json:"quantity"`
	Properties map[string]any `json:"properties,omitempty"`
}

// ChangeLineItemInput sets the quantity of an existing line. Zero removes it.
type ChangeLineItemInput struct {
	Key      string `json:"id"`
	Quantity int64  `json:"quantity"`
}

// Store is the cart surface the reconciler reads and mutates.
type Store interface {
	GetCart(ctx context.Context, session string) (*Cart, error)
	AddLineItem(ctx context.Context, session string, input AddLineItemInput) error
	ChangeLineItem(ctx context.Context, session string, input ChangeLineItemInput) error
}

// FragmentSource renders a named page section for a session.
type FragmentSource interface {
	RenderSection(ctx context.Context, session, sectionID string) (string, error)
}
