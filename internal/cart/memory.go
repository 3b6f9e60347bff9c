package cart

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

// CatalogEntry is a variant the memory store knows how to price.
type CatalogEntry struct {
	SKU   string
	Price int64
}

// MemoryStore is an in-process cart store used for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	catalog  map[int64]CatalogEntry
	carts    map[string]*Cart
	sections map[string]string
	seq      int

	getErr    error
	addErr    error
	changeErr error
	renderErr error

	onGet func(session string)

	gets    int
	adds    int
	changes int
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catalog:  make(map[int64]CatalogEntry),
		carts:    make(map[string]*Cart),
		sections: make(map[string]string),
	}
}

// RegisterVariant adds or replaces a priced variant.
func (m *MemoryStore) RegisterVariant(variantID int64, sku string, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[variantID] = CatalogEntry{SKU: sku, Price: price}
}

// PutCart replaces the session's cart verbatim.
func (m *MemoryStore) PutCart(session string, c Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := c
	cp.Items = append([]LineItem(nil), c.Items...)
	recount(&cp)
	m.carts[session] = &cp
}

// SetSection sets the markup returned for a section id.
func (m *MemoryStore) SetSection(sectionID, markup string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[sectionID] = markup
}

// FailGet makes subsequent GetCart calls return err until cleared with nil.
func (m *MemoryStore) FailGet(err error) { m.setErr(&m.getErr, err) }

// FailAdd makes subsequent AddLineItem calls return err until cleared with nil.
func (m *MemoryStore) FailAdd(err error) { m.setErr(&m.addErr, err) }

// FailChange makes subsequent ChangeLineItem calls return err until cleared with nil.
func (m *MemoryStore) FailChange(err error) { m.setErr(&m.changeErr, err) }

// FailRender makes subsequent RenderSection calls return err until cleared with nil.
func (m *MemoryStore) FailRender(err error) { m.setErr(&m.renderErr, err) }

// OnGet installs a hook run before every GetCart, outside the store lock.
func (m *MemoryStore) OnGet(fn func(session string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onGet = fn
}

func (m *MemoryStore) setErr(dst *error, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = err
}

// Calls reports how many reads, adds and changes the store has served.
func (m *MemoryStore) Calls() (gets, adds, changes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets, m.adds, m.changes
}

// GetCart returns a copy of the session's cart. Unknown sessions are empty.
func (m *MemoryStore) GetCart(ctx context.Context, session string) (*Cart, error) {
	m.mu.Lock()
	hook := m.onGet
	m.mu.Unlock()
	if hook != nil {
		hook(session)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "read cart")
	}
	c, ok := m.carts[session]
	if !ok {
		return &Cart{Items: []LineItem{}}, nil
	}
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		cp.Items[i] = item
		cp.Items[i].Properties = cloneProperties(item.Properties)
	}
	return &cp, nil
}

// AddLineItem appends a line, merging into an existing line of the same
// variant and properties.
func (m *MemoryStore) AddLineItem(ctx context.Context, session string, input AddLineItemInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.addErr != nil {
		return m.addErr
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	entry, ok := m.catalog[input.VariantID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStoreUnavailable, fmt.Sprintf("unknown variant %d", input.VariantID))
	}

	c := m.cartFor(session)
	for i := range c.Items {
		item := &c.Items[i]
		if item.VariantID == input.VariantID && reflect.DeepEqual(item.Properties, input.Properties) {
			item.Quantity += input.Quantity
			item.FinalLinePrice = item.Price * item.Quantity
			recount(c)
			return nil
		}
	}

	m.seq++
	c.Items = append(c.Items, LineItem{
		Key:            fmt.Sprintf("%d:%d", input.VariantID, m.seq),
		VariantID:      input.VariantID,
		SKU:            entry.SKU,
		Quantity:       input.Quantity,
		Price:          entry.Price,
		FinalLinePrice: entry.Price * input.Quantity,
		Properties:     cloneProperties(input.Properties),
	})
	recount(c)
	return nil
}

// ChangeLineItem sets a line's quantity; zero removes the line.
func (m *MemoryStore) ChangeLineItem(ctx context.Context, session string, input ChangeLineItemInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes++
	if m.changeErr != nil {
		return m.changeErr
	}
	if input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	c := m.cartFor(session)
	for i := range c.Items {
		if c.Items[i].Key != input.Key {
			continue
		}
		if input.Quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = input.Quantity
			c.Items[i].FinalLinePrice = c.Items[i].Price * input.Quantity
		}
		recount(c)
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line item %q not found", input.Key))
}

// RenderSection returns the configured markup for sectionID.
func (m *MemoryStore) RenderSection(ctx context.Context, session, sectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderErr != nil {
		return "", m.renderErr
	}
	return m.sections[sectionID], nil
}

func (m *MemoryStore) cartFor(session string) *Cart {
	c, ok := m.carts[session]
	if !ok {
		c = &Cart{Items: []LineItem{}}
		m.carts[session] = c
	}
	return c
}

func recount(c *Cart) {
	var n int64
	for _, item := range c.Items {
		n += item.Quantity
	}
	c.ItemCount = n
}

func cloneProperties(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
