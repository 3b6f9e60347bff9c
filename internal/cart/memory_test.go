package cart

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAddMergesAndChanges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.RegisterVariant(1, "TEE", 500)
	store.RegisterVariant(9, "PAYPAL-FEE", 1)

	require.NoError(t, store.AddLineItem(ctx, "s", AddLineItemInput{VariantID: 1, Quantity: 2}))
	require.NoError(t, store.AddLineItem(ctx, "s", AddLineItemInput{VariantID: 1, Quantity: 1}))
	props := map[string]any{"_fee": "paypal"}
	require.NoError(t, store.AddLineItem(ctx, "s", AddLineItemInput{VariantID: 9, Quantity: 53, Properties: props}))

	c, err := store.GetCart(ctx, "s")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, int64(3), c.Items[0].Quantity)
	assert.Equal(t, int64(1500), c.Items[0].FinalLinePrice)
	assert.Equal(t, int64(56), c.ItemCount)

	feeKey := c.Items[1].Key
	require.NoError(t, store.ChangeLineItem(ctx, "s", ChangeLineItemInput{Key: feeKey, Quantity: 60}))
	require.NoError(t, store.ChangeLineItem(ctx, "s", ChangeLineItemInput{Key: c.Items[0].Key, Quantity: 0}))

	c, err = store.GetCart(ctx, "s")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(60), c.Items[0].FinalLinePrice)

	err = store.ChangeLineItem(ctx, "s", ChangeLineItemInput{Key: "missing", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	gets, adds, changes := store.Calls()
	assert.Equal(t, 2, gets)
	assert.Equal(t, 3, adds)
	assert.Equal(t, 3, changes)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutCart("s", Cart{Items: []LineItem{{Key: "k", Quantity: 1, FinalLinePrice: 100}}})

	c, err := store.GetCart(ctx, "s")
	require.NoError(t, err)
	c.Items[0].Quantity = 99

	again, err := store.GetCart(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Items[0].Quantity)
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.RegisterVariant(1, "TEE", 500)

	rejected := pkgerrors.New(pkgerrors.CodeInventoryRejected, "sold out")
	store.FailAdd(rejected)
	assert.ErrorIs(t, store.AddLineItem(ctx, "s", AddLineItemInput{VariantID: 1, Quantity: 1}), rejected)
	store.FailAdd(nil)
	assert.NoError(t, store.AddLineItem(ctx, "s", AddLineItemInput{VariantID: 1, Quantity: 1}))

	store.SetSection("main", "<div></div>")
	html, err := store.RenderSection(ctx, "s", "main")
	require.NoError(t, err)
	assert.Equal(t, "<div></div>", html)
}
