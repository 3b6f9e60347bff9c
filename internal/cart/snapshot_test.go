package cart

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMatcher = Matcher{SKU: "PAYPAL-FEE", VariantID: 9}

func TestSummarizeExcludesFeeLines(t *testing.T) {
	snap := Summarize(&Cart{Items: []LineItem{
		{Key: "1:a", VariantID: 1, SKU: "TEE", Quantity: 2, FinalLinePrice: 1000},
		{Key: "9:b", VariantID: 9, SKU: "PAYPAL-FEE", Quantity: 35, FinalLinePrice: 35},
		{Key: "2:c", VariantID: 2, SKU: "MUG", Quantity: 1, FinalLinePrice: 800},
		{Key: "3:d", VariantID: 3, SKU: "HAT", Quantity: 0, FinalLinePrice: 0},
	}}, testMatcher)

	assert.Equal(t, int64(1800), snap.SubtotalExcludingFee)
	assert.Equal(t, int64(3), snap.ItemCountExcludingFee)
	require.NotNil(t, snap.FeeLine)
	assert.Equal(t, "9:b", snap.FeeLine.Key)
	assert.Equal(t, int64(35), snap.FeeAmount())
	assert.Empty(t, snap.DuplicateFeeLines)
}

func TestSummarizeCollectsDuplicates(t *testing.T) {
	snap := Summarize(&Cart{Items: []LineItem{
		{Key: "9:a", VariantID: 9, Quantity: 35},
		{Key: "legacy", SKU: "PAYPAL-FEE", Quantity: 12},
	}}, testMatcher)

	require.True(t, snap.HasFee())
	assert.Equal(t, "9:a", snap.FeeLine.Key)
	assert.Equal(t, []FeeLine{{Key: "legacy", Quantity: 12}}, snap.DuplicateFeeLines)
	assert.Zero(t, snap.SubtotalExcludingFee)
}

func TestMatcherBySkuOnly(t *testing.T) {
	m := Matcher{SKU: "PAYPAL-FEE"}
	assert.True(t, m.IsFee(LineItem{SKU: "PAYPAL-FEE"}))
	assert.False(t, m.IsFee(LineItem{VariantID: 9}))
	assert.False(t, Matcher{}.IsFee(LineItem{}))
}

func TestReaderWrapsFailures(t *testing.T) {
	store := NewMemoryStore()
	reader, err := NewReader(store, testMatcher)
	require.NoError(t, err)

	store.FailGet(errors.New("boom"))
	_, err = reader.Read(context.Background(), "s")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStoreUnavailable))

	store.FailGet(nil)
	snap, err := reader.Read(context.Background(), "s")
	require.NoError(t, err)
	assert.False(t, snap.HasFee())
	assert.Zero(t, snap.SubtotalExcludingFee)
}

func TestNewReaderRequiresMatcher(t *testing.T) {
	_, err := NewReader(NewMemoryStore(), Matcher{})
	assert.Error(t, err)
	_, err = NewReader(nil, testMatcher)
	assert.Error(t, err)
}
