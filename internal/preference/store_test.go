package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeBackend) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeBackend) PreferenceKey(session string) string {
	return "cf:preference:" + session
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store, err := NewRedisStore(backend, 24*time.Hour)
	require.NoError(t, err)

	v, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Unset, v)

	require.NoError(t, store.Set(ctx, "s1", WantsFee))
	assert.Equal(t, "wants_fee", backend.data["cf:preference:s1"])
	assert.Equal(t, 24*time.Hour, backend.ttls["cf:preference:s1"])

	v, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, v.WantsFee())

	require.NoError(t, store.Set(ctx, "s1", Unset))
	_, present := backend.data["cf:preference:s1"]
	assert.False(t, present)
}

func TestRedisStoreTreatsUnknownValuesAsUnset(t *testing.T) {
	backend := newFakeBackend()
	backend.data["cf:preference:s1"] = "declined"
	store, _ := NewRedisStore(backend, time.Hour)

	v, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, Unset, v)
}

func TestRedisStoreWrapsBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.getErr = errors.New("connection reset")
	store, _ := NewRedisStore(backend, time.Hour)

	_, err := store.Get(context.Background(), "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	err = store.Set(context.Background(), "", WantsFee)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "s", WantsFee))
	v, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, WantsFee, v)

	store.Fail(errors.New("down"))
	assert.Error(t, store.Clear(ctx, "s"))
	store.Fail(nil)

	require.NoError(t, store.Clear(ctx, "s"))
	v, _ = store.Get(ctx, "s")
	assert.Equal(t, "unset", v.String())

	assert.Error(t, store.Set(ctx, "s", Value("maybe")))
}
