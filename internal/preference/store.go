// Package preference keeps the per-session fee opt-in.
package preference

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/redis"
)

// Value is the stored intent for a session.
type Value string

const (
	// Unset means no opt-in; the key is absent.
	Unset    Value = ""
	WantsFee Value = "wants_fee"
)

// WantsFee reports whether the session opted in.
func (v Value) WantsFee() bool {
	return v == WantsFee
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v == Unset {
		return "unset"
	}
	return string(v)
}

// Store reads and writes session preferences.
type Store interface {
	Get(ctx context.Context, session string) (Value, error)
	Set(ctx context.Context, session string, value Value) error
	Clear(ctx context.Context, session string) error
}

// Backend is the key/value surface provided by pkg/redis.
type Backend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PreferenceKey(session string) string
}

type redisStore struct {
	backend Backend
	ttl     time.Duration
}

// NewRedisStore stores preferences in redis with the given TTL.
func NewRedisStore(backend Backend, ttl time.Duration) (Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("preference backend required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("preference ttl must not be negative")
	}
	return &redisStore{backend: backend, ttl: ttl}, nil
}

func (s *redisStore) Get(ctx context.Context, session string) (Value, error) {
	if err := requireSession(session); err != nil {
		return Unset, err
	}
	raw, err := s.backend.Get(ctx, s.backend.PreferenceKey(session))
	if redis.IsNil(err) {
		return Unset, nil
	}
	if err != nil {
		return Unset, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read fee preference")
	}
	v := Value(raw)
	if v != WantsFee {
		return Unset, nil
	}
	return v, nil
}

func (s *redisStore) Set(ctx context.Context, session string, value Value) error {
	if value == Unset {
		return s.Clear(ctx, session)
	}
	if err := requireSession(session); err != nil {
		return err
	}
	if value != WantsFee {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown preference %q", value))
	}
	if err := s.backend.Set(ctx, s.backend.PreferenceKey(session), string(value), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write fee preference")
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, session string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if err := s.backend.Del(ctx, s.backend.PreferenceKey(session)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear fee preference")
	}
	return nil
}

// MemoryStore keeps preferences in process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]Value
	err    error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]Value)}
}

// Fail makes every subsequent call return err until cleared with nil.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) Get(ctx context.Context, session string) (Value, error) {
	if err := requireSession(session); err != nil {
		return Unset, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Unset, m.err
	}
	return m.values[session], nil
}

func (m *MemoryStore) Set(ctx context.Context, session string, value Value) error {
	if value == Unset {
		return m.Clear(ctx, session)
	}
	if err := requireSession(session); err != nil {
		return err
	}
	if value != WantsFee {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown preference %q", value))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[session] = value
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, session string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, session)
	return nil
}

func requireSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
