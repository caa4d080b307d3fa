package cache

import (
	"encoding/json"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
)

// DefaultTTL is the expiry applied when no override is configured.
const DefaultTTL = 5 * time.Minute

// envelope is the persisted form of one entry. TTL is zero unless the
// writer overrode the store's default for this entry.
type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	TTL      time.Duration   `json:"ttl,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Store is a TTL cache for one value type, scoped to a key namespace
// inside the backing KV store. One Store per payload shape keeps the
// cached data typed instead of an untyped blob.
type Store[T any] struct {
	kv        storage.KV
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithTTL overrides the default entry lifetime.
func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(s *Store[T]) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) {
		s.now = now
	}
}

// New creates a Store writing keys under the given namespace prefix.
func New[T any](kv storage.KV, namespace string, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		kv:        kv,
		namespace: namespace,
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under key with the store's TTL.
func (s *Store[T]) Set(key string, value T) error {
	return s.SetTTL(key, value, 0)
}

// SetTTL stores value with a per-call TTL override. A zero or negative
// override falls back to the store's TTL on read.
func (s *Store[T]) SetTTL(key string, value T, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	env, err := json.Marshal(envelope{
		StoredAt: s.now(),
		TTL:      ttl,
		Payload:  payload,
	})
	if err != nil {
		return err
	}
	return s.kv.Set(s.namespace+key, env)
}

// Get returns the cached value for key, or ok=false when the entry is
// absent, expired, or corrupt. Expired and corrupt entries are evicted
// as a side effect of the read.
func (s *Store[T]) Get(key string) (T, bool) {
	var zero T

	raw, ok := s.kv.Get(s.namespace + key)
	if !ok {
		return zero, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Corrupt entry degrades to a miss and a re-fetch upstream.
		s.kv.Delete(s.namespace + key)
		return zero, false
	}

	ttl := env.TTL
	if ttl <= 0 {
		ttl = s.ttl
	}
	if s.now().Sub(env.StoredAt) > ttl {
		s.kv.Delete(s.namespace + key)
		return zero, false
	}

	var value T
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		s.kv.Delete(s.namespace + key)
		return zero, false
	}
	return value, true
}

// Remove unconditionally evicts key.
func (s *Store[T]) Remove(key string) {
	s.kv.Delete(s.namespace + key)
}

// Clear evicts every key in the store's namespace. Called on sign-out
// so a later session never reads the previous user's data.
func (s *Store[T]) Clear() {
	for _, key := range s.kv.Keys(s.namespace) {
		s.kv.Delete(key)
	}
}
