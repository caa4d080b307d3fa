package cache

import (
	"testing"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store[string], *fakeClock, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := New[string](kv, "test/", WithClock[string](clock.Now))
	return s, clock, kv
}

func TestStore_SetGet(t *testing.T) {
	s, _, _ := newTestStore(t)

	if err := s.Set("greeting", "hello"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := s.Get("greeting")
	if !ok {
		t.Fatal("Get returned miss for fresh entry")
	}
	if got != "hello" {
		t.Errorf("Get = %q, want %q", got, "hello")
	}
}

func TestStore_Expiry(t *testing.T) {
	s, clock, kv := newTestStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Just inside the TTL: still present.
	clock.Advance(DefaultTTL - time.Second)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry expired before its TTL elapsed")
	}

	// Past the TTL: miss, and the read evicts the key.
	clock.Advance(2 * time.Second)
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry still present after TTL elapsed")
	}
	if _, ok := kv.Get("test/k"); ok {
		t.Error("expired entry was not evicted from backing storage")
	}
}

func TestStore_PerCallTTL(t *testing.T) {
	s, clock, _ := newTestStore(t)

	if err := s.SetTTL("short", "v", time.Minute); err != nil {
		t.Fatalf("SetTTL failed: %v", err)
	}
	if err := s.Set("normal", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	clock.Advance(2 * time.Minute)

	if _, ok := s.Get("short"); ok {
		t.Error("entry with 1m override survived 2m")
	}
	if _, ok := s.Get("normal"); !ok {
		t.Error("entry with default TTL expired after 2m")
	}
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	s, _, kv := newTestStore(t)

	if err := kv.Set("test/bad", []byte("{not json")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, ok := s.Get("bad"); ok {
		t.Fatal("corrupt entry returned a hit")
	}
	if _, ok := kv.Get("test/bad"); ok {
		t.Error("corrupt entry was not evicted")
	}
}

func TestStore_WrongShapePayloadIsMiss(t *testing.T) {
	kv := storage.NewMemoryStore()
	writer := New[string](kv, "test/")
	if err := writer.Set("k", "not-a-number"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reader := New[int](kv, "test/")
	if _, ok := reader.Get("k"); ok {
		t.Fatal("mismatched payload type returned a hit")
	}
}

func TestStore_Remove(t *testing.T) {
	s, _, _ := newTestStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Remove("k")
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry present after Remove")
	}
}

func TestStore_ClearScopedToNamespace(t *testing.T) {
	kv := storage.NewMemoryStore()
	a := New[string](kv, "a/")
	b := New[string](kv, "b/")

	if err := a.Set("k", "va"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Set("k", "vb"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	a.Clear()

	if _, ok := a.Get("k"); ok {
		t.Error("cleared namespace still has entries")
	}
	if _, ok := b.Get("k"); !ok {
		t.Error("Clear crossed into another namespace")
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, _, _ := newTestStore(t)

	if err := s.Set("k", "first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("k", "second"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := s.Get("k")
	if !ok || got != "second" {
		t.Errorf("Get = %q, %v; want %q, true", got, ok, "second")
	}
}
