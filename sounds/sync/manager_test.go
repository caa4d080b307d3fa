package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

const testUser = "user-1"

func newTestManager(t *testing.T) (*Manager, *sounds.MockStore, *storage.MemoryStore) {
	t.Helper()
	store := sounds.NewMockStore()
	kv := storage.NewMemoryStore()
	repo := sounds.NewRepository(store, sounds.MockIdentity{UserID: testUser}, kv, sounds.DefaultConfig(), nil)
	return NewManager(repo, kv, sounds.DefaultConfig(), nil), store, kv
}

func seedCatalog(store *sounds.MockStore, ids ...string) {
	for _, id := range ids {
		store.AddCatalogSound(sounds.Sound{
			ID:        id,
			Name:      "Sound " + id,
			Category:  sounds.CategoryAttention,
			Source:    sounds.Source{Bundle: id + ".wav"},
			CreatedAt: time.Now().UTC(),
		})
	}
}

func TestManager_ActivatePersistsOrderedSnapshot(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1", "s2", "s3")
	store.SeedCollection(sounds.Collection{
		ID:     "c1",
		UserID: testUser,
		Entries: []sounds.Entry{
			{SoundID: "s2", OrderIndex: 5},
			{SoundID: "s3", OrderIndex: 9},
			{SoundID: "s1", OrderIndex: 1},
		},
	})

	snap, err := m.Activate(ctx, "c1")
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if snap.CollectionID != "c1" {
		t.Errorf("snapshot collection = %s, want c1", snap.CollectionID)
	}

	// The flattened list is ordered by order index, not entry order.
	want := []string{"s1", "s2", "s3"}
	gotIDs := snap.SoundIDs()
	if len(gotIDs) != len(want) {
		t.Fatalf("snapshot has %d sounds, want %d", len(gotIDs), len(want))
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("snapshot position %d = %s, want %s", i, gotIDs[i], want[i])
		}
	}

	// Round trip: loading from local storage yields the same sequence.
	loaded, ok := m.Snapshot()
	if !ok {
		t.Fatal("Snapshot returned miss after Activate")
	}
	loadedIDs := loaded.SoundIDs()
	for i := range want {
		if loadedIDs[i] != want[i] {
			t.Errorf("loaded position %d = %s, want %s", i, loadedIDs[i], want[i])
		}
	}
}

func TestManager_SnapshotMissBeforeActivation(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, ok := m.Snapshot(); ok {
		t.Fatal("Snapshot returned a hit before any activation")
	}
}

func TestManager_SnapshotCorruptionIsMiss(t *testing.T) {
	m, _, kv := newTestManager(t)

	if err := kv.Set("sounds/active_snapshot", []byte("{broken")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, ok := m.Snapshot(); ok {
		t.Fatal("corrupt snapshot returned a hit")
	}
	if _, ok := kv.Get("sounds/active_snapshot"); ok {
		t.Error("corrupt snapshot was not discarded")
	}
}

func TestManager_BootstrapCreatesDefaultCollection(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1", "s2")

	snap, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if len(snap.Sounds) != 2 {
		t.Errorf("snapshot has %d sounds, want 2", len(snap.Sounds))
	}

	if store.Calls["create_collection"] != 1 {
		t.Fatalf("created %d collections, want 1", store.Calls["create_collection"])
	}

	created, ok := store.StoredCollection(snap.CollectionID)
	if !ok {
		t.Fatal("bootstrap collection not persisted")
	}
	if !created.IsActive {
		t.Error("bootstrap collection is not active")
	}
	for i, e := range created.SortedEntries() {
		if e.Provenance != sounds.ProvenanceDefault {
			t.Errorf("entry %d provenance = %s, want default", i, e.Provenance)
		}
		if e.OrderIndex != i {
			t.Errorf("entry %d index = %d, want dense %d", i, e.OrderIndex, i)
		}
	}
}

func TestManager_BootstrapIsIdempotent(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1")

	first, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("first Bootstrap failed: %v", err)
	}
	second, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}

	if store.Calls["create_collection"] != 1 {
		t.Errorf("created %d collections across two bootstraps, want 1", store.Calls["create_collection"])
	}
	if second.CollectionID != first.CollectionID {
		t.Errorf("second bootstrap switched collections: %s -> %s", first.CollectionID, second.CollectionID)
	}
}

func TestManager_BootstrapIsIdempotentUnderDegradedListReads(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1")

	first, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("first Bootstrap failed: %v", err)
	}

	// The repository degrades a failing collection list to empty. That
	// must not look like a first login to a second bootstrap.
	store.Errs["user_collections"] = errors.New("remote unavailable")
	second, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}

	if store.Calls["create_collection"] != 1 {
		t.Errorf("created %d collections across two bootstraps, want 1", store.Calls["create_collection"])
	}
	if second.CollectionID != first.CollectionID {
		t.Errorf("second bootstrap switched collections: %s -> %s", first.CollectionID, second.CollectionID)
	}
}

func TestManager_BootstrapLeavesExistingUserAlone(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	store.SeedCollection(sounds.Collection{ID: "c1", UserID: testUser})

	// User has a collection but none active: bootstrap creates nothing
	// and activates nothing.
	snap, err := m.Bootstrap(ctx)
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if snap.CollectionID != "" {
		t.Errorf("bootstrap produced snapshot for %s, want none", snap.CollectionID)
	}
	if store.Calls["create_collection"] != 0 {
		t.Errorf("created %d collections, want 0", store.Calls["create_collection"])
	}

	stored, _ := store.StoredCollection("c1")
	if stored.IsActive {
		t.Error("bootstrap activated a collection it should not touch")
	}
}

func TestManager_ActivateSwitchesSnapshot(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1", "s2")
	store.SeedCollection(sounds.Collection{
		ID: "c1", UserID: testUser,
		Entries: []sounds.Entry{{SoundID: "s1", OrderIndex: 0}},
	})
	store.SeedCollection(sounds.Collection{
		ID: "c2", UserID: testUser,
		Entries: []sounds.Entry{{SoundID: "s2", OrderIndex: 0}},
	})

	if _, err := m.Activate(ctx, "c1"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, err := m.Activate(ctx, "c2"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	// Mutual exclusion after the switch.
	c1, _ := store.StoredCollection("c1")
	c2, _ := store.StoredCollection("c2")
	if c1.IsActive || !c2.IsActive {
		t.Errorf("active flags after switch: c1=%v c2=%v, want false/true", c1.IsActive, c2.IsActive)
	}

	snap, ok := m.Snapshot()
	if !ok || snap.CollectionID != "c2" {
		t.Errorf("snapshot = %+v ok=%v, want c2", snap, ok)
	}
}

func TestManager_RefreshWithoutActiveCollection(t *testing.T) {
	m, store, _ := newTestManager(t)
	store.SeedCollection(sounds.Collection{ID: "c1", UserID: testUser})

	if _, ok, err := m.Refresh(context.Background()); err != nil || ok {
		t.Errorf("Refresh = ok=%v err=%v, want inert no-op", ok, err)
	}
}

func TestManager_RefreshPicksUpMembershipChanges(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1", "s2")
	store.SeedCollection(sounds.Collection{
		ID: "c1", UserID: testUser,
		Entries: []sounds.Entry{{SoundID: "s1", OrderIndex: 0}},
	})

	if _, err := m.Activate(ctx, "c1"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	// Remote membership changes behind the snapshot's back; the local
	// copy is stale by design until the next Activate or Refresh.
	if err := store.AddEntries(ctx, "c1", []sounds.Entry{{SoundID: "s2", OrderIndex: 1}}); err != nil {
		t.Fatalf("AddEntries failed: %v", err)
	}
	stale, _ := m.Snapshot()
	if len(stale.Sounds) != 1 {
		t.Fatalf("stale snapshot has %d sounds, want 1", len(stale.Sounds))
	}

	snap, ok, err := m.Refresh(ctx)
	if err != nil || !ok {
		t.Fatalf("Refresh = ok=%v err=%v", ok, err)
	}
	if len(snap.Sounds) != 2 {
		t.Errorf("refreshed snapshot has %d sounds, want 2", len(snap.Sounds))
	}
}

func TestManager_ClearRemovesSnapshot(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	seedCatalog(store, "s1")
	store.SeedCollection(sounds.Collection{
		ID: "c1", UserID: testUser,
		Entries: []sounds.Entry{{SoundID: "s1", OrderIndex: 0}},
	})

	if _, err := m.Activate(ctx, "c1"); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	m.Clear()
	if _, ok := m.Snapshot(); ok {
		t.Error("snapshot present after Clear")
	}
}
