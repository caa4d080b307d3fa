// Package sync keeps the active collection's flattened sound list in
// step between the remote store and local durable storage. The local
// snapshot is what latency-sensitive playback reads during capture, so
// starting a sound never waits on a network round trip. The snapshot
// is allowed to go stale between activations; that staleness is an
// accepted tradeoff, not a defect.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

// snapshotKey is where the flattened playback list lives in local storage.
const snapshotKey = "sounds/active_snapshot"

// Snapshot is the persisted, playback-ready form of the active
// collection: its id plus the member sounds in playback order.
type Snapshot struct {
	CollectionID string         `json:"collection_id"`
	Sounds       []sounds.Sound `json:"sounds"`
}

// SoundIDs returns the snapshot's sound ids in playback order.
func (s Snapshot) SoundIDs() []string {
	ids := make([]string, len(s.Sounds))
	for i, snd := range s.Sounds {
		ids[i] = snd.ID
	}
	return ids
}

// Manager bridges the collection repository to the capture workflow.
type Manager struct {
	repo   *sounds.Repository
	kv     storage.KV
	cfg    sounds.Config
	logger *log.Logger

	mu sync.Mutex // serializes Activate and Bootstrap
}

// NewManager creates a synchronizer persisting snapshots into kv.
func NewManager(repo *sounds.Repository, kv storage.KV, cfg sounds.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		repo:   repo,
		kv:     kv,
		cfg:    cfg,
		logger: logger.With("component", "sync"),
	}
}

// Activate marks the collection active in the repository, then
// flattens its membership into an ordered sound list and persists it
// locally. The repository's mutual-exclusion invariant guarantees no
// other collection stays active.
func (m *Manager) Activate(ctx context.Context, collectionID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Activate(ctx, collectionID); err != nil {
		return Snapshot{}, err
	}
	return m.refreshSnapshot(ctx, collectionID)
}

// Refresh re-flattens the currently active collection without changing
// which collection is active. No-op returning ok=false when no
// collection is active.
func (m *Manager) Refresh(ctx context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, ok, err := m.repo.ActiveCollection(ctx)
	if err != nil {
		return Snapshot{}, false, err
	}
	if !ok {
		return Snapshot{}, false, nil
	}
	snap, err := m.refreshSnapshot(ctx, active.ID)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// refreshSnapshot resolves and persists the flattened list. Caller
// holds m.mu.
func (m *Manager) refreshSnapshot(ctx context.Context, collectionID string) (Snapshot, error) {
	c, err := m.repo.Collection(ctx, collectionID)
	if err != nil {
		return Snapshot{}, err
	}

	list, err := m.repo.ResolveSounds(ctx, c)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{CollectionID: collectionID, Sounds: list}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := m.kv.Set(snapshotKey, data); err != nil {
		return Snapshot{}, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	m.logger.Debug("persisted active snapshot", "collection", collectionID, "sounds", len(list))
	return snap, nil
}

// Snapshot loads the persisted playback list. ok=false when no
// activation has ever run or the stored snapshot is unreadable.
func (m *Manager) Snapshot() (Snapshot, bool) {
	data, ok := m.kv.Get(snapshotKey)
	if !ok {
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Unreadable snapshot degrades to a re-activation, never a crash.
		m.logger.Warn("discarding corrupt snapshot", "err", err)
		m.kv.Delete(snapshotKey)
		return Snapshot{}, false
	}
	return snap, true
}

// Bootstrap ensures a first-login user ends up with exactly one
// default collection, seeded from the shared catalog and active. It is
// idempotent: a user who already has collections is left alone except
// that a missing active collection on a fresh device still refreshes
// the local snapshot when one is active. A persisted local snapshot
// also counts as proof of a prior bootstrap, so a degraded (empty)
// remote list read cannot trigger a duplicate default collection.
func (m *Manager) Bootstrap(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()

	collections, err := m.repo.UserCollections(ctx)
	if err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}

	if len(collections) > 0 {
		// Existing user: nothing to create. Refresh the snapshot if a
		// collection is active so a fresh install has one locally.
		m.mu.Unlock()
		snap, ok, err := m.Refresh(ctx)
		if err != nil || !ok {
			return Snapshot{}, err
		}
		return snap, nil
	}

	// The collection list degrades to empty when the remote read fails,
	// so an empty result alone does not prove a first login. A persisted
	// snapshot means a collection was already bootstrapped or activated
	// for this user; keep it rather than creating a duplicate default.
	if snap, ok := m.Snapshot(); ok {
		m.mu.Unlock()
		m.logger.Debug("skipping bootstrap, local snapshot present", "collection", snap.CollectionID)
		return snap, nil
	}

	catalog := m.repo.DefaultSounds(ctx)
	entries := make([]sounds.Entry, len(catalog))
	for i, s := range catalog {
		entries[i] = sounds.Entry{
			SoundID:    s.ID,
			Provenance: sounds.ProvenanceDefault,
			OrderIndex: i,
		}
	}

	created, err := m.repo.CreateCollection(ctx, m.cfg.DefaultCollectionName, entries)
	if err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}
	m.logger.Info("bootstrapped default collection", "collection", created.ID, "sounds", len(entries))

	m.mu.Unlock()
	return m.Activate(ctx, created.ID)
}

// Clear removes the persisted snapshot. Called on sign-out together
// with Repository.Reset.
func (m *Manager) Clear() {
	m.kv.Delete(snapshotKey)
}
