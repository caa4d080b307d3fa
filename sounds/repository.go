package sounds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/grayson40/PetPortraitAI-sub000/internal/cache"
	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
)

// Cache keys used by the repository.
const (
	cacheKeyCollections = "user_collections"
	cacheKeyCatalog     = "default_sounds"
)

// Repository provides CRUD and membership management for sound
// collections, backed by the remote store and fronted by TTL caches.
// One Repository instance serves a signed-in session; Reset must be
// called on sign-out before another user's session begins.
//
// Read paths (UserCollections, DefaultSounds) degrade to empty results
// on remote failure. Mutations propagate a *RepositoryError.
type Repository struct {
	store    Store
	identity Identity
	logger   *log.Logger

	collections *cache.Store[[]Collection]
	catalog     *cache.Store[[]Sound]
}

// NewRepository creates a repository over the remote store, with its
// caches living in the given local KV store.
func NewRepository(store Store, identity Identity, kv storage.KV, cfg Config, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{
		store:    store,
		identity: identity,
		logger:   logger.With("component", "repository"),
		collections: cache.New[[]Collection](kv, "sounds/collections/",
			cache.WithTTL[[]Collection](cfg.CacheTTL)),
		catalog: cache.New[[]Sound](kv, "sounds/catalog/",
			cache.WithTTL[[]Sound](cfg.CacheTTL)),
	}
}

// userID resolves the current user or fails with ErrUnauthenticated.
func (r *Repository) userID(ctx context.Context) (string, error) {
	id, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return id, nil
}

// DefaultSounds returns the shared sound catalog, cache-first. A remote
// failure degrades to an empty catalog rather than failing the caller.
func (r *Repository) DefaultSounds(ctx context.Context) []Sound {
	if cached, ok := r.catalog.Get(cacheKeyCatalog); ok {
		return cached
	}

	catalog, err := r.store.DefaultSounds(ctx)
	if err != nil {
		r.logger.Warn("failed to fetch default sounds", "err", err)
		return []Sound{}
	}
	if catalog == nil {
		catalog = []Sound{}
	}
	if err := r.catalog.Set(cacheKeyCatalog, catalog); err != nil {
		r.logger.Warn("failed to cache default sounds", "err", err)
	}
	return catalog
}

// UserCollections returns every collection the current user owns,
// cache-first. A remote failure degrades to an empty set; the only
// error returned is ErrUnauthenticated.
func (r *Repository) UserCollections(ctx context.Context) ([]Collection, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := r.collections.Get(cacheKeyCollections); ok {
		return cached, nil
	}

	collections, err := r.store.UserCollections(ctx, userID)
	if err != nil {
		r.logger.Warn("failed to fetch collections", "user", userID, "err", err)
		return []Collection{}, nil
	}
	if collections == nil {
		collections = []Collection{}
	}
	if err := r.collections.Set(cacheKeyCollections, collections); err != nil {
		r.logger.Warn("failed to cache collections", "err", err)
	}
	return collections, nil
}

// Collection fetches one collection with its membership. Unlike the
// list reads this is used by mutation flows, so failures propagate.
func (r *Repository) Collection(ctx context.Context, id string) (Collection, error) {
	c, err := r.store.Collection(ctx, id)
	if err != nil {
		return Collection{}, repoErr("get_collection", err)
	}
	return c, nil
}

// CreateCollection persists a new collection for the current user and
// invalidates the cached collection list. The cache is never patched
// in place; the next read re-fetches truth.
func (r *Repository) CreateCollection(ctx context.Context, name string, initial []Entry) (Collection, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Collection{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Collection{}, ErrEmptyName
	}

	c := Collection{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Entries:   renumber(initial),
	}
	if err := r.store.CreateCollection(ctx, c); err != nil {
		return Collection{}, repoErr("create_collection", err)
	}

	r.collections.Remove(cacheKeyCollections)
	r.logger.Debug("created collection", "collection", c.ID, "entries", len(c.Entries))
	return c, nil
}

// AddSounds appends entries to a collection. Order indexes continue
// from one past the collection's current maximum, preserving relative
// order of the added entries.
func (r *Repository) AddSounds(ctx context.Context, collectionID string, entries []Entry) error {
	if _, err := r.userID(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	current, err := r.store.Collection(ctx, collectionID)
	if err != nil {
		return repoErr("add_sounds", err)
	}

	next := current.NextOrderIndex()
	appended := make([]Entry, len(entries))
	for i, e := range entries {
		e.OrderIndex = next + i
		appended[i] = e
	}

	if err := r.store.AddEntries(ctx, collectionID, appended); err != nil {
		return repoErr("add_sounds", err)
	}

	r.collections.Remove(cacheKeyCollections)
	return nil
}

// RemoveSounds removes the given sound ids from a collection. Remaining
// entries keep their order indexes; gaps are tolerated because playback
// order is relative, not contiguous.
func (r *Repository) RemoveSounds(ctx context.Context, collectionID string, soundIDs []string) error {
	if _, err := r.userID(ctx); err != nil {
		return err
	}
	if len(soundIDs) == 0 {
		return nil
	}

	if err := r.store.RemoveEntries(ctx, collectionID, soundIDs); err != nil {
		return repoErr("remove_sounds", err)
	}

	r.collections.Remove(cacheKeyCollections)
	return nil
}

// Reorder moves the entry at fromIndex (playback position, not order
// index) to toIndex and renumbers the whole membership densely. The
// write replaces the entry list in one call, so no reader observes a
// partially renumbered collection.
func (r *Repository) Reorder(ctx context.Context, collectionID string, fromIndex, toIndex int) error {
	if _, err := r.userID(ctx); err != nil {
		return err
	}

	current, err := r.store.Collection(ctx, collectionID)
	if err != nil {
		return repoErr("reorder", err)
	}

	entries := current.SortedEntries()
	if fromIndex < 0 || fromIndex >= len(entries) || toIndex < 0 || toIndex >= len(entries) {
		return repoErr("reorder", fmt.Errorf("index out of range: from=%d to=%d len=%d", fromIndex, toIndex, len(entries)))
	}

	moved := entries[fromIndex]
	entries = append(entries[:fromIndex], entries[fromIndex+1:]...)
	entries = append(entries[:toIndex], append([]Entry{moved}, entries[toIndex:]...)...)

	if err := r.store.ReplaceEntries(ctx, collectionID, renumber(entries)); err != nil {
		return repoErr("reorder", err)
	}

	r.collections.Remove(cacheKeyCollections)
	return nil
}

// Activate marks one collection active and every other collection the
// user owns inactive. The mutual-exclusion invariant lives here, not in
// client bookkeeping: the clear always precedes the mark.
func (r *Repository) Activate(ctx context.Context, collectionID string) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	if err := r.store.ClearActive(ctx, userID); err != nil {
		return repoErr("activate", err)
	}
	if err := r.store.MarkActive(ctx, collectionID); err != nil {
		return repoErr("activate", err)
	}

	r.collections.Remove(cacheKeyCollections)
	r.logger.Debug("activated collection", "collection", collectionID)
	return nil
}

// DeleteCollection removes a collection. Deleting the active collection
// leaves the user with zero active collections; no successor is
// promoted until the user explicitly activates one.
func (r *Repository) DeleteCollection(ctx context.Context, collectionID string) error {
	if _, err := r.userID(ctx); err != nil {
		return err
	}

	if err := r.store.DeleteCollection(ctx, collectionID); err != nil {
		return repoErr("delete_collection", err)
	}

	r.collections.Remove(cacheKeyCollections)
	return nil
}

// ActiveCollection returns the user's active collection, or ok=false
// when no collection is active.
func (r *Repository) ActiveCollection(ctx context.Context) (Collection, bool, error) {
	collections, err := r.UserCollections(ctx)
	if err != nil {
		return Collection{}, false, err
	}
	for _, c := range collections {
		if c.IsActive {
			return c, true, nil
		}
	}
	return Collection{}, false, nil
}

// ResolveSounds resolves a collection's membership to full Sound
// records in playback order. Entries whose sound no longer exists are
// skipped.
func (r *Repository) ResolveSounds(ctx context.Context, c Collection) ([]Sound, error) {
	entries := c.SortedEntries()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.SoundID
	}

	records, err := r.store.Sounds(ctx, ids)
	if err != nil {
		return nil, repoErr("resolve_sounds", err)
	}
	byID := make(map[string]Sound, len(records))
	for _, s := range records {
		byID[s.ID] = s
	}

	out := make([]Sound, 0, len(entries))
	for _, e := range entries {
		if s, ok := byID[e.SoundID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// CreateSound persists a user-created sound.
func (r *Repository) CreateSound(ctx context.Context, name string, category Category, src Source) (Sound, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Sound{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Sound{}, ErrEmptyName
	}
	if src.IsZero() {
		return Sound{}, fmt.Errorf("create_sound: %w", ErrSourceUnavailable)
	}
	if category == "" {
		category = CategoryCustom
	}

	s := Sound{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Source:    src,
		OwnerID:   userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateSound(ctx, s); err != nil {
		return Sound{}, repoErr("create_sound", err)
	}
	return s, nil
}

// DeleteSound removes a user-created sound. Only the owner may delete.
func (r *Repository) DeleteSound(ctx context.Context, soundID string) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	owned, err := r.ownedSound(ctx, soundID, userID)
	if err != nil {
		return err
	}

	if err := r.store.DeleteSound(ctx, owned.ID); err != nil {
		return repoErr("delete_sound", err)
	}
	return nil
}

// CropSound trims a user-created sound in place to [startMs, endMs).
func (r *Repository) CropSound(ctx context.Context, soundID string, startMs, endMs int) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}
	if startMs < 0 || endMs <= startMs {
		return ErrInvalidCrop
	}

	owned, err := r.ownedSound(ctx, soundID, userID)
	if err != nil {
		return err
	}

	if err := r.store.CropSound(ctx, owned.ID, startMs, endMs); err != nil {
		return repoErr("crop_sound", err)
	}
	return nil
}

// ownedSound fetches a sound and checks ownership.
func (r *Repository) ownedSound(ctx context.Context, soundID, userID string) (Sound, error) {
	records, err := r.store.Sounds(ctx, []string{soundID})
	if err != nil {
		return Sound{}, repoErr("get_sound", err)
	}
	if len(records) == 0 {
		return Sound{}, ErrSoundNotFound
	}
	s := records[0]
	if s.OwnerID != userID {
		return Sound{}, ErrNotOwned
	}
	return s, nil
}

// Reset clears every cache the repository manages. Called on sign-out
// and account deletion so no data leaks into the next session.
func (r *Repository) Reset() {
	r.collections.Clear()
	r.catalog.Clear()
}

// renumber assigns dense order indexes preserving slice order.
func renumber(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.OrderIndex = i
		out[i] = e
	}
	return out
}
