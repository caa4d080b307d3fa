package sounds

import (
	"context"
	"sync"
)

// MockIdentity implements Identity for testing. An empty UserID means
// signed out.
type MockIdentity struct {
	UserID string
}

// CurrentUserID returns the configured user id.
func (m MockIdentity) CurrentUserID(_ context.Context) (string, bool) {
	return m.UserID, m.UserID != ""
}

// MockStore is an in-memory Store implementation for testing. It keeps
// the remote-side semantics the repository depends on (entry lists per
// collection, active flags per user) and records per-operation call
// counts plus injectable errors.
type MockStore struct {
	mu sync.Mutex

	// CatalogSounds is the shared default catalog.
	CatalogSounds []Sound

	// AllSounds maps every known sound id to its record.
	AllSounds map[string]Sound

	collections map[string]*Collection
	order       []string // collection ids in creation order

	// Errs injects an error for the named operation ("user_collections",
	// "create_collection", ...). Every call of that operation fails.
	Errs map[string]error

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		AllSounds:   make(map[string]Sound),
		collections: make(map[string]*Collection),
		Errs:        make(map[string]error),
		Calls:       make(map[string]int),
	}
}

// AddCatalogSound registers a sound in both the catalog and the id index.
func (m *MockStore) AddCatalogSound(s Sound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CatalogSounds = append(m.CatalogSounds, s)
	m.AllSounds[s.ID] = s
}

// SeedCollection inserts a collection directly, bypassing call counts.
func (m *MockStore) SeedCollection(c Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := c
	m.collections[c.ID] = &cc
	m.order = append(m.order, c.ID)
}

// StoredCollection returns a copy of a stored collection for assertions.
func (m *MockStore) StoredCollection(id string) (Collection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return Collection{}, false
	}
	return *c, true
}

// begin counts the call and returns any injected error.
func (m *MockStore) begin(op string) error {
	m.Calls[op]++
	return m.Errs[op]
}

// DefaultSounds returns the shared catalog.
func (m *MockStore) DefaultSounds(_ context.Context) ([]Sound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("default_sounds"); err != nil {
		return nil, err
	}
	out := make([]Sound, len(m.CatalogSounds))
	copy(out, m.CatalogSounds)
	return out, nil
}

// Sounds resolves known ids; unknown ids are absent from the result.
func (m *MockStore) Sounds(_ context.Context, ids []string) ([]Sound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("sounds"); err != nil {
		return nil, err
	}
	out := make([]Sound, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.AllSounds[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// UserCollections returns the user's collections in creation order.
func (m *MockStore) UserCollections(_ context.Context, userID string) ([]Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("user_collections"); err != nil {
		return nil, err
	}
	out := make([]Collection, 0)
	for _, id := range m.order {
		if c := m.collections[id]; c != nil && c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Collection fetches one collection.
func (m *MockStore) Collection(_ context.Context, id string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("collection"); err != nil {
		return Collection{}, err
	}
	c, ok := m.collections[id]
	if !ok {
		return Collection{}, ErrCollectionNotFound
	}
	return *c, nil
}

// CreateCollection stores a new collection.
func (m *MockStore) CreateCollection(_ context.Context, c Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("create_collection"); err != nil {
		return err
	}
	cc := c
	m.collections[c.ID] = &cc
	m.order = append(m.order, c.ID)
	return nil
}

// DeleteCollection removes a collection.
func (m *MockStore) DeleteCollection(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete_collection"); err != nil {
		return err
	}
	delete(m.collections, id)
	for i, cid := range m.order {
		if cid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddEntries appends membership rows.
func (m *MockStore) AddEntries(_ context.Context, collectionID string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("add_entries"); err != nil {
		return err
	}
	c, ok := m.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	c.Entries = append(c.Entries, entries...)
	return nil
}

// RemoveEntries deletes the given sound ids, keeping remaining indexes.
func (m *MockStore) RemoveEntries(_ context.Context, collectionID string, soundIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove_entries"); err != nil {
		return err
	}
	c, ok := m.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	drop := make(map[string]bool, len(soundIDs))
	for _, id := range soundIDs {
		drop[id] = true
	}
	kept := c.Entries[:0]
	for _, e := range c.Entries {
		if !drop[e.SoundID] {
			kept = append(kept, e)
		}
	}
	c.Entries = kept
	return nil
}

// ReplaceEntries swaps the whole membership.
func (m *MockStore) ReplaceEntries(_ context.Context, collectionID string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("replace_entries"); err != nil {
		return err
	}
	c, ok := m.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	c.Entries = append([]Entry(nil), entries...)
	return nil
}

// ClearActive deactivates every collection the user owns.
func (m *MockStore) ClearActive(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("clear_active"); err != nil {
		return err
	}
	for _, c := range m.collections {
		if c.UserID == userID {
			c.IsActive = false
		}
	}
	return nil
}

// MarkActive activates one collection.
func (m *MockStore) MarkActive(_ context.Context, collectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("mark_active"); err != nil {
		return err
	}
	c, ok := m.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	c.IsActive = true
	return nil
}

// CreateSound stores a user sound.
func (m *MockStore) CreateSound(_ context.Context, s Sound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("create_sound"); err != nil {
		return err
	}
	m.AllSounds[s.ID] = s
	return nil
}

// DeleteSound removes a sound record.
func (m *MockStore) DeleteSound(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete_sound"); err != nil {
		return err
	}
	delete(m.AllSounds, id)
	return nil
}

// CropSound records the crop; the mock keeps no audio to trim.
func (m *MockStore) CropSound(_ context.Context, id string, _, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("crop_sound"); err != nil {
		return err
	}
	if _, ok := m.AllSounds[id]; !ok {
		return ErrSoundNotFound
	}
	return nil
}
