package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

// Backend tables.
const (
	tableSounds      = "sounds"
	tableCollections = "collections"
	tableEntries     = "collection_sounds"
)

// Store adapts the REST client to sounds.Store.
type Store struct {
	client *Client
}

// NewStore creates a Store over an existing client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// soundRow is the wire form of a sound record.
type soundRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Bundle    string    `json:"bundle,omitempty"`
	URL       string    `json:"url,omitempty"`
	Premium   bool      `json:"is_premium"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	Downloads *int      `json:"downloads,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r soundRow) toSound() sounds.Sound {
	s := sounds.Sound{
		ID:       r.ID,
		Name:     r.Name,
		Category: sounds.Category(r.Category),
		Source: sounds.Source{
			Bundle: r.Bundle,
			URL:    r.URL,
		},
		Premium:   r.Premium,
		CreatedAt: r.CreatedAt,
	}
	if r.OwnerID != nil {
		s.OwnerID = *r.OwnerID
	}
	if r.Downloads != nil || r.Rating != nil {
		s.Stats = &sounds.Stats{}
		if r.Downloads != nil {
			s.Stats.Downloads = *r.Downloads
		}
		if r.Rating != nil {
			s.Stats.Rating = *r.Rating
		}
	}
	return s
}

func soundToRow(s sounds.Sound) soundRow {
	r := soundRow{
		ID:        s.ID,
		Name:      s.Name,
		Category:  string(s.Category),
		Bundle:    s.Source.Bundle,
		URL:       s.Source.URL,
		Premium:   s.Premium,
		CreatedAt: s.CreatedAt,
	}
	if s.OwnerID != "" {
		r.OwnerID = &s.OwnerID
	}
	if s.Stats != nil {
		r.Downloads = &s.Stats.Downloads
		r.Rating = &s.Stats.Rating
	}
	return r
}

// entryRow is the wire form of one membership record.
type entryRow struct {
	CollectionID string `json:"collection_id"`
	SoundID      string `json:"sound_id"`
	Provenance   string `json:"provenance"`
	OrderIndex   int    `json:"order_index"`
}

// collectionRow is the wire form of a collection, with membership
// embedded the PostgREST way.
type collectionRow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	UserID    string     `json:"user_id"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	Entries   []entryRow `json:"collection_sounds,omitempty"`
}

func (r collectionRow) toCollection() sounds.Collection {
	c := sounds.Collection{
		ID:        r.ID,
		Name:      r.Name,
		UserID:    r.UserID,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		Entries:   make([]sounds.Entry, len(r.Entries)),
	}
	for i, e := range r.Entries {
		c.Entries[i] = sounds.Entry{
			SoundID:    e.SoundID,
			Provenance: sounds.Provenance(e.Provenance),
			OrderIndex: e.OrderIndex,
		}
	}
	return c
}

// DefaultSounds returns the shared catalog: sounds with no owner.
func (s *Store) DefaultSounds(ctx context.Context) ([]sounds.Sound, error) {
	query := "owner_id=is.null&order=created_at.asc"
	data, err := s.client.Select(ctx, tableSounds, query)
	if err != nil {
		return nil, err
	}
	return decodeSounds(data)
}

// Sounds resolves ids to records. Unknown ids are simply absent.
func (s *Store) Sounds(ctx context.Context, ids []string) ([]sounds.Sound, error) {
	if len(ids) == 0 {
		return []sounds.Sound{}, nil
	}
	query := "id=" + inFilter(ids)
	data, err := s.client.Select(ctx, tableSounds, query)
	if err != nil {
		return nil, err
	}
	return decodeSounds(data)
}

// UserCollections returns the user's collections with membership embedded.
func (s *Store) UserCollections(ctx context.Context, userID string) ([]sounds.Collection, error) {
	query := "select=*," + tableEntries + "(*)&user_id=eq." + url.QueryEscape(userID) + "&order=created_at.asc"
	data, err := s.client.Select(ctx, tableCollections, query)
	if err != nil {
		return nil, err
	}
	return decodeCollections(data)
}

// Collection fetches one collection with its entries.
func (s *Store) Collection(ctx context.Context, id string) (sounds.Collection, error) {
	query := "select=*," + tableEntries + "(*)&id=eq." + url.QueryEscape(id)
	data, err := s.client.Select(ctx, tableCollections, query)
	if err != nil {
		return sounds.Collection{}, err
	}
	rows, err := decodeCollections(data)
	if err != nil {
		return sounds.Collection{}, err
	}
	if len(rows) == 0 {
		return sounds.Collection{}, sounds.ErrCollectionNotFound
	}
	return rows[0], nil
}

// CreateCollection persists the collection row, then its entries.
func (s *Store) CreateCollection(ctx context.Context, c sounds.Collection) error {
	row := collectionRow{
		ID:        c.ID,
		Name:      c.Name,
		UserID:    c.UserID,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
	body, err := json.Marshal([]collectionRow{row})
	if err != nil {
		return err
	}
	if _, err := s.client.Insert(ctx, tableCollections, body); err != nil {
		return err
	}
	return s.AddEntries(ctx, c.ID, c.Entries)
}

// DeleteCollection removes membership first, then the collection row.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, tableEntries, "collection_id=eq."+url.QueryEscape(id)); err != nil {
		return err
	}
	return s.client.Delete(ctx, tableCollections, "id=eq."+url.QueryEscape(id))
}

// AddEntries inserts membership rows.
func (s *Store) AddEntries(ctx context.Context, collectionID string, entries []sounds.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = entryRow{
			CollectionID: collectionID,
			SoundID:      e.SoundID,
			Provenance:   string(e.Provenance),
			OrderIndex:   e.OrderIndex,
		}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = s.client.Insert(ctx, tableEntries, body)
	return err
}

// RemoveEntries deletes the given sound ids from a collection.
func (s *Store) RemoveEntries(ctx context.Context, collectionID string, soundIDs []string) error {
	if len(soundIDs) == 0 {
		return nil
	}
	query := "collection_id=eq." + url.QueryEscape(collectionID) + "&sound_id=" + inFilter(soundIDs)
	return s.client.Delete(ctx, tableEntries, query)
}

// ReplaceEntries swaps a collection's membership in one server-side
// function call, so the swap is atomic and no reader sees a partial
// renumbering.
func (s *Store) ReplaceEntries(ctx context.Context, collectionID string, entries []sounds.Entry) error {
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = entryRow{
			CollectionID: collectionID,
			SoundID:      e.SoundID,
			Provenance:   string(e.Provenance),
			OrderIndex:   e.OrderIndex,
		}
	}
	body, err := json.Marshal(map[string]any{
		"p_collection_id": collectionID,
		"p_entries":       rows,
	})
	if err != nil {
		return err
	}
	_, err = s.client.Rpc(ctx, "replace_collection_sounds", body)
	return err
}

// ClearActive deactivates every collection the user owns.
func (s *Store) ClearActive(ctx context.Context, userID string) error {
	body := []byte(`{"is_active":false}`)
	_, err := s.client.Update(ctx, tableCollections, "user_id=eq."+url.QueryEscape(userID), body)
	return err
}

// MarkActive activates one collection.
func (s *Store) MarkActive(ctx context.Context, collectionID string) error {
	body := []byte(`{"is_active":true}`)
	_, err := s.client.Update(ctx, tableCollections, "id=eq."+url.QueryEscape(collectionID), body)
	return err
}

// CreateSound persists a user-created sound.
func (s *Store) CreateSound(ctx context.Context, snd sounds.Sound) error {
	body, err := json.Marshal([]soundRow{soundToRow(snd)})
	if err != nil {
		return err
	}
	_, err = s.client.Insert(ctx, tableSounds, body)
	return err
}

// DeleteSound removes a user-created sound.
func (s *Store) DeleteSound(ctx context.Context, id string) error {
	return s.client.Delete(ctx, tableSounds, "id=eq."+url.QueryEscape(id))
}

// CropSound trims a user sound's audio server-side.
func (s *Store) CropSound(ctx context.Context, id string, startMs, endMs int) error {
	body, err := json.Marshal(map[string]any{
		"p_sound_id": id,
		"p_start_ms": startMs,
		"p_end_ms":   endMs,
	})
	if err != nil {
		return err
	}
	_, err = s.client.Rpc(ctx, "crop_sound", body)
	return err
}

// decodeSounds parses a sound result set. An empty body is a miss, not
// an error.
func decodeSounds(data []byte) ([]sounds.Sound, error) {
	if len(data) == 0 {
		return []sounds.Sound{}, nil
	}
	var rows []soundRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode sounds: %w", err)
	}
	out := make([]sounds.Sound, len(rows))
	for i, r := range rows {
		out[i] = r.toSound()
	}
	return out, nil
}

// decodeCollections parses a collection result set.
func decodeCollections(data []byte) ([]sounds.Collection, error) {
	if len(data) == 0 {
		return []sounds.Collection{}, nil
	}
	var rows []collectionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	out := make([]sounds.Collection, len(rows))
	for i, r := range rows {
		out[i] = r.toCollection()
	}
	return out, nil
}

// inFilter builds a PostgREST in.(...) filter value.
func inFilter(ids []string) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}
	return "in.(" + strings.Join(escaped, ",") + ")"
}
