// Package sounds implements the pet sound engine: the collection
// repository, the data model shared by the playback and sync layers,
// and the collaborator interfaces the engine is wired with.
package sounds

import (
	"sort"
	"time"
)

// Category classifies a sound by its training purpose. The well-known
// values are listed below; user-created sounds may carry free-form
// categories.
type Category string

const (
	// CategoryAttention grabs a pet's attention during capture.
	CategoryAttention Category = "attention"
	// CategoryTraining marks sounds used for training cues.
	CategoryTraining Category = "training"
	// CategoryReward marks positive-reinforcement sounds.
	CategoryReward Category = "reward"
	// CategoryCustom marks user-recorded sounds.
	CategoryCustom Category = "custom"
)

// Provenance records where a collection entry came from.
type Provenance string

const (
	// ProvenanceDefault is a sound seeded from the shared catalog.
	ProvenanceDefault Provenance = "default"
	// ProvenanceMarketplace is a sound acquired from the marketplace.
	ProvenanceMarketplace Provenance = "marketplace"
	// ProvenanceUser is a sound the user created or uploaded.
	ProvenanceUser Provenance = "user"
)

// Source references the playable audio for a sound. Exactly one of
// Bundle or URL is set: Bundle names an asset shipped with the app,
// URL points at remotely hosted audio.
type Source struct {
	Bundle string `json:"bundle,omitempty"`
	URL    string `json:"url,omitempty"`
}

// IsZero reports whether the source references nothing.
func (s Source) IsZero() bool {
	return s.Bundle == "" && s.URL == ""
}

// Stats holds optional popularity numbers for a shared sound.
type Stats struct {
	Downloads int     `json:"downloads"`
	Rating    float64 `json:"rating"`
}

// Sound is a named, categorized playable audio asset. Shared sounds
// are immutable; user-owned sounds (OwnerID set) additionally support
// crop and delete through the repository.
type Sound struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Source    Source    `json:"source"`
	Premium   bool      `json:"is_premium"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Stats     *Stats    `json:"stats,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is one membership record in a collection: a sound reference
// plus its playback position. OrderIndex defines relative playback
// order; values stay unique within a collection but gaps left by
// removals are tolerated.
type Entry struct {
	SoundID    string     `json:"sound_id"`
	Provenance Provenance `json:"provenance"`
	OrderIndex int        `json:"order_index"`
}

// Collection is a user-owned, named, ordered list of sound references.
// At most one collection per user is active at a time; the repository
// enforces that invariant on activation.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// SortedEntries returns the collection's entries ordered for playback.
// The receiver's slice is not modified.
func (c Collection) SortedEntries() []Entry {
	out := make([]Entry, len(c.Entries))
	copy(out, c.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// NextOrderIndex returns the order index the next appended entry
// should use: one past the current maximum, or zero for an empty
// collection.
func (c Collection) NextOrderIndex() int {
	next := 0
	for _, e := range c.Entries {
		if e.OrderIndex >= next {
			next = e.OrderIndex + 1
		}
	}
	return next
}
