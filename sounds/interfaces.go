package sounds

import "context"

// Store is the remote data service behind the repository. Implementations
// talk to the backend's REST resources; the repository layers caching,
// validation and the active-collection invariant on top.
//
// Read methods treat an absent resource as a miss (empty result), never
// as an error. Mutations return an error for any non-success response.
type Store interface {
	// DefaultSounds returns the shared read-only sound catalog.
	DefaultSounds(ctx context.Context) ([]Sound, error)

	// Sounds resolves sound ids to full records. Unknown ids are
	// silently absent from the result.
	Sounds(ctx context.Context, ids []string) ([]Sound, error)

	// UserCollections returns every collection owned by the user,
	// including membership entries.
	UserCollections(ctx context.Context, userID string) ([]Collection, error)

	// Collection fetches a single collection with its entries.
	Collection(ctx context.Context, id string) (Collection, error)

	// CreateCollection persists a new collection and its initial entries.
	CreateCollection(ctx context.Context, c Collection) error

	// DeleteCollection removes a collection and its membership.
	DeleteCollection(ctx context.Context, id string) error

	// AddEntries appends membership entries to a collection.
	AddEntries(ctx context.Context, collectionID string, entries []Entry) error

	// RemoveEntries removes the given sound ids from a collection.
	RemoveEntries(ctx context.Context, collectionID string, soundIDs []string) error

	// ReplaceEntries swaps a collection's whole membership in one write.
	// Used for reorders so no reader observes a half-renumbered list.
	ReplaceEntries(ctx context.Context, collectionID string, entries []Entry) error

	// ClearActive sets is_active to false on every collection the user owns.
	ClearActive(ctx context.Context, userID string) error

	// MarkActive sets is_active to true on one collection.
	MarkActive(ctx context.Context, collectionID string) error

	// CreateSound persists a user-created sound.
	CreateSound(ctx context.Context, s Sound) error

	// DeleteSound removes a user-created sound.
	DeleteSound(ctx context.Context, id string) error

	// CropSound trims a user-created sound in place to the given
	// start/end offsets in milliseconds.
	CropSound(ctx context.Context, id string, startMs, endMs int) error
}

// Identity exposes the current session's user, if any.
type Identity interface {
	// CurrentUserID returns the signed-in user's id, or ok=false when
	// nobody is signed in.
	CurrentUserID(ctx context.Context) (id string, ok bool)
}
