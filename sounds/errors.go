package sounds

import (
	"errors"
	"fmt"
)

// Common errors for the sound engine.
var (
	// ErrUnauthenticated is returned when an operation needs a signed-in
	// user and the identity provider has none.
	ErrUnauthenticated = errors.New("no signed-in user")

	// ErrEmptyName is returned when a collection is created with a blank name.
	ErrEmptyName = errors.New("collection name is empty")

	// ErrSourceUnavailable is returned when a sound's audio source cannot
	// be opened (missing bundled asset, unreachable URL).
	ErrSourceUnavailable = errors.New("sound source unavailable")

	// ErrNotLoaded is returned when playback is requested for a sound
	// that has no loaded handle.
	ErrNotLoaded = errors.New("sound is not loaded")

	// ErrSoundNotFound is returned when a sound id resolves to nothing
	// in the remote store.
	ErrSoundNotFound = errors.New("sound not found")

	// ErrCollectionNotFound is returned when a collection id resolves to
	// nothing in the remote store.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrNotOwned is returned when a crop or delete targets a sound the
	// current user does not own.
	ErrNotOwned = errors.New("sound is not owned by the current user")

	// ErrInvalidCrop is returned when a crop range is empty or inverted.
	ErrInvalidCrop = errors.New("invalid crop range")
)

// RepositoryError wraps a remote store failure with the operation that
// produced it. Mutating repository operations return it; read paths
// degrade to empty results instead.
type RepositoryError struct {
	Op  string // repository operation, e.g. "create_collection"
	Err error  // underlying cause
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("sounds: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func repoErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Err: err}
}
