// Package audio provides the audio resource manager for the sound
// engine: it owns every loaded sound handle, the shared volume level,
// and the load/play/stop/unload lifecycle on top of a platform backend.
package audio

import (
	"context"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

// Backend abstracts the platform audio subsystem. Open acquires a
// playable clip for a sound source; failures map to
// sounds.ErrSourceUnavailable at the manager level.
type Backend interface {
	Open(ctx context.Context, src sounds.Source) (Clip, error)
}

// Clip is one loaded, playable audio resource. Implementations wrap
// the platform primitives; all invariants (rewind-before-play, volume
// synchronization, single handle per sound) live in the Manager.
type Clip interface {
	// Play starts or resumes playback from the current position.
	Play() error

	// Pause halts playback keeping the current position.
	Pause() error

	// Stop halts playback and rewinds to position zero.
	Stop() error

	// SetVolume sets the clip volume in [0, 1].
	SetVolume(level float64)

	// Position returns the current playback position.
	Position() time.Duration

	// SetOnFinish registers the function called when playback reaches
	// the end of the clip. A stopped or restarted playback does not fire it.
	SetOnFinish(fn func())

	// Close releases the underlying resource. The clip is unusable
	// afterwards.
	Close() error
}
