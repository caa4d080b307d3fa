package audio

import (
	"context"
	"sync"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

// MockBackend implements Backend for testing. It records every opened
// clip and supports error injection so manager failure paths can be
// exercised without a real audio device.
type MockBackend struct {
	mu sync.Mutex

	// OpenErr, when set, is returned by every Open call.
	OpenErr error

	clips     []*MockClip
	openCount int
}

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Open creates a new mock clip for the source.
func (b *MockBackend) Open(_ context.Context, src sounds.Source) (Clip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.openCount++
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	clip := &MockClip{source: src}
	b.clips = append(b.clips, clip)
	return clip, nil
}

// OpenCount returns how many times Open was called, including failures.
func (b *MockBackend) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openCount
}

// Clips returns every clip the backend has handed out.
func (b *MockBackend) Clips() []*MockClip {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*MockClip, len(b.clips))
	copy(out, b.clips)
	return out
}

// MockClip simulates one loaded audio resource. Playback position does
// not advance on its own; tests drive completion with FinishPlayback.
type MockClip struct {
	mu sync.Mutex

	source   sounds.Source
	playing  bool
	closed   bool
	position time.Duration
	volume   float64
	onFinish func()

	// Event counters for assertions.
	PlayCalls int
	StopCalls int

	// History records lifecycle events in order ("play", "stop", ...).
	History []string
}

// Play starts playback from the current position.
func (c *MockClip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing = true
	c.PlayCalls++
	c.History = append(c.History, "play")
	return nil
}

// Pause halts playback keeping position.
func (c *MockClip) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing = false
	c.History = append(c.History, "pause")
	return nil
}

// Stop halts playback and rewinds to zero.
func (c *MockClip) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing = false
	c.position = 0
	c.StopCalls++
	c.History = append(c.History, "stop")
	return nil
}

// SetVolume records the clip volume.
func (c *MockClip) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = level
}

// Volume returns the last volume set on the clip.
func (c *MockClip) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Position returns the simulated playback position.
func (c *MockClip) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// SeekTo moves the simulated position, for tests that need a clip
// mid-playback.
func (c *MockClip) SeekTo(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = pos
}

// SetOnFinish registers the completion callback.
func (c *MockClip) SetOnFinish(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = fn
}

// FinishPlayback simulates the clip reaching its end, firing the
// registered completion callback.
func (c *MockClip) FinishPlayback() {
	c.mu.Lock()
	c.playing = false
	c.position = 0
	fn := c.onFinish
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// PlayCount returns how many times Play was called. Safe to poll while
// another goroutine drives the clip.
func (c *MockClip) PlayCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PlayCalls
}

// IsPlaying reports whether the clip is playing.
func (c *MockClip) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Close marks the clip released.
func (c *MockClip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.History = append(c.History, "close")
	return nil
}

// Closed reports whether Close was called.
func (c *MockClip) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
