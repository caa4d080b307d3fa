package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

// Manager owns the set of loaded sound handles and the shared volume
// level. One Manager instance serves the whole process: every loaded
// handle and every volume change goes through it, so the handle set
// stays bounded and no raw clip reference escapes.
//
// Operations on the same sound id are serialized; operations on
// different ids proceed independently.
type Manager struct {
	backend Backend
	logger  *log.Logger

	mu           sync.Mutex
	handles      map[string]*handle
	volume       float64
	observers    map[int]func(soundID string)
	nextObserver int
	locks        map[string]*sync.Mutex
}

// handle pairs a loaded clip with its sound id.
type handle struct {
	soundID string
	clip    Clip
}

// NewManager creates a manager over the given platform backend with
// the shared volume at full level.
func NewManager(backend Backend, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		backend:   backend,
		logger:    logger.With("component", "audio"),
		handles:   make(map[string]*handle),
		volume:    1.0,
		observers: make(map[int]func(string)),
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the serialization lock for one sound id.
func (m *Manager) lockFor(soundID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[soundID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[soundID] = l
	}
	return l
}

// Load acquires a handle for the sound if none exists. Loading an
// already-loaded sound is a no-op. On failure no handle is left
// behind and the error wraps sounds.ErrSourceUnavailable.
func (m *Manager) Load(ctx context.Context, soundID string, src sounds.Source) error {
	l := m.lockFor(soundID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	if _, ok := m.handles[soundID]; ok {
		m.mu.Unlock()
		return nil
	}
	volume := m.volume
	m.mu.Unlock()

	clip, err := m.backend.Open(ctx, src)
	if err != nil {
		m.logger.Warn("failed to open sound source", "sound", soundID, "err", err)
		return fmt.Errorf("load %s: %w: %v", soundID, sounds.ErrSourceUnavailable, err)
	}
	clip.SetVolume(volume)

	m.mu.Lock()
	m.handles[soundID] = &handle{soundID: soundID, clip: clip}
	m.mu.Unlock()

	return nil
}

// Play starts the sound from position zero. A sound that is already
// mid-playback is stopped and rewound first, so repeated triggers
// always restart from the beginning instead of overlapping.
func (m *Manager) Play(ctx context.Context, soundID string) error {
	l := m.lockFor(soundID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	h, ok := m.handles[soundID]
	volume := m.volume
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("play %s: %w", soundID, sounds.ErrNotLoaded)
	}

	// Pick up any volume change made since the handle was loaded.
	h.clip.SetVolume(volume)

	if err := h.clip.Stop(); err != nil {
		m.logger.Warn("failed to rewind sound", "sound", soundID, "err", err)
		return fmt.Errorf("play %s: %w", soundID, err)
	}

	// Fresh once per playback: observers hear about each completed
	// playback exactly one time, however many are registered.
	var once sync.Once
	h.clip.SetOnFinish(func() {
		once.Do(func() {
			m.notifyComplete(soundID)
		})
	})

	if err := h.clip.Play(); err != nil {
		m.logger.Warn("failed to start playback", "sound", soundID, "err", err)
		return fmt.Errorf("play %s: %w", soundID, err)
	}
	return nil
}

// Stop halts one sound, keeping its handle loaded.
func (m *Manager) Stop(soundID string) error {
	l := m.lockFor(soundID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	h, ok := m.handles[soundID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("stop %s: %w", soundID, sounds.ErrNotLoaded)
	}
	return h.clip.Stop()
}

// Unload stops and releases one handle.
func (m *Manager) Unload(soundID string) {
	l := m.lockFor(soundID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	h, ok := m.handles[soundID]
	delete(m.handles, soundID)
	m.mu.Unlock()
	if !ok {
		return
	}

	h.clip.Stop()
	if err := h.clip.Close(); err != nil {
		m.logger.Warn("failed to release sound", "sound", soundID, "err", err)
	}
}

// StopAll stops every loaded sound. With unload true it also releases
// every handle, emptying the set; screens call this on teardown and
// before switching active collections so handles never accumulate for
// the lifetime of the app.
func (m *Manager) StopAll(unload bool) {
	m.mu.Lock()
	snapshot := make([]*handle, 0, len(m.handles))
	for _, h := range m.handles {
		snapshot = append(snapshot, h)
	}
	m.mu.Unlock()

	for _, h := range snapshot {
		l := m.lockFor(h.soundID)
		l.Lock()
		h.clip.Stop()
		if unload {
			m.mu.Lock()
			delete(m.handles, h.soundID)
			m.mu.Unlock()
			if err := h.clip.Close(); err != nil {
				m.logger.Warn("failed to release sound", "sound", h.soundID, "err", err)
			}
		}
		l.Unlock()
	}
}

// SetVolume clamps level to [0, 1], stores it as the shared level, and
// propagates it to every loaded handle. Sounds loaded afterwards pick
// up the new level on load.
func (m *Manager) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	m.mu.Lock()
	m.volume = level
	snapshot := make([]*handle, 0, len(m.handles))
	for _, h := range m.handles {
		snapshot = append(snapshot, h)
	}
	m.mu.Unlock()

	for _, h := range snapshot {
		h.clip.SetVolume(level)
	}
}

// Volume returns the shared volume level.
func (m *Manager) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Loaded reports whether a handle exists for the sound.
func (m *Manager) Loaded(soundID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handles[soundID]
	return ok
}

// LoadedCount returns the number of loaded handles.
func (m *Manager) LoadedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// OnPlaybackComplete registers an observer notified with the sound id
// each time a playback runs to completion. The returned function
// removes the observer; short-lived listeners (a playback session, a
// one-off play command) must call it so observers do not accumulate
// for the lifetime of the manager.
func (m *Manager) OnPlaybackComplete(fn func(soundID string)) (remove func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// ObserverCount returns the number of registered completion observers.
func (m *Manager) ObserverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}

// notifyComplete fans a completion out to every observer.
func (m *Manager) notifyComplete(soundID string) {
	m.mu.Lock()
	observers := make([]func(string), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(soundID)
	}
}
