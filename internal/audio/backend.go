// Package audio implements the platform audio backend on top of oto.
// It turns sound sources (bundled assets or remote URLs) into playable
// clips for the resource manager.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
	soundaudio "github.com/grayson40/PetPortraitAI-sub000/sounds/audio"
)

// BackendConfig configures the oto backend.
type BackendConfig struct {
	SampleRate int           // 44100 or 48000 Hz
	Channels   int           // 1 = mono, 2 = stereo
	BundleDir  string        // directory holding bundled sound assets
	Timeout    time.Duration // per-download timeout for URL sources
}

// DefaultBackendConfig returns the default backend configuration.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		SampleRate: 44100,
		Channels:   1,
		Timeout:    15 * time.Second,
	}
}

// Backend creates clips backed by a single shared oto context. The
// context is created once; oto supports at most one per process.
type Backend struct {
	context *oto.Context
	cfg     BackendConfig
	http    *http.Client
}

// NewBackend initializes the audio device and returns a backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if cfg.SampleRate != 44100 && cfg.SampleRate != 48000 {
		return nil, fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", cfg.SampleRate)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("channels must be 1 or 2, got %d", cfg.Channels)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	return &Backend{
		context: ctx,
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Open fetches the source's audio bytes and wraps them in a clip. The
// data stays alive for the clip's whole lifetime; releasing it early
// causes audible artifacts with oto.
func (b *Backend) Open(ctx context.Context, src sounds.Source) (soundaudio.Clip, error) {
	data, err := b.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	pcm := stripWAVHeader(data)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("source contains no audio data")
	}

	return &clip{
		backend:  b,
		data:     pcm,
		duration: pcmDuration(len(pcm), b.cfg.SampleRate, b.cfg.Channels),
		volume:   1.0,
	}, nil
}

// fetch loads source bytes from the bundle directory or over HTTP.
func (b *Backend) fetch(ctx context.Context, src sounds.Source) ([]byte, error) {
	switch {
	case src.Bundle != "":
		path := filepath.Join(b.cfg.BundleDir, filepath.Clean(src.Bundle))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read bundled asset %s: %w", src.Bundle, err)
		}
		return data, nil

	case src.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid sound URL: %w", err)
		}
		resp, err := b.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download sound: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download sound: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read sound body: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("sound source is empty")
	}
}

// clip is one loaded resource. A fresh oto player is created per
// playback so stopping always rewinds to position zero.
type clip struct {
	backend  *Backend
	data     []byte
	duration time.Duration

	mu       sync.Mutex
	player   *oto.Player
	volume   float64
	onFinish func()
	start    time.Time
	pausedAt time.Duration
	paused   bool
	gen      int // playback generation; stale watchers are inert
}

// Play starts playback. A paused clip resumes; otherwise playback
// starts from position zero.
func (c *clip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player != nil && c.paused {
		c.paused = false
		c.start = time.Now().Add(-c.pausedAt)
		c.player.Play()
		return nil
	}

	c.closePlayerLocked()

	player := c.backend.context.NewPlayer(bytes.NewReader(c.data))
	player.SetVolume(c.volume)
	c.player = player
	c.start = time.Now()
	c.paused = false
	c.pausedAt = 0
	c.gen++

	player.Play()
	go c.watch(c.gen, c.duration)
	return nil
}

// watch fires the finish callback when the playback generation runs to
// its natural end. Stops and restarts bump the generation, making the
// old watcher a no-op.
func (c *clip) watch(gen int, d time.Duration) {
	timer := time.NewTimer(d + 50*time.Millisecond)
	defer timer.Stop()
	<-timer.C

	c.mu.Lock()
	if c.gen != gen || c.player == nil || c.paused {
		c.mu.Unlock()
		return
	}
	fn := c.onFinish
	c.closePlayerLocked()
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Pause halts playback keeping the current position.
func (c *clip) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil || c.paused {
		return nil
	}
	c.pausedAt = time.Since(c.start)
	c.paused = true
	c.player.Pause()
	return nil
}

// Stop halts playback and rewinds to zero.
func (c *clip) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closePlayerLocked()
	return nil
}

// closePlayerLocked tears down the current player. Caller holds c.mu.
func (c *clip) closePlayerLocked() {
	if c.player != nil {
		c.player.Pause()
		c.player.Close()
		c.player = nil
	}
	c.paused = false
	c.pausedAt = 0
	c.gen++
}

// SetVolume applies the level to the current and future players.
func (c *clip) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = level
	if c.player != nil {
		c.player.SetVolume(level)
	}
}

// Position returns the playback position.
func (c *clip) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.player == nil:
		return 0
	case c.paused:
		return c.pausedAt
	default:
		pos := time.Since(c.start)
		if pos > c.duration {
			pos = c.duration
		}
		return pos
	}
}

// SetOnFinish registers the completion callback.
func (c *clip) SetOnFinish(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = fn
}

// Close releases the clip and its audio data.
func (c *clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closePlayerLocked()
	c.data = nil
	return nil
}

// stripWAVHeader returns the PCM payload of a RIFF/WAVE file, or the
// input unchanged when it is not a WAV container.
func stripWAVHeader(data []byte) []byte {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data
	}

	// Walk chunks until the data chunk.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if id == "data" {
			end := body + size
			if end > len(data) {
				end = len(data)
			}
			return data[body:end]
		}
		offset = body + size
		if size%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}
	return nil
}

// pcmDuration computes the duration of 16-bit PCM data.
func pcmDuration(byteLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samples := byteLen / (channels * 2)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
