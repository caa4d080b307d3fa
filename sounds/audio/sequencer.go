package audio

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// Sequencer plays queued sounds one after another through a Manager.
// It drives capture sessions: the active collection's sounds are
// enqueued as the regular sequence and user taps jump in as urgent
// items.
type Sequencer struct {
	manager *Manager
	queue   *Queue
	logger  *log.Logger
}

// NewSequencer creates a sequencer over an existing manager and queue.
func NewSequencer(manager *Manager, queue *Queue, logger *log.Logger) *Sequencer {
	if logger == nil {
		logger = log.Default()
	}
	return &Sequencer{
		manager: manager,
		queue:   queue,
		logger:  logger.With("component", "sequencer"),
	}
}

// Run consumes the queue until it closes or ctx is cancelled. Each
// sound is loaded on demand, played, and waited on; a sound that fails
// to load or play is logged and skipped so one bad source never stalls
// the session.
func (s *Sequencer) Run(ctx context.Context) error {
	finished := make(chan string, 1)
	remove := s.manager.OnPlaybackComplete(func(soundID string) {
		select {
		case finished <- soundID:
		default:
		}
	})
	defer remove()

	for {
		p, err := s.queue.Dequeue(ctx)
		if errors.Is(err, ErrQueueClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.playAndWait(ctx, p, finished); err != nil {
			return err
		}
	}
}

// playAndWait plays one pending sound to completion. Load and play
// failures are skips, not session errors.
func (s *Sequencer) playAndWait(ctx context.Context, p Pending, finished <-chan string) error {
	if err := s.manager.Load(ctx, p.SoundID, p.Source); err != nil {
		s.logger.Warn("skipping sound that failed to load", "sound", p.SoundID, "err", err)
		return nil
	}
	if err := s.manager.Play(ctx, p.SoundID); err != nil {
		s.logger.Warn("skipping sound that failed to play", "sound", p.SoundID, "err", err)
		return nil
	}

	for {
		select {
		case id := <-finished:
			if id == p.SoundID {
				return nil
			}
			// Completion of an earlier, superseded playback.
		case <-ctx.Done():
			s.manager.Stop(p.SoundID)
			return ctx.Err()
		}
	}
}
