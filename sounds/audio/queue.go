package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/grayson40/PetPortraitAI-sub000/sounds"
)

var (
	// ErrQueueFull is returned when enqueueing into a queue at capacity.
	ErrQueueFull = errors.New("playback queue is full")

	// ErrQueueClosed is returned for operations on a closed queue.
	ErrQueueClosed = errors.New("playback queue is closed")
)

// Pending is one queued playback: the sound to play and where its audio
// lives.
type Pending struct {
	SoundID string
	Source  sounds.Source
}

// QueueStats tracks queue activity for debugging capture sessions.
type QueueStats struct {
	TotalEnqueued int64
	TotalDequeued int64
	UrgentCount   int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// Queue orders upcoming playbacks for a capture session. Urgent items
// (the user tapping a specific sound mid-session) are dequeued before
// the regular sequence; within each class order is FIFO.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	urgent  []Pending
	regular []Pending
	maxSize int
	closed  bool
	stats   QueueStats
}

// NewQueue creates a queue holding at most maxSize pending playbacks.
func NewQueue(maxSize int) *Queue {
	q := &Queue{
		regular: make([]Pending, 0, maxSize),
		maxSize: maxSize,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds one pending playback. Urgent items jump ahead of the
// regular sequence. Returns ErrQueueFull rather than blocking; a full
// queue means the session is already saturated with sounds.
func (q *Queue) Enqueue(p Pending, urgent bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if len(q.urgent)+len(q.regular) >= q.maxSize {
		return ErrQueueFull
	}

	if urgent {
		q.urgent = append(q.urgent, p)
		q.stats.UrgentCount++
	} else {
		q.regular = append(q.regular, p)
	}

	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	q.noteSizeLocked()
	q.notEmpty.Signal()
	return nil
}

// EnqueueBatch adds a sequence of regular playbacks, stopping at
// capacity. Returns how many were accepted.
func (q *Queue) EnqueueBatch(items []Pending) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, ErrQueueClosed
	}

	accepted := 0
	for _, p := range items {
		if len(q.urgent)+len(q.regular) >= q.maxSize {
			break
		}
		q.regular = append(q.regular, p)
		q.stats.TotalEnqueued++
		accepted++
	}
	if accepted > 0 {
		q.stats.LastEnqueue = time.Now()
		q.noteSizeLocked()
		q.notEmpty.Broadcast()
	}
	return accepted, nil
}

// Dequeue blocks until an item is available or ctx is cancelled.
// Urgent items win. After Close, pending items keep draining;
// ErrQueueClosed is returned only once the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (Pending, error) {
	type result struct {
		p      Pending
		urgent bool
		err    error
	}
	done := make(chan result, 1)
	abandoned := false // guarded by q.mu

	go func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		for len(q.urgent) == 0 && len(q.regular) == 0 && !q.closed && !abandoned {
			q.notEmpty.Wait()
		}
		// An abandoned waiter must not pop: the caller already returned
		// and nobody would ever play the item.
		if abandoned {
			return
		}
		// Remaining items drain even after Close.
		if len(q.urgent) == 0 && len(q.regular) == 0 {
			done <- result{err: ErrQueueClosed}
			return
		}
		fromUrgent := len(q.urgent) > 0
		done <- result{p: q.popLocked(), urgent: fromUrgent}
	}()

	select {
	case r := <-done:
		return r.p, r.err
	case <-ctx.Done():
		q.mu.Lock()
		abandoned = true
		q.notEmpty.Broadcast()
		q.mu.Unlock()
		// The waiter holds q.mu from wake-up through the send, so once
		// we have cycled the lock any pop it made is already in done.
		// Restore such an item to the head of its class.
		select {
		case r := <-done:
			if r.err == nil {
				q.pushFront(r.p, r.urgent)
			}
		default:
		}
		return Pending{}, ctx.Err()
	}
}

// pushFront restores an item popped on behalf of a caller that gave up
// before receiving it.
func (q *Queue) pushFront(p Pending, urgent bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if urgent {
		q.urgent = append([]Pending{p}, q.urgent...)
	} else {
		q.regular = append([]Pending{p}, q.regular...)
	}
	q.stats.TotalDequeued--
	q.noteSizeLocked()
	q.notEmpty.Signal()
}

// TryDequeue returns the next item without blocking. ok=false when the
// queue is empty or closed.
func (q *Queue) TryDequeue() (Pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.urgent) == 0 && len(q.regular) == 0 {
		return Pending{}, false
	}
	return q.popLocked(), true
}

// popLocked removes the next item. Caller holds q.mu and has checked
// the queue is non-empty.
func (q *Queue) popLocked() Pending {
	var p Pending
	if len(q.urgent) > 0 {
		p = q.urgent[0]
		q.urgent = q.urgent[1:]
	} else {
		p = q.regular[0]
		q.regular = q.regular[1:]
	}
	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	q.stats.CurrentSize = len(q.urgent) + len(q.regular)
	return p
}

// Peek returns the next item without removing it.
func (q *Queue) Peek() (Pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.urgent) > 0 {
		return q.urgent[0], true
	}
	if len(q.regular) > 0 {
		return q.regular[0], true
	}
	return Pending{}, false
}

// Size returns the number of pending playbacks.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.urgent) + len(q.regular)
}

// Clear drops all pending playbacks.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.urgent = q.urgent[:0]
	q.regular = q.regular[:0]
	q.stats.CurrentSize = 0
}

// Stats returns a snapshot of the queue's counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.CurrentSize = len(q.urgent) + len(q.regular)
	return stats
}

// Close stops accepting new items and wakes any blocked Dequeue.
// Items already queued still drain.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notEmpty.Broadcast()
	return nil
}

// noteSizeLocked refreshes size counters. Caller holds q.mu.
func (q *Queue) noteSizeLocked() {
	size := len(q.urgent) + len(q.regular)
	q.stats.CurrentSize = size
	if size > q.stats.PeakSize {
		q.stats.PeakSize = size
	}
}
