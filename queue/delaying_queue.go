package queue

import (
	"sync"
	"time"

	"github.com/LiuYuuChen/priqueue/ordered"
	cmap "github.com/orcaman/concurrent-map"
	"k8s.io/utils/clock"
)

type waitFor[V any] struct {
	readyAt time.Time
	value   *V
}

// waitingOrder puts the entry ready first at the front. Entries ready at the
// same time keep the order they were handed to the loop in.
func waitingOrder[V any](a, b *waitFor[V]) int {
	return a.readyAt.Compare(b.readyAt)
}

type delayingQueue[V any] struct {
	*blockQueue[V]

	clock clock.WithTicker

	// stopCh lets us signal a shutdown to the waiting loop
	stopCh chan struct{}
	// stopOnce guarantees we only signal shutdown a single time
	stopOnce sync.Once

	// heartbeat ensures we wait no more than the heartbeat interval before firing
	heartbeat clock.Ticker

	// waitingForAddCh is a buffered channel that feeds the waiting loop
	waitingForAddCh chan *waitFor[V]

	// known indexes the waiting entries by item identity. Entries left in
	// the waiting list without a known entry are stale and skipped.
	known cmap.ConcurrentMap[*waitFor[V]]
	// knownLock serializes moving an entry out of known with Remove
	knownLock sync.Mutex
}

func NewDelayingQueue[V any](comparer ordered.Comparer[V], opts ...Option) DelayingQueue[V] {
	return newDelayingQueue[V](comparer, newConfig(opts...))
}

func newDelayingQueue[V any](comparer ordered.Comparer[V], cfg *config) *delayingQueue[V] {
	q := &delayingQueue[V]{
		blockQueue:      newBlockQueue[V](comparer, cfg),
		clock:           cfg.clock,
		stopCh:          make(chan struct{}),
		heartbeat:       cfg.clock.NewTicker(cfg.heartbeat),
		waitingForAddCh: make(chan *waitFor[V], waitingChanSize),
		known:           cmap.New[*waitFor[V]](),
	}
	go q.waitingLoop()
	return q
}

// AddAfter adds item to the queue after duration. A non-positive duration
// adds it right away. An item already waiting keeps the earlier of its two
// ready times.
func (q *delayingQueue[V]) AddAfter(item *V, duration time.Duration) {
	if q.IsShutdown() {
		q.logger.WithField("item", item).Debug("drop item added to a shut down queue")
		return
	}

	if duration <= 0 {
		if q.addUnlessWaiting(item) {
			return
		}
		// the waiting loop sees this entry is ready and drops the waiting one
	}

	select {
	case <-q.stopCh:
	case q.waitingForAddCh <- &waitFor[V]{value: item, readyAt: q.clock.Now().Add(duration)}:
	}
}

// addUnlessWaiting adds item to the main queue when no entry for it is
// waiting and reports whether it did.
func (q *delayingQueue[V]) addUnlessWaiting(item *V) bool {
	q.knownLock.Lock()
	defer q.knownLock.Unlock()
	if _, ok := q.known.Get(identity(item)); ok {
		return false
	}
	q.Add(item)
	return true
}

// Remove drops every stored copy of item and cancels its waiting entry. It
// returns how many entries were dropped.
func (q *delayingQueue[V]) Remove(item *V) int {
	q.knownLock.Lock()
	defer q.knownLock.Unlock()
	removed := q.blockQueue.Remove(item)
	key := identity(item)
	if _, ok := q.known.Get(key); ok {
		q.known.Remove(key)
		removed++
	}
	return removed
}

func (q *delayingQueue[V]) Waiting() int {
	return q.known.Count()
}

// Shutdown stops the waiting loop and shuts the main queue down. Items
// still waiting are dropped.
func (q *delayingQueue[V]) Shutdown() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.heartbeat.Stop()
	})
	q.blockQueue.Shutdown()
}

func (q *delayingQueue[V]) waitingLoop() {
	// Make a placeholder channel to use when there are no items in our list
	never := make(<-chan time.Time)

	var nextReadyAtTimer clock.Timer

	waiting := ordered.New[waitFor[V]](waitingOrder[V])
	defer q.forget(waiting)
	defer func() {
		if nextReadyAtTimer != nil {
			nextReadyAtTimer.Stop()
		}
	}()

	for {
		if q.IsShutdown() {
			return
		}

		now := q.clock.Now()

		// Add ready entries
		for waiting.Len() > 0 {
			entry, _ := waiting.Peek()
			if entry.readyAt.After(now) {
				break
			}
			waiting.Poll()
			q.promote(entry)
		}

		// Set up a wait for the first item's readyAt (if one exists)
		nextReadyAt := never
		if entry, ok := waiting.Peek(); ok {
			if nextReadyAtTimer != nil {
				nextReadyAtTimer.Stop()
			}
			nextReadyAtTimer = q.clock.NewTimer(entry.readyAt.Sub(now))
			nextReadyAt = nextReadyAtTimer.C()
		}

		select {
		case <-q.stopCh:
			return

		case <-q.heartbeat.C():
			// continue the loop, which will add ready items

		case <-nextReadyAt:
			// continue the loop, which will add ready items

		case entry := <-q.waitingForAddCh:
			q.insert(waiting, entry)

			drained := false
			for !drained {
				select {
				case entry := <-q.waitingForAddCh:
					q.insert(waiting, entry)
				default:
					drained = true
				}
			}
		}
	}
}

// insert adds entry to the waiting list, or straight to the queue when it
// is ready already.
func (q *delayingQueue[V]) insert(waiting *ordered.Queue[waitFor[V]], entry *waitFor[V]) {
	q.knownLock.Lock()
	defer q.knownLock.Unlock()

	key := identity(entry.value)
	existing, exists := q.known.Get(key)

	if !entry.readyAt.After(q.clock.Now()) {
		if exists {
			waiting.Remove(existing)
			q.known.Remove(key)
		}
		q.Add(entry.value)
		return
	}

	if exists {
		if existing.readyAt.After(entry.readyAt) {
			waiting.Remove(existing)
			existing.readyAt = entry.readyAt
			waiting.Offer(existing)
		}
		return
	}

	waiting.Offer(entry)
	q.known.Set(key, entry)
}

// promote moves a ready entry to the main queue unless Remove cancelled it.
func (q *delayingQueue[V]) promote(entry *waitFor[V]) {
	q.knownLock.Lock()
	defer q.knownLock.Unlock()

	key := identity(entry.value)
	if current, ok := q.known.Get(key); !ok || current != entry {
		return
	}
	q.known.Remove(key)
	q.Add(entry.value)
}

func (q *delayingQueue[V]) forget(waiting *ordered.Queue[waitFor[V]]) {
	q.knownLock.Lock()
	defer q.knownLock.Unlock()

	dropped := q.known.Count()
	for entry, ok := waiting.Poll(); ok; entry, ok = waiting.Poll() {
		q.known.Remove(identity(entry.value))
	}
	waiting.Destroy()
	q.logger.WithField("dropped", dropped).Debug("waiting loop stopped")
}
