package queue

import (
	"sync"

	"github.com/LiuYuuChen/priqueue/ordered"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type blockQueue[V any] struct {
	cond  *sync.Cond
	queue *ordered.Queue[V]

	// members counts how many times each item is stored.
	members cmap.ConcurrentMap[int]
	logger  logrus.FieldLogger

	stopping bool
}

func NewBlockQueue[V any](comparer ordered.Comparer[V], opts ...Option) BlockQueue[V] {
	return newBlockQueue[V](comparer, newConfig(opts...))
}

func newBlockQueue[V any](comparer ordered.Comparer[V], cfg *config) *blockQueue[V] {
	return &blockQueue[V]{
		cond:    sync.NewCond(cfg.lock),
		queue:   ordered.New[V](comparer),
		members: cmap.New[int](),
		logger:  cfg.logger,
	}
}

// Add stores item and returns its index, or -1 when the queue is shut down.
func (que *blockQueue[V]) Add(item *V) int {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	if que.stopping {
		que.logger.WithField("item", item).Debug("drop item added to a shut down queue")
		return -1
	}

	index := que.queue.Offer(item)
	que.track(item, 1)
	que.cond.Broadcast()
	return index
}

func (que *blockQueue[V]) Peek() (*V, bool) {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	return que.queue.Peek()
}

func (que *blockQueue[V]) Poll() (*V, bool) {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	return que.poll()
}

func (que *blockQueue[V]) BlockPoll() (*V, error) {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	for que.queue.Len() == 0 && !que.stopping {
		que.cond.Wait()
	}

	item, ok := que.poll()
	if !ok {
		return nil, errors.Wrap(ErrShutdown, "block poll")
	}
	return item, nil
}

func (que *blockQueue[V]) At(index int) (*V, bool) {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	return que.queue.At(index)
}

func (que *blockQueue[V]) Remove(item *V) int {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	removed := que.queue.Remove(item)
	que.track(item, -removed)
	return removed
}

func (que *blockQueue[V]) RemoveAt(index int) (*V, bool) {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	item, ok := que.queue.RemoveAt(index)
	if ok {
		que.track(item, -1)
	}
	return item, ok
}

// Contains does not take the queue lock.
func (que *blockQueue[V]) Contains(item *V) bool {
	_, ok := que.members.Get(identity(item))
	return ok
}

func (que *blockQueue[V]) List() []*V {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	return que.queue.List()
}

func (que *blockQueue[V]) Len() int {
	que.cond.L.Lock()
	defer que.cond.L.Unlock()
	return que.queue.Len()
}

// Shutdown wakes every BlockPoll caller. Items already stored can still be
// polled.
func (que *blockQueue[V]) Shutdown() {
	que.cond.L.Lock()
	que.stopping = true
	remaining := que.queue.Len()
	que.cond.L.Unlock()
	que.cond.Broadcast()
	que.logger.WithField("remaining", remaining).Debug("queue shut down")
}

func (que *blockQueue[V]) IsShutdown() bool {
	que.cond.L.Lock()
	stopping := que.stopping
	que.cond.L.Unlock()
	return stopping
}

// poll must be called with the lock held.
func (que *blockQueue[V]) poll() (*V, bool) {
	item, ok := que.queue.Poll()
	if ok {
		que.track(item, -1)
	}
	return item, ok
}

func (que *blockQueue[V]) track(item *V, delta int) {
	if delta == 0 {
		return
	}
	key := identity(item)
	count, _ := que.members.Get(key)
	count += delta
	if count <= 0 {
		que.members.Remove(key)
		return
	}
	que.members.Set(key, count)
}
