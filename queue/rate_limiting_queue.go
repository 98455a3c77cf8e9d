package queue

import (
	"github.com/LiuYuuChen/priqueue/ordered"
	"golang.org/x/time/rate"
)

type rateLimitingQueue[V any] struct {
	*delayingQueue[V]

	limiter *rate.Limiter
}

func NewRateLimitingQueue[V any](comparer ordered.Comparer[V], opts ...Option) RateLimitingQueue[V] {
	return newRateLimitingQueue[V](comparer, newConfig(opts...))
}

func newRateLimitingQueue[V any](comparer ordered.Comparer[V], cfg *config) *rateLimitingQueue[V] {
	return &rateLimitingQueue[V]{
		delayingQueue: newDelayingQueue[V](comparer, cfg),
		limiter:       cfg.limiter,
	}
}

func (q *rateLimitingQueue[V]) AddRateLimited(item *V) {
	delay := q.limiter.Reserve().Delay()
	q.logger.WithField("delay", delay).Debug("rate limited add")
	q.AddAfter(item, delay)
}
