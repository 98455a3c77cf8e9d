package queue

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

type Queue[V any] interface {
	Add(item *V) int
	Peek() (*V, bool)
	Poll() (*V, bool)
	At(index int) (*V, bool)
	Remove(item *V) int
	RemoveAt(index int) (*V, bool)
	Contains(item *V) bool
	List() []*V
	Len() int
}

type BlockQueue[V any] interface {
	Queue[V]
	// BlockPoll waits for the front item. Once the queue is shut down and
	// drained it returns ErrShutdown.
	BlockPoll() (*V, error)
	Shutdown()
	IsShutdown() bool
}

type DelayingQueue[V any] interface {
	BlockQueue[V]
	// AddAfter adds item once duration has passed.
	AddAfter(item *V, duration time.Duration)
	// Waiting returns the number of items not ready yet.
	Waiting() int
	// Remove also cancels a waiting entry for item. RemoveAt only sees
	// items already added.
	Remove(item *V) int
}

type RateLimitingQueue[V any] interface {
	DelayingQueue[V]
	// AddRateLimited adds item when the limiter allows it.
	AddRateLimited(item *V)
}

const (
	defaultHeartbeat = 10 * time.Second
	defaultQPS       = 10
	defaultBurst     = 100
	waitingChanSize  = 1000
)

type config struct {
	lock      sync.Locker
	logger    logrus.FieldLogger
	clock     clock.WithTicker
	limiter   *rate.Limiter
	heartbeat time.Duration
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		lock:      &sync.RWMutex{},
		logger:    logrus.StandardLogger(),
		clock:     clock.RealClock{},
		heartbeat: defaultHeartbeat,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.limiter == nil {
		cfg.limiter = rate.NewLimiter(rate.Limit(defaultQPS), defaultBurst)
	}
	return cfg
}

type Option func(*config)

func WithLocker(lock sync.Locker) Option {
	return func(cfg *config) {
		cfg.lock = lock
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithClock sets the clock delaying queues measure time with.
func WithClock(clock clock.WithTicker) Option {
	return func(cfg *config) {
		cfg.clock = clock
	}
}

// WithHeartbeat sets how often the delaying loop wakes up with nothing
// ready.
func WithHeartbeat(interval time.Duration) Option {
	return func(cfg *config) {
		cfg.heartbeat = interval
	}
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(cfg *config) {
		cfg.limiter = limiter
	}
}
