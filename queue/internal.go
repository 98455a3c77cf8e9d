package queue

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShutdown is returned by BlockPoll once a shut down queue is drained.
var ErrShutdown = errors.New("queue is shut down")

// identity keys an item by its address, so two equal values stored at
// different addresses never share a key.
func identity[V any](item *V) string {
	return fmt.Sprintf("%p", item)
}
