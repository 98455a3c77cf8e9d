// Package ordered implements a priority queue on top of a sorted singly
// linked list.
//
// The queue stores pointers to values owned by the caller and keeps them
// ascending according to a Comparer given at construction. Offer walks the
// list from the front and inserts the new value before the first value that
// compares strictly greater, so values of equal rank come out in the order
// they were offered.
//
// Lookups that miss, such as Peek on an empty queue or At with an index out
// of range, return a nil pointer and false. Remove matches values by pointer,
// never by the comparer.
//
// Basic usage:
//
//	q := ordered.New(ordered.By(func(t *task) int { return t.priority }))
//	q.Offer(&task{name: "a", priority: 5})
//	q.Offer(&task{name: "b", priority: 3})
//
//	next, ok := q.Poll() // b
//
// The queue is meant for small bounded workloads: Offer, At and RemoveAt
// are linear in the position they reach. It does no locking; the queue
// package wraps it for concurrent use.
package ordered
