package ordered

// entry is a node of the chain. The queue owns the entry, never the content.
type entry[VALUE any] struct {
	content *VALUE
	next    *entry[VALUE]
}

// Queue keeps references to caller-owned values sorted by a Comparer.
// Values that compare equal stay in the order they were offered.
//
// A Queue is not safe for concurrent use.
type Queue[VALUE any] struct {
	size     int
	head     *entry[VALUE]
	comparer Comparer[VALUE]
}

// New returns a Queue ordered by comparer.
func New[VALUE any](comparer Comparer[VALUE]) *Queue[VALUE] {
	return new(Queue[VALUE]).Init(comparer)
}

// Init initializes or clears queue q and sets its comparer.
func (q *Queue[VALUE]) Init(comparer Comparer[VALUE]) *Queue[VALUE] {
	q.size = 0
	q.head = nil
	q.comparer = comparer
	return q
}

// Offer inserts item before the first value that compares strictly greater
// than it and returns the index it was stored at, 0 being the front.
func (q *Queue[VALUE]) Offer(item *VALUE) int {
	if q.comparer == nil {
		panic("ordered: Offer on a queue without comparer, call Init first")
	}

	node := &entry[VALUE]{content: item}
	link := &q.head
	index := 0
	for *link != nil && q.comparer((*link).content, item) <= 0 {
		link = &(*link).next
		index++
	}
	node.next = *link
	*link = node
	q.size++
	return index
}

// Peek returns the front of the queue without removing it.
func (q *Queue[VALUE]) Peek() (*VALUE, bool) {
	if q.size == 0 {
		return nil, false
	}
	return q.head.content, true
}

// Poll removes and returns the front of the queue.
func (q *Queue[VALUE]) Poll() (*VALUE, bool) {
	if q.size == 0 {
		return nil, false
	}
	return q.unlink(&q.head), true
}

// At returns the value stored at index.
func (q *Queue[VALUE]) At(index int) (*VALUE, bool) {
	if index < 0 || index >= q.size {
		return nil, false
	}
	return (*q.linkAt(index)).content, true
}

// Remove removes every entry holding exactly item, compared by pointer and
// never by the comparer, and returns how many were removed.
func (q *Queue[VALUE]) Remove(item *VALUE) int {
	removed := 0
	link := &q.head
	for *link != nil {
		if (*link).content == item {
			q.unlink(link)
			removed++
			continue
		}
		link = &(*link).next
	}
	return removed
}

// RemoveAt removes and returns the value stored at index. The queue is left
// untouched when index is out of range.
func (q *Queue[VALUE]) RemoveAt(index int) (*VALUE, bool) {
	if index < 0 || index >= q.size {
		return nil, false
	}
	return q.unlink(q.linkAt(index)), true
}

// Contains reports whether item is stored in the queue.
func (q *Queue[VALUE]) Contains(item *VALUE) bool {
	for node := q.head; node != nil; node = node.next {
		if node.content == item {
			return true
		}
	}
	return false
}

// Len returns the number of values in the queue.
func (q *Queue[VALUE]) Len() int {
	return q.size
}

// List returns the values in queue order.
func (q *Queue[VALUE]) List() []*VALUE {
	list := make([]*VALUE, 0, q.size)
	for node := q.head; node != nil; node = node.next {
		list = append(list, node.content)
	}
	return list
}

// Range calls fn for each value in queue order until fn returns false.
// fn must not modify the queue.
func (q *Queue[VALUE]) Range(fn func(index int, item *VALUE) bool) {
	index := 0
	for node := q.head; node != nil; node = node.next {
		if !fn(index, node.content) {
			return
		}
		index++
	}
}

// Destroy releases every entry of the queue. The values themselves belong
// to the caller and are left alone. Init must be called before q is used
// again.
func (q *Queue[VALUE]) Destroy() {
	node := q.head
	for node != nil {
		next := node.next
		node.content = nil
		node.next = nil
		node = next
	}
	q.head = nil
	q.size = 0
	q.comparer = nil
}

// linkAt returns the link pointing at the entry stored at index.
// index must be in range.
func (q *Queue[VALUE]) linkAt(index int) **entry[VALUE] {
	link := &q.head
	for i := 0; i < index; i++ {
		link = &(*link).next
	}
	return link
}

// unlink detaches the entry *link points at and returns its content.
func (q *Queue[VALUE]) unlink(link **entry[VALUE]) *VALUE {
	node := *link
	*link = node.next
	node.next = nil
	q.size--
	return node.content
}
