package ordered

import "cmp"

// Comparer orders two values. It returns a negative number when a comes
// before b, zero when they rank the same and a positive number when a comes
// after b.
type Comparer[VALUE any] func(a, b *VALUE) int

// By orders values ascending by the key extracted from them.
func By[VALUE any, KEY cmp.Ordered](key func(*VALUE) KEY) Comparer[VALUE] {
	return func(a, b *VALUE) int {
		return cmp.Compare(key(a), key(b))
	}
}

// Reverse flips the order of comparer.
func Reverse[VALUE any](comparer Comparer[VALUE]) Comparer[VALUE] {
	return func(a, b *VALUE) int {
		return comparer(b, a)
	}
}
