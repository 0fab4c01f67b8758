package timing

// OrderedMap is a map that iterates in insertion order.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]V)}
}

// Set stores v under k. A key keeps the position of its first insertion.
func (m *OrderedMap[K, V]) Set(k K, v V) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Each calls fn for every entry in insertion order.
func (m *OrderedMap[K, V]) Each(fn func(k K, v V)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// GroupBy buckets items by key, preserving the order in which keys were
// first seen and the order of items within a bucket.
func GroupBy[T any, K comparable](items []T, key func(T) K) *OrderedMap[K, []T] {
	out := NewOrderedMap[K, []T]()
	for _, item := range items {
		k := key(item)
		bucket, _ := out.Get(k)
		out.Set(k, append(bucket, item))
	}
	return out
}
