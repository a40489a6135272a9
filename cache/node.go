package cache

// entry is the payload of a recency list node. The key is stored alongside
// the value because eviction starts from the list and must find the map
// entry to erase.
type entry[K comparable, V any] struct {
	key K
	val V
}
