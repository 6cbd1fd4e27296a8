package welcome

// Store exposes welcome topics for HTTP handlers.
type Store interface {
	List() []Topic
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Topic
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied topics.
func NewMemoryStore(items []Topic) *MemoryStore {
	return &MemoryStore{items: append([]Topic(nil), items...)}
}

// List returns the configured topics in display order.
func (s *MemoryStore) List() []Topic {
	return append([]Topic(nil), s.items...)
}
