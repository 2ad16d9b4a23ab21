package prompt

// Store exposes prompt catalog retrieval for HTTP handlers and the chat
// manager.
type Store interface {
	List() []Prompt
	FindByID(id string) (Prompt, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Prompt
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied prompts.
func NewMemoryStore(items []Prompt) *MemoryStore {
	return &MemoryStore{items: append([]Prompt(nil), items...)}
}

// List returns the catalog.
func (s *MemoryStore) List() []Prompt {
	return append([]Prompt(nil), s.items...)
}

// FindByID looks up a prompt by identifier.
func (s *MemoryStore) FindByID(id string) (Prompt, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Prompt{}, false
}
