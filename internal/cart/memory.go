package cart

import "github.com/Rahdeg/alt-commmerce/internal/storage"

// NewMemoryStore returns a standalone in-memory Store with its own broker. Intended for tests
// and for views that need a throwaway cart.
func NewMemoryStore() *KeyedStore {
	m, _ := NewManager(Dependencies{Storage: storage.NewMemory()})
	return m.For("memory")
}
