package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spacewh/spacewh/core"
)

// StoredMemory is the internal representation persisted by InMemoryStore.
// It mirrors the core.SearchResult shape (ID, content, metadata) without a
// score field since scoring is trivial here.
type StoredMemory struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// InMemoryStore is a naive process-local MemoryStore holding append-only
// per-user memories with substring Search.
//
// Concurrency: protected by RWMutex.
// Search: linear scan with case insensitive substring matching assigning a
// constant score of 1.0 to every hit. Suitable only for tests / demos; swap
// for a vector DB or semantic index for production retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[string]map[string]StoredMemory // userID -> memoryID -> stored memory
	counter map[string]int                     // userID -> next memory number
}

// NewInMemoryStore creates a new in-memory memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		storage: make(map[string]map[string]StoredMemory),
		counter: make(map[string]int),
	}
}

// Store appends a new memory for the user, generating a simple incremental id.
func (m *InMemoryStore) Store(userID string, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.storage[userID]; !exists {
		m.storage[userID] = make(map[string]StoredMemory)
	}
	memoryID := fmt.Sprintf("mem_%d", m.counter[userID])
	m.counter[userID]++
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	m.storage[userID][memoryID] = StoredMemory{ID: memoryID, Content: content, Metadata: md}
	return nil
}

// Search performs a simple substring match over the user's stored memories.
// Results are returned in unspecified order up to the provided limit. Each
// result receives a constant score of 1.0.
func (m *InMemoryStore) Search(userID string, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userStorage, exists := m.storage[userID]
	if !exists {
		return []core.SearchResult{}, nil
	}
	needle := strings.ToLower(query)
	results := make([]core.SearchResult, 0, limit)
	for _, stored := range userStorage {
		if len(results) >= limit {
			break
		}
		if query == "" || strings.Contains(strings.ToLower(stored.Content), needle) {
			md := make(map[string]any, len(stored.Metadata))
			for k, v := range stored.Metadata {
				md[k] = v
			}
			results = append(results, core.SearchResult{ID: stored.ID, Content: stored.Content, Score: 1.0, Metadata: md})
		}
	}
	return results, nil
}

// Delete removes a stored memory entry by id.
func (m *InMemoryStore) Delete(userID string, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	userStorage, exists := m.storage[userID]
	if !exists {
		return fmt.Errorf("memory not found")
	}
	if _, exists := userStorage[memoryID]; !exists {
		return fmt.Errorf("memory not found")
	}
	delete(userStorage, memoryID)
	return nil
}
