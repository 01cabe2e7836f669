package core

// MemoryStore defines persistence + retrieval (search) for per-user memory
// snippets, used by the top processing tier's persistent memory. It is keyed
// by user id so memory survives across requests. Implementations can back
// search with embeddings, keywords or any heuristic.
type MemoryStore interface {
	Store(userID string, content string, metadata map[string]any) error
	Search(userID string, query string, limit int) ([]SearchResult, error)
	Delete(userID string, memoryID string) error
}
