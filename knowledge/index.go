// Package knowledge provides the retrieval collaborator consumed by the
// upper processing tiers. The in-memory Index scores documents by keyword
// overlap; production deployments can swap in a semantic retriever behind
// the same core.Retriever interface.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
)

const (
	standardResultBudget = 3
	deepResultBudget     = 5
	snippetLength        = 200
)

// Document is an indexed knowledge entry.
type Document struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Options configures an Index.
type Options struct {
	// Logger receives query telemetry. Defaults to a no-op logger.
	Logger logging.Logger
}

// Index is an in-memory keyword retriever. Scoring is term frequency with
// title matches weighted double; deep retrieval additionally matches tags
// and widens the result budget. Safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	docs   map[string]Document
	logger logging.Logger
}

// NewIndex creates an empty knowledge index.
func NewIndex(optFns ...func(*Options)) *Index {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Index{
		docs:   make(map[string]Document),
		logger: opts.Logger,
	}
}

// Add indexes a document and returns its id, generating one when absent.
// Re-adding an id replaces the stored document.
func (idx *Index) Add(doc Document) string {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	idx.mu.Lock()
	idx.docs[doc.ID] = doc
	idx.mu.Unlock()

	return doc.ID
}

// Remove deletes a document from the index. Returns false for unknown ids.
func (idx *Index) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.docs[id]; !ok {
		return false
	}
	delete(idx.docs, id)

	return true
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.docs)
}

type scoredDoc struct {
	doc   Document
	score int
}

// Query implements core.Retriever. An empty result sets NeedsEnhancement so
// callers know to refine the answer through the agent council.
func (idx *Index) Query(ctx context.Context, q core.RetrievalQuery) (*core.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenize(q.Query)
	deep := q.Depth == core.DepthDeep

	budget := standardResultBudget
	if deep {
		budget = deepResultBudget
	}

	idx.mu.RLock()
	scored := make([]scoredDoc, 0, len(idx.docs))
	for _, doc := range idx.docs {
		if score := scoreDocument(doc, terms, deep); score > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: score})
		}
	}
	indexSize := len(idx.docs)
	idx.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].doc.ID < scored[j].doc.ID
	})
	if len(scored) > budget {
		scored = scored[:budget]
	}

	depth := q.Depth
	if depth == "" {
		depth = core.DepthStandard
	}

	result := &core.RetrievalResult{
		Metadata: map[string]any{
			"documents_matched": len(scored),
			"depth":             string(depth),
			"index_size":        indexSize,
		},
	}

	if len(scored) == 0 {
		result.Response = fmt.Sprintf("No relevant knowledge found for: %s", q.Query)
		result.NeedsEnhancement = true
		idx.logger.Debug("knowledge.query.miss", "user_id", q.UserID, "query", q.Query)

		return result, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Knowledge for %q:", q.Query)
	for _, s := range scored {
		fmt.Fprintf(&b, "\n- %s: %s", s.doc.Title, snippet(s.doc.Content))
	}
	result.Response = b.String()
	result.ToolsUsed = []string{"knowledge_search"}

	idx.logger.Debug("knowledge.query.hit", "user_id", q.UserID, "matched", len(scored), "depth", string(depth))

	return result, nil
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

func scoreDocument(doc Document, terms []string, deep bool) int {
	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)

	score := 0
	for _, term := range terms {
		score += 2 * strings.Count(title, term)
		score += strings.Count(content, term)
		if deep {
			for _, tag := range doc.Tags {
				if strings.EqualFold(tag, term) {
					score += 3
				}
			}
		}
	}
	return score
}

func snippet(content string) string {
	if len(content) <= snippetLength {
		return content
	}
	return content[:snippetLength] + "..."
}
