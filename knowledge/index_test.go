package knowledge

import (
	"context"
	"testing"

	"github.com/spacewh/spacewh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.Retriever = (*Index)(nil)

func seedIndex() *Index {
	idx := NewIndex()
	idx.Add(Document{
		ID:      "doc-db",
		Title:   "Database runbook",
		Content: "Steps for recovering the primary database after a failover event.",
		Tags:    []string{"database", "runbook"},
	})
	idx.Add(Document{
		ID:      "doc-alerts",
		Title:   "Alert escalation policy",
		Content: "Critical alerts page the on-call operator; warnings collect in the daily digest.",
		Tags:    []string{"alerts"},
	})
	idx.Add(Document{
		ID:      "doc-modes",
		Title:   "Permission modes",
		Content: "Modes form a lattice from archivist to entity; each tier adds permissions.",
		Tags:    []string{"modes", "permissions"},
	})
	return idx
}

func TestIndexAddRemove(t *testing.T) {
	idx := NewIndex()
	id := idx.Add(Document{Title: "untitled", Content: "text"})
	assert.NotEmpty(t, id, "generated id expected")
	assert.Equal(t, 1, idx.Len())

	assert.True(t, idx.Remove(id))
	assert.False(t, idx.Remove(id))
	assert.Equal(t, 0, idx.Len())
}

func TestIndexQueryRanking(t *testing.T) {
	idx := seedIndex()

	res, err := idx.Query(context.Background(), core.RetrievalQuery{
		Query:  "database failover",
		UserID: "user-1",
	})
	require.NoError(t, err)
	assert.False(t, res.NeedsEnhancement)
	assert.Contains(t, res.Response, "Database runbook")
	assert.NotContains(t, res.Response, "Permission modes")
	assert.Equal(t, []string{"knowledge_search"}, res.ToolsUsed)
	assert.Equal(t, 1, res.Metadata["documents_matched"])
	assert.Equal(t, "standard", res.Metadata["depth"])
	assert.Equal(t, 3, res.Metadata["index_size"])
}

func TestIndexQueryMiss(t *testing.T) {
	idx := seedIndex()

	res, err := idx.Query(context.Background(), core.RetrievalQuery{Query: "quantum entanglement"})
	require.NoError(t, err)
	assert.True(t, res.NeedsEnhancement, "empty result should request council enhancement")
	assert.Contains(t, res.Response, "No relevant knowledge found")
	assert.Equal(t, 0, res.Metadata["documents_matched"])
	assert.Empty(t, res.ToolsUsed)
}

func TestIndexDeepDepthMatchesTags(t *testing.T) {
	idx := seedIndex()

	// "runbook" appears as a tag; standard depth already matches the title,
	// so query a pure tag term.
	res, err := idx.Query(context.Background(), core.RetrievalQuery{
		Query: "permissions",
		Depth: core.DepthDeep,
	})
	require.NoError(t, err)
	assert.Equal(t, "deep", res.Metadata["depth"])
	assert.Contains(t, res.Response, "Permission modes")
}

func TestIndexQueryCancelledContext(t *testing.T) {
	idx := seedIndex()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Query(ctx, core.RetrievalQuery{Query: "database"})
	assert.Error(t, err)
}
