package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/spacewh/spacewh/core"
)

// Interface compliance (compile-time assertions)
var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestInMemoryStore_StoreSearchDelete(t *testing.T) {
	svc := NewInMemoryStore()
	// store memories
	for i := 0; i < 5; i++ {
		if err := svc.Store("user-2", "content"+string(rune('A'+i)), map[string]any{"idx": i}); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}
	// search all (empty query) limit larger than stored
	res, err := svc.Search("user-2", "", 10)
	if err != nil {
		t.Fatalf("search all failed: %v", err)
	}
	if len(res) != 5 {
		t.Fatalf("expected 5 results, got %d", len(res))
	}
	// search with query substring (case insensitive)
	res2, _ := svc.Search("user-2", "CONTENTA", 5)
	if len(res2) != 1 || res2[0].Content != "contentA" {
		t.Fatalf("expected single match, got %#v", res2)
	}
	// limit test
	res3, _ := svc.Search("user-2", "", 3)
	if len(res3) != 3 {
		t.Fatalf("expected 3 limited results, got %d", len(res3))
	}
	// delete existing id (take first)
	if err := svc.Delete("user-2", res[0].ID); err != nil {
		t.Fatalf("delete existing failed: %v", err)
	}
	res4, _ := svc.Search("user-2", "", 10)
	if len(res4) != 4 {
		t.Fatalf("expected 4 after delete, got %d", len(res4))
	}
	// delete nonexistent
	if err := svc.Delete("user-2", "does_not_exist"); err == nil {
		t.Fatalf("expected error deleting nonexistent memory")
	}
}

func TestInMemoryStore_UserScoping(t *testing.T) {
	svc := NewInMemoryStore()
	if err := svc.Store("user-a", "alpha notes", nil); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := svc.Store("user-b", "beta notes", nil); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	resA, _ := svc.Search("user-a", "notes", 10)
	if len(resA) != 1 || resA[0].Content != "alpha notes" {
		t.Fatalf("expected user-a scoped result, got %#v", resA)
	}
	resC, _ := svc.Search("user-c", "notes", 10)
	if len(resC) != 0 {
		t.Fatalf("expected no results for unknown user, got %#v", resC)
	}
	// ids are generated per user, so deleting in one scope leaves the other
	if err := svc.Delete("user-a", resA[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	resB, _ := svc.Search("user-b", "notes", 10)
	if len(resB) != 1 {
		t.Fatalf("expected user-b memory untouched, got %#v", resB)
	}
}

func TestInMemoryStore_MetadataIsolation(t *testing.T) {
	svc := NewInMemoryStore()
	md := map[string]any{"source": "request"}
	if err := svc.Store("user-1", "remember this", md); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	md["source"] = "mutated"
	res, _ := svc.Search("user-1", "remember", 1)
	if len(res) != 1 || res[0].Metadata["source"] != "request" {
		t.Fatalf("expected metadata copy isolation, got %#v", res)
	}
	res[0].Metadata["source"] = "mutated-again"
	res2, _ := svc.Search("user-1", "remember", 1)
	if res2[0].Metadata["source"] != "request" {
		t.Fatalf("expected returned metadata copy, got %#v", res2)
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	svc := NewInMemoryStore()
	wg := sync.WaitGroup{}
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := svc.Store("user-4", fmt.Sprintf("note %d", i), map[string]any{"i": i}); err != nil {
				t.Errorf("store error: %v", err)
			}
			if _, err := svc.Search("user-4", "note", 5); err != nil {
				t.Errorf("search error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	res, _ := svc.Search("user-4", "", 100)
	if len(res) != 25 {
		t.Fatalf("expected 25 memories after concurrent stores, got %d", len(res))
	}
}
