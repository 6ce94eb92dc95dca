package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// fakePinecone is a minimal in-memory data plane for tests
type fakePinecone struct {
	mu         sync.Mutex
	namespaces map[string]map[string][]float32
}

func newFakePinecone() *fakePinecone {
	return &fakePinecone{namespaces: make(map[string]map[string][]float32)}
}

func (f *fakePinecone) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
		var req upsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		f.mu.Lock()
		ns, ok := f.namespaces[req.Namespace]
		if !ok {
			ns = make(map[string][]float32)
			f.namespaces[req.Namespace] = ns
		}
		for _, v := range req.Vectors {
			ns[v.ID] = v.Values
		}
		f.mu.Unlock()
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := queryResponse{}
		for id := range f.namespaces[req.Namespace] {
			resp.Matches = append(resp.Matches, struct {
				ID       string                `json:"id"`
				Score    float64               `json:"score"`
				Metadata driven.VectorMetadata `json:"metadata"`
			}{ID: id, Score: 0.5, Metadata: driven.VectorMetadata{Collection: req.Namespace}})
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/vectors/delete", func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		f.mu.Lock()
		for _, id := range req.IDs {
			delete(f.namespaces[req.Namespace], id)
		}
		f.mu.Unlock()
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("/describe_index_stats", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := statsResponse{Namespaces: make(map[string]struct {
			VectorCount int64 `json:"vectorCount"`
		})}
		for ns, vecs := range f.namespaces {
			resp.Namespaces[ns] = struct {
				VectorCount int64 `json:"vectorCount"`
			}{VectorCount: int64(len(vecs))}
		}
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func newTestIndex(t *testing.T) (*fakePinecone, *Index) {
	fake := newFakePinecone()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	idx, err := NewIndex(server.URL, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	return fake, idx
}

func TestIndex_UpsertQueryDelete(t *testing.T) {
	_, idx := newTestIndex(t)
	ctx := context.Background()

	items := []driven.VectorItem{
		{Key: "doc_1_chunk_0", Vector: []float32{1, 0}},
		{Key: "doc_1_chunk_1", Vector: []float32{0, 1}},
	}
	if err := idx.Upsert(ctx, domain.Namespace("u1", ""), items); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if err := idx.DeleteByDocument(ctx, "u1", "", "doc_1", 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	matches, err = idx.Query(ctx, []float32{1, 0}, 10, driven.VectorFilter{UserID: "u1", Collections: []string{""}})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty after delete, got %d", len(matches))
	}
}

func TestIndex_FanOutAcrossUserNamespaces(t *testing.T) {
	_, idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Upsert(ctx, domain.Namespace("u1", ""), []driven.VectorItem{{Key: "a_chunk_0", Vector: []float32{1}}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Upsert(ctx, domain.Namespace("u1", "examprep"), []driven.VectorItem{{Key: "b_chunk_0", Vector: []float32{1}}}); err != nil {
		t.Fatal(err)
	}
	// Another user's namespace must never leak in, even when the other
	// user's id embeds this user's id and the separator
	if err := idx.Upsert(ctx, domain.Namespace("u1__examprep", ""), []driven.VectorItem{{Key: "c_chunk_0", Vector: []float32{1}}}); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Query(ctx, []float32{1}, 10, driven.VectorFilter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches across u1 namespaces, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Key == "c_chunk_0" {
			t.Error("vector from another user leaked into results")
		}
	}
}

func TestIndex_CollectionScopedQuery(t *testing.T) {
	_, idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Upsert(ctx, domain.Namespace("u1", ""), []driven.VectorItem{{Key: "a_chunk_0", Vector: []float32{1}}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Upsert(ctx, domain.Namespace("u1", "examprep"), []driven.VectorItem{{Key: "b_chunk_0", Vector: []float32{1}}}); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Query(ctx, []float32{1}, 10, driven.VectorFilter{UserID: "u1", Collections: []string{"examprep"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Key != "b_chunk_0" {
		t.Errorf("expected only the isolated collection's vector, got %+v", matches)
	}
}

func TestIndex_DeleteNoChunksIsNoop(t *testing.T) {
	_, idx := newTestIndex(t)
	if err := idx.DeleteByDocument(context.Background(), "u1", "", "doc_1", 0); err != nil {
		t.Errorf("zero chunk delete should be a no-op, got %v", err)
	}
}
