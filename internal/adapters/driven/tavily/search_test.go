package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_ReturnsResults(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Go docs", "url": "https://go.dev", "content": "Go is a language", "score": 0.92},
				{"title": "Wiki", "url": "https://example.org", "content": "More text", "score": 0.41},
			},
		})
	}))
	defer server.Close()

	search, err := NewSearch("test-key", server.URL)
	if err != nil {
		t.Fatal(err)
	}

	results, err := search.Search(context.Background(), "what is go", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://go.dev" || results[0].Score != 0.92 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if got.Query != "what is go" || got.MaxResults != 3 || got.SearchDepth != "basic" {
		t.Errorf("unexpected request payload: %+v", got)
	}
}

func TestSearch_DefaultsMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxResults != 5 {
			t.Errorf("expected default max_results 5, got %d", req.MaxResults)
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	search, _ := NewSearch("test-key", server.URL)
	if _, err := search.Search(context.Background(), "q", 0); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	search, _ := NewSearch("test-key", server.URL)
	if _, err := search.Search(context.Background(), "q", 3); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestNewSearch_RequiresKey(t *testing.T) {
	if _, err := NewSearch("", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
