// Package pinecone implements the vector index against Pinecone's data
// plane REST API. Vectors live in per-user namespaces; queries fan out
// across a user's namespaces and merge by score.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

// deleteBatchSize bounds ids per delete call, per API limits
const deleteBatchSize = 1000

// Index is a Pinecone-backed vector index
type Index struct {
	host   string
	apiKey string
	client *http.Client
}

// NewIndex creates a vector index against a Pinecone index host.
// host is the index's data plane endpoint, e.g.
// "https://myindex-abc123.svc.us-east-1-aws.pinecone.io".
func NewIndex(host, apiKey string) (*Index, error) {
	if host == "" {
		return nil, fmt.Errorf("Pinecone index host is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Pinecone API key is required")
	}
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	return &Index{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type pineconeVector struct {
	ID       string                `json:"id"`
	Values   []float32             `json:"values"`
	Metadata driven.VectorMetadata `json:"metadata"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                `json:"id"`
		Score    float64               `json:"score"`
		Metadata driven.VectorMetadata `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
}

type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount int64 `json:"vectorCount"`
	} `json:"namespaces"`
}

// Upsert writes vectors into a namespace.
func (idx *Index) Upsert(ctx context.Context, namespace string, items []driven.VectorItem) error {
	if len(items) == 0 {
		return nil
	}
	vectors := make([]pineconeVector, len(items))
	for i, item := range items {
		vectors[i] = pineconeVector{ID: item.Key, Values: item.Vector, Metadata: item.Metadata}
	}
	if err := idx.post(ctx, "/vectors/upsert", upsertRequest{Vectors: vectors, Namespace: namespace}, nil); err != nil {
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	return nil
}

// Query searches the namespaces the filter selects and merges results by
// score. All namespaces are queried concurrently; one failing namespace
// fails the query rather than silently narrowing the corpus.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]driven.VectorMatch, error) {
	namespaces, err := idx.resolveNamespaces(ctx, filter)
	if err != nil {
		return nil, &domain.IndexError{Op: "query", Err: err}
	}
	if len(namespaces) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		merged  []driven.VectorMatch
		wg      sync.WaitGroup
		results = make([]error, len(namespaces))
	)
	for i, namespace := range namespaces {
		wg.Add(1)
		go func(i int, namespace string) {
			defer wg.Done()
			var resp queryResponse
			err := idx.post(ctx, "/query", queryRequest{
				Vector:          vector,
				TopK:            topK,
				Namespace:       namespace,
				IncludeMetadata: true,
			}, &resp)
			if err != nil {
				results[i] = fmt.Errorf("namespace %s: %w", namespace, err)
				return
			}
			mu.Lock()
			for _, m := range resp.Matches {
				merged = append(merged, driven.VectorMatch{Key: m.ID, Score: m.Score, Metadata: m.Metadata})
			}
			mu.Unlock()
		}(i, namespace)
	}
	wg.Wait()

	for _, err := range results {
		if err != nil {
			return nil, &domain.IndexError{Op: "query", Err: err}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

// DeleteByDocument removes a document's vectors by key sweep. Keys are
// derived from the chunk count because the serverless API has no prefix
// delete.
func (idx *Index) DeleteByDocument(ctx context.Context, userID, collection, documentID string, chunkCount int) error {
	if chunkCount <= 0 {
		return nil
	}
	namespace := domain.Namespace(userID, collection)

	ids := make([]string, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		ids = append(ids, domain.ChunkVectorKey(documentID, i))
	}
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := idx.post(ctx, "/vectors/delete", deleteRequest{IDs: ids[start:end], Namespace: namespace}, nil); err != nil {
			return &domain.IndexError{Op: "delete", Err: err}
		}
	}
	return nil
}

// HealthCheck verifies the index is reachable.
func (idx *Index) HealthCheck(ctx context.Context) error {
	var resp statsResponse
	if err := idx.post(ctx, "/describe_index_stats", struct{}{}, &resp); err != nil {
		return &domain.IndexError{Op: "stats", Err: err}
	}
	return nil
}

// resolveNamespaces expands the filter into concrete namespaces. Named
// collections map directly; an open filter lists the user's namespaces
// from index stats.
func (idx *Index) resolveNamespaces(ctx context.Context, filter driven.VectorFilter) ([]string, error) {
	if len(filter.Collections) > 0 {
		namespaces := make([]string, 0, len(filter.Collections))
		for _, c := range filter.Collections {
			namespaces = append(namespaces, domain.Namespace(filter.UserID, c))
		}
		return namespaces, nil
	}

	var stats statsResponse
	if err := idx.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return nil, err
	}

	prefix := domain.Namespace(filter.UserID, "")
	var namespaces []string
	for namespace := range stats.Namespaces {
		if namespace == prefix || strings.HasPrefix(namespace, prefix+"__") {
			namespaces = append(namespaces, namespace)
		}
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// post sends one data plane request, decoding into out when non-nil
func (idx *Index) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", idx.host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", idx.apiKey)

	resp, err := idx.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
