package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lightpath-health/careassist/internal/pinecone"
)

// ErrNotFound indicates no protocol record resolves for a task code,
// neither by exact metadata match nor by semantic fallback.
var ErrNotFound = errors.New("protocol not found")

// Service answers protocol lookups against one index namespace.
type Service struct {
	index       *pinecone.Client
	namespace   string
	rerankModel string
}

// NewService creates a protocol service over the given index client.
func NewService(index *pinecone.Client, namespace, rerankModel string) *Service {
	return &Service{
		index:       index,
		namespace:   namespace,
		rerankModel: rerankModel,
	}
}

// Resolve finds the protocol record for a task code.
//
// It first issues an exact-match filtered query; if that returns nothing it
// retries as a pure semantic query over the task code text. A record returned
// by the fallback is semantic-only: it never pretends to be an exact match,
// and an empty fallback yields ErrNotFound.
func (s *Service) Resolve(ctx context.Context, taskCode string) (*Record, error) {
	result, err := s.index.Search(ctx, s.namespace, pinecone.SearchRequest{
		Text: "task code " + taskCode,
		TopK: 1,
		Filter: map[string]any{
			"task_code": map[string]any{"$eq": taskCode},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("filtered lookup %q: %w", taskCode, err)
	}

	if len(result.Hits) == 0 {
		slog.Debug("no exact protocol match, falling back to semantic search", "task_code", taskCode)
		result, err = s.index.Search(ctx, s.namespace, pinecone.SearchRequest{
			Text: taskCode,
			TopK: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("semantic fallback %q: %w", taskCode, err)
		}
	}

	if len(result.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskCode)
	}

	rec := recordFromHit(result.Hits[0])
	return &rec, nil
}

// Filters narrows a search by record metadata.
type Filters struct {
	Priority string
	Program  string
}

// Search runs a free-text query with optional filters, reranked to topK.
//
// The initial vector pass over-fetches 2x topK candidates: vector similarity
// is a cheap coarse filter, and the reranker's cross-encoding pass reduces the
// wider candidate set to the topK most relevant.
func (s *Service) Search(ctx context.Context, query string, filters Filters, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 10
	}

	var filter map[string]any
	if filters.Priority != "" || filters.Program != "" {
		filter = map[string]any{}
		if filters.Priority != "" {
			filter["priority"] = map[string]any{"$eq": filters.Priority}
		}
		if filters.Program != "" {
			filter["program"] = map[string]any{"$eq": filters.Program}
		}
	}

	result, err := s.index.Search(ctx, s.namespace, pinecone.SearchRequest{
		Text:   query,
		TopK:   topK * 2,
		Filter: filter,
		Rerank: &pinecone.RerankSpec{
			Model:      s.rerankModel,
			TopN:       topK,
			RankFields: []string{"content"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	records := make([]Record, 0, len(result.Hits))
	for _, hit := range result.Hits {
		records = append(records, recordFromHit(hit))
	}
	return records, nil
}

// Stats reports the index record count for the health endpoint.
func (s *Service) Stats(ctx context.Context) (*pinecone.IndexStats, error) {
	return s.index.DescribeIndexStats(ctx)
}
