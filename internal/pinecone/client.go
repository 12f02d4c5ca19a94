// Package pinecone provides a minimal client for the Pinecone records API.
//
// The protocol index uses integrated embedding: queries and upserts carry raw
// text and the hosted service handles embedding, nearest-neighbor search, and
// optional cross-encoder reranking.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// apiVersion pins the Pinecone data-plane API version.
const apiVersion = "2025-01"

// upsertBatchSize is the maximum records per upsert request for text records.
const upsertBatchSize = 96

// Client talks to a single Pinecone index over HTTP.
type Client struct {
	indexHost  string
	apiKey     string
	httpClient *http.Client
}

// New creates a client for the given index host.
// If host is empty, uses the PINECONE_INDEX_HOST env var.
// Timeout can be configured via PINECONE_CLIENT_TIMEOUT (default 60s).
func New(host, apiKey string) *Client {
	if host == "" {
		host = os.Getenv("PINECONE_INDEX_HOST")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	timeout := 60 * time.Second
	if t := os.Getenv("PINECONE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		indexHost: strings.TrimSuffix(host, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchRequest describes one search against a namespace.
type SearchRequest struct {
	Text   string
	TopK   int
	Filter map[string]any

	// Rerank, when set, asks the service for a second cross-encoding pass.
	Rerank *RerankSpec
}

// RerankSpec configures the hosted reranker.
type RerankSpec struct {
	Model      string   `json:"model"`
	TopN       int      `json:"top_n"`
	RankFields []string `json:"rank_fields"`
}

// Hit is a single search result with its record fields and relevance score.
type Hit struct {
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Fields map[string]any `json:"fields"`
}

// SearchResult holds the ordered hits for one query.
type SearchResult struct {
	Hits []Hit
}

type searchRequestBody struct {
	Query  searchQuery `json:"query"`
	Rerank *RerankSpec `json:"rerank,omitempty"`
}

type searchQuery struct {
	TopK   int            `json:"top_k"`
	Inputs map[string]any `json:"inputs"`
	Filter map[string]any `json:"filter,omitempty"`
}

type searchResponseBody struct {
	Result struct {
		Hits []Hit `json:"hits"`
	} `json:"result"`
}

// Search runs a text query against a namespace, optionally filtered and reranked.
func (c *Client) Search(ctx context.Context, namespace string, req SearchRequest) (*SearchResult, error) {
	body := searchRequestBody{
		Query: searchQuery{
			TopK:   req.TopK,
			Inputs: map[string]any{"text": req.Text},
			Filter: req.Filter,
		},
		Rerank: req.Rerank,
	}

	endpoint := fmt.Sprintf("%s/records/namespaces/%s/search", c.indexHost, url.PathEscape(namespace))

	var resp searchResponseBody
	if err := c.post(ctx, endpoint, "application/json", mustJSON(body), &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &SearchResult{Hits: resp.Result.Hits}, nil
}

// UpsertRecords writes text records into a namespace in batches.
// Each record must carry an "_id" field; remaining fields become metadata.
func (c *Client) UpsertRecords(ctx context.Context, namespace string, records []map[string]any) error {
	endpoint := fmt.Sprintf("%s/records/namespaces/%s/upsert", c.indexHost, url.PathEscape(namespace))

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		// NDJSON: one record per line
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, rec := range records[start:end] {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}

		if err := c.post(ctx, endpoint, "application/x-ndjson", buf.Bytes(), nil); err != nil {
			return fmt.Errorf("upsert batch %d: %w", start/upsertBatchSize+1, err)
		}
	}

	return nil
}

// IndexStats summarizes the index contents.
type IndexStats struct {
	TotalRecordCount int                       `json:"totalVectorCount"`
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
}

// NamespaceStats summarizes one namespace.
type NamespaceStats struct {
	RecordCount int `json:"vectorCount"`
}

// DescribeIndexStats returns record counts for the whole index.
func (c *Client) DescribeIndexStats(ctx context.Context) (*IndexStats, error) {
	endpoint := c.indexHost + "/describe_index_stats"

	var stats IndexStats
	if err := c.post(ctx, endpoint, "application/json", []byte("{}"), &stats); err != nil {
		return nil, fmt.Errorf("describe index stats: %w", err)
	}

	return &stats, nil
}

// post issues one request and decodes the JSON response into result (if non-nil).
func (c *Client) post(ctx context.Context, endpoint, contentType string, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrapStatusError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// mustJSON marshals a locally constructed request body.
// The body types above contain nothing that can fail to marshal.
func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
