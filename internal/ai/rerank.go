package ai

import (
	"context"
	"fmt"
	"sort"
)

// RerankConfig holds API settings for a cross-encoder rerank endpoint
// (Cohere-compatible /rerank wire format).
type RerankConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Rerank scores docs against query and returns the indices of the best topN
// documents, most relevant first.
func (c *Client) Rerank(ctx context.Context, cfg RerankConfig, query string, docs []string, topN int) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	var parsed struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
	}
	reqBody := map[string]interface{}{
		"model":     cfg.Model,
		"query":     query,
		"documents": docs,
		"top_n":     topN,
	}
	if err := c.postJSON(ctx, cfg.BaseURL, "/rerank", cfg.APIKey, reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("empty rerank results")
	}

	results := parsed.Results
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if topN < len(results) {
		results = results[:topN]
	}

	indices := make([]int, 0, len(results))
	for _, r := range results {
		if r.Index >= 0 && r.Index < len(docs) {
			indices = append(indices, r.Index)
		}
	}
	return indices, nil
}
