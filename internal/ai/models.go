package ai

import (
	"context"
	"fmt"
)

// Provider-bound adapters. Each one fixes a Client + config pair into the
// narrow collaborator shape the retrieval core consumes, so swapping vendors
// is a config change, not a code change.

const embeddingBatchSize = 10 // providers commonly cap array input size

// ChatModel answers a single prompt through the chat completions API.
type ChatModel struct {
	client *Client
	cfg    ChatConfig
}

func NewChatModel(client *Client, cfg ChatConfig) *ChatModel {
	return &ChatModel{client: client, cfg: cfg}
}

func (m *ChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	return m.client.Complete(ctx, m.cfg, []ChatMessage{
		{Role: "user", Content: prompt},
	})
}

// EmbeddingModel embeds text, splitting large batches to respect provider
// input limits while preserving order.
type EmbeddingModel struct {
	client *Client
	cfg    EmbeddingConfig
}

func NewEmbeddingModel(client *Client, cfg EmbeddingConfig) *EmbeddingModel {
	return &EmbeddingModel{client: client, cfg: cfg}
}

func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.client.Embed(ctx, m.cfg, text)
}

func (m *EmbeddingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := m.client.EmbedBatch(ctx, m.cfg, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d failed: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// RerankModel exposes the rerank endpoint behind the core's Reranker shape.
type RerankModel struct {
	client *Client
	cfg    RerankConfig
}

func NewRerankModel(client *Client, cfg RerankConfig) *RerankModel {
	return &RerankModel{client: client, cfg: cfg}
}

func (m *RerankModel) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	return m.client.Rerank(ctx, m.cfg, query, docs, topN)
}
