package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Collaborator contracts. Implementations live outside the core (internal/ai)
// so vendors can be swapped without touching retrieval logic.
type (
	// Embedder turns text into a fixed-length vector. EmbedBatch preserves
	// input order.
	Embedder interface {
		Embed(ctx context.Context, text string) ([]float32, error)
		EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	}

	// Reranker reorders candidate documents by relevance to the query and
	// returns the indices of the best topN candidates, best first.
	Reranker interface {
		Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error)
	}

	// Completer is the LLM: prompt in, answer text out.
	Completer interface {
		Complete(ctx context.Context, prompt string) (string, error)
	}

	// IndexProvider hands out the live index for a tenant, ErrIndexNotFound
	// when the tenant has no knowledge base yet.
	IndexProvider interface {
		Index(companyID uint) (*Index, error)
	}
)

// Exchange is one prior question/answer pair fed into the prompt as
// conversation context.
type Exchange struct {
	Question string
	Answer   string
}

const (
	defaultSearchK    = 10
	defaultRerankTopN = 5
	historyInPrompt   = 3

	// NoKnowledgeBaseAnswer is the sentinel returned when the tenant has no
	// completed document. It is an answer, not an error; the web caller
	// always needs text.
	NoKnowledgeBaseAnswer = "Please upload a business document first so I can answer questions about your company."

	// ApologyAnswer is returned when a collaborator fails mid-answer.
	ApologyAnswer = "Sorry, I ran into a problem while answering your question. Please try again in a moment."
)

// Pipeline answers customer questions with retrieval-augmented generation:
// similarity search over the tenant's index, cross-encoder reranking, and an
// LLM call over the assembled context.
type Pipeline struct {
	indexes  IndexProvider
	embedder Embedder
	reranker Reranker
	llm      Completer
	searchK  int
	topN     int
}

func NewPipeline(indexes IndexProvider, embedder Embedder, reranker Reranker, llm Completer) *Pipeline {
	return &Pipeline{
		indexes:  indexes,
		embedder: embedder,
		reranker: reranker,
		llm:      llm,
		searchK:  defaultSearchK,
		topN:     defaultRerankTopN,
	}
}

// Answer runs the full retrieval chain for one question. It never surfaces a
// collaborator error to the caller: every failure degrades to sentinel text,
// because the ultimate caller is a user-facing request that must always get
// some response.
func (p *Pipeline) Answer(ctx context.Context, companyID uint, question string, history []Exchange) string {
	index, err := p.indexes.Index(companyID)
	if err != nil {
		if errors.Is(err, ErrIndexNotFound) {
			return NoKnowledgeBaseAnswer
		}
		// a tenant with documents should not be told to upload one
		log.Printf("load index failed for company %d: %v", companyID, err)
		return ApologyAnswer
	}

	queryVec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		log.Printf("embed question failed for company %d: %v", companyID, err)
		return ApologyAnswer
	}

	candidates := index.Search(queryVec, p.searchK)
	if len(candidates) == 0 {
		return NoKnowledgeBaseAnswer
	}

	selected := p.selectCandidates(ctx, question, candidates)
	prompt := buildPrompt(selected, history, question)

	answer, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		log.Printf("llm completion failed for company %d: %v", companyID, err)
		return ApologyAnswer
	}
	return strings.TrimSpace(answer)
}

// selectCandidates applies the reranker, falling back to the similarity order
// when the reranker is unavailable or misbehaves.
func (p *Pipeline) selectCandidates(ctx context.Context, question string, candidates []SearchResult) []Entry {
	topN := p.topN
	if topN > len(candidates) {
		topN = len(candidates)
	}

	if p.reranker != nil {
		docs := make([]string, len(candidates))
		for i := range candidates {
			docs[i] = candidates[i].Entry.Text
		}
		ranked, err := p.reranker.Rerank(ctx, question, docs, topN)
		if err == nil && len(ranked) > 0 {
			selected := make([]Entry, 0, len(ranked))
			for _, idx := range ranked {
				if idx >= 0 && idx < len(candidates) {
					selected = append(selected, candidates[idx].Entry)
				}
			}
			if len(selected) > 0 {
				return selected
			}
		}
		if err != nil {
			log.Printf("reranking failed, using similarity order: %v", err)
		}
	}

	selected := make([]Entry, 0, topN)
	for _, c := range candidates[:topN] {
		selected = append(selected, c.Entry)
	}
	return selected
}

func buildPrompt(chunks []Entry, history []Exchange, question string) string {
	var b strings.Builder

	b.WriteString("You are a helpful customer support assistant. Use the provided context to answer the customer's question accurately and professionally.\n\n")

	b.WriteString("Context from business documents:\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Text)
	}

	b.WriteString("\n\nPrevious conversation:\n")
	b.WriteString(formatHistory(history))

	b.WriteString("\n\nCustomer Question: ")
	b.WriteString(question)

	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Answer based primarily on the provided context\n")
	b.WriteString("- Be friendly, professional, and helpful\n")
	b.WriteString("- If the information isn't in the context, politely say so and offer to help with other questions\n")
	b.WriteString("- Keep responses concise but complete\n")
	b.WriteString("- Use a conversational tone appropriate for customer support\n")

	b.WriteString("\nAnswer:")
	return b.String()
}

func formatHistory(history []Exchange) string {
	if len(history) == 0 {
		return "No previous conversation"
	}
	if len(history) > historyInPrompt {
		history = history[len(history)-historyInPrompt:]
	}
	var lines []string
	for i, ex := range history {
		lines = append(lines, fmt.Sprintf("Q%d: %s", i+1, ex.Question))
		lines = append(lines, fmt.Sprintf("A%d: %s", i+1, ex.Answer))
	}
	return strings.Join(lines, "\n")
}
