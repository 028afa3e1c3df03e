package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"carely/internal/model"
	"carely/internal/rag"
)

// CategoryLister exposes the category list a classifier chooses from.
type CategoryLister interface {
	ListByCompany(companyID uint) ([]model.Category, error)
}

// Classification is the outcome of labeling one customer message.
// SentimentScore runs from -1 (angry) to 1 (delighted).
type Classification struct {
	Category       string  `json:"category"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Uncategorized is the fallback label when classification cannot run or the
// model answer is unusable. Classification must never block message handling.
const Uncategorized = "Uncategorized"

// ClassifierService labels inbound customer messages with one of the
// company's categories plus a sentiment score, using the chat model.
type ClassifierService struct {
	llm        rag.Completer
	categories CategoryLister
}

func NewClassifierService(llm rag.Completer, categories CategoryLister) *ClassifierService {
	return &ClassifierService{llm: llm, categories: categories}
}

// Classify labels one message. It always returns a usable result; any
// failure along the way degrades to the Uncategorized label.
func (s *ClassifierService) Classify(ctx context.Context, companyID uint, message string) Classification {
	fallback := Classification{Category: Uncategorized, SentimentScore: 0.0}
	if strings.TrimSpace(message) == "" {
		return fallback
	}

	cats, err := s.categories.ListByCompany(companyID)
	if err != nil {
		log.Printf("company %d: list categories: %v", companyID, err)
		return fallback
	}
	if len(cats) == 0 {
		return fallback
	}

	raw, err := s.llm.Complete(ctx, classifyPrompt(cats, message))
	if err != nil {
		log.Printf("company %d: classify message: %v", companyID, err)
		return fallback
	}

	var parsed Classification
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		log.Printf("company %d: parse classification %q: %v", companyID, raw, err)
		return fallback
	}

	if !categoryExists(cats, parsed.Category) {
		parsed.Category = Uncategorized
	}
	if parsed.SentimentScore > 1 {
		parsed.SentimentScore = 1
	} else if parsed.SentimentScore < -1 {
		parsed.SentimentScore = -1
	}
	return parsed
}

// SuggestCategories asks the chat model for category ideas based on a sample
// of the company's documents.
func (s *ClassifierService) SuggestCategories(ctx context.Context, sample string, max int) ([]model.Category, error) {
	if strings.TrimSpace(sample) == "" {
		return nil, ErrInvalidInput
	}
	if max <= 0 {
		max = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following excerpt from a company's business documents, suggest up to %d support ticket categories a customer support team would use.\n\n", max)
	b.WriteString("Excerpt:\n")
	b.WriteString(sample)
	b.WriteString("\n\nRespond with ONLY a JSON array, no other text, in this exact form:\n")
	b.WriteString(`[{"name": "...", "description": "..."}]`)

	raw, err := s.llm.Complete(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("suggest categories: %w", err)
	}

	var suggestions []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("parse category suggestions: %w", err)
	}

	out := make([]model.Category, 0, len(suggestions))
	for _, sg := range suggestions {
		if strings.TrimSpace(sg.Name) == "" {
			continue
		}
		out = append(out, model.Category{Name: sg.Name, Description: sg.Description})
		if len(out) == max {
			break
		}
	}
	return out, nil
}

func classifyPrompt(cats []model.Category, message string) string {
	var b strings.Builder
	b.WriteString("Classify the customer message below into exactly one of these support categories:\n")
	for _, c := range cats {
		if c.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", c.Name)
		}
	}
	fmt.Fprintf(&b, "- %s (if no category fits)\n\n", Uncategorized)
	b.WriteString("Customer message: ")
	b.WriteString(message)
	b.WriteString("\n\nAlso rate the customer's sentiment from -1.0 (very negative) to 1.0 (very positive).\n")
	b.WriteString("Respond with ONLY a JSON object, no other text, in this exact form:\n")
	b.WriteString(`{"category": "...", "sentiment_score": 0.0}`)
	return b.String()
}

func categoryExists(cats []model.Category, name string) bool {
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// stripCodeFence unwraps answers the model insists on fencing as ```json.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
