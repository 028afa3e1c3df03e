package app

import (
	"context"
	"log"
	"strings"
	"time"

	"carely/internal/model"
	"carely/internal/rag"
)

// historyLimit bounds how many exchanges are retained per company.
const historyLimit = 10

// maxTopics caps the keyword summary of a conversation.
const maxTopics = 10

// HistoryStore is the bounded conversation memory the service needs.
type HistoryStore interface {
	Append(ctx context.Context, companyID uint, ex model.Exchange, keep int) error
	Recent(ctx context.Context, companyID uint, n int) ([]model.Exchange, error)
	Clear(ctx context.Context, companyID uint) error
}

type AskResult struct {
	Answer       string  `json:"answer"`
	ResponseTime float64 `json:"response_time"`
}

// ConversationSummary mirrors what a tenant dashboard shows about recent
// support traffic.
type ConversationSummary struct {
	TotalQuestions      int      `json:"total_questions"`
	AverageResponseTime float64  `json:"average_response_time"`
	TopicsDiscussed     []string `json:"topics_discussed"`
}

// ConversationService answers tenant questions through the retrieval
// pipeline and maintains the per-company conversation history.
type ConversationService struct {
	pipeline *rag.Pipeline
	history  HistoryStore
}

func NewConversationService(pipeline *rag.Pipeline, history HistoryStore) *ConversationService {
	return &ConversationService{pipeline: pipeline, history: history}
}

// Ask answers one question. The pipeline never surfaces raw errors, so the
// returned answer is always presentable; history problems are logged and do
// not block the answer.
func (s *ConversationService) Ask(ctx context.Context, companyID uint, question string) (*AskResult, error) {
	if companyID == 0 || strings.TrimSpace(question) == "" {
		return nil, ErrInvalidInput
	}

	recent, err := s.history.Recent(ctx, companyID, historyLimit)
	if err != nil {
		log.Printf("company %d: load history: %v", companyID, err)
		recent = nil
	}
	past := make([]rag.Exchange, len(recent))
	for i, ex := range recent {
		past[i] = rag.Exchange{Question: ex.Question, Answer: ex.Answer}
	}

	start := time.Now()
	answer := s.pipeline.Answer(ctx, companyID, question, past)
	elapsed := time.Since(start).Seconds()

	ex := model.Exchange{
		Question:     question,
		Answer:       answer,
		ResponseTime: elapsed,
		AskedAt:      time.Now(),
	}
	if err := s.history.Append(ctx, companyID, ex, historyLimit); err != nil {
		log.Printf("company %d: append history: %v", companyID, err)
	}

	return &AskResult{Answer: answer, ResponseTime: elapsed}, nil
}

// History returns up to historyLimit recent exchanges, oldest first.
func (s *ConversationService) History(ctx context.Context, companyID uint) ([]model.Exchange, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	return s.history.Recent(ctx, companyID, historyLimit)
}

// ClearHistory forgets the company's conversation memory.
func (s *ConversationService) ClearHistory(ctx context.Context, companyID uint) error {
	if companyID == 0 {
		return ErrInvalidInput
	}
	return s.history.Clear(ctx, companyID)
}

// Summary aggregates the retained history into dashboard metadata.
func (s *ConversationService) Summary(ctx context.Context, companyID uint) (*ConversationSummary, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	recent, err := s.history.Recent(ctx, companyID, historyLimit)
	if err != nil {
		return nil, err
	}

	sum := &ConversationSummary{
		TotalQuestions:  len(recent),
		TopicsDiscussed: extractTopics(recent),
	}
	if len(recent) > 0 {
		var total float64
		for _, ex := range recent {
			total += ex.ResponseTime
		}
		sum.AverageResponseTime = total / float64(len(recent))
	}
	return sum, nil
}

var topicStopWords = map[string]struct{}{
	"what": {}, "how": {}, "when": {}, "where": {}, "why": {},
	"the": {}, "is": {}, "can": {}, "does": {}, "please": {},
}

// extractTopics pulls distinctive keywords out of the retained questions,
// in first-seen order.
func extractTopics(history []model.Exchange) []string {
	var topics []string
	seen := make(map[string]struct{})
	for _, ex := range history {
		words := strings.Fields(strings.ReplaceAll(strings.ToLower(ex.Question), "?", ""))
		for _, w := range words {
			clean := strings.Trim(w, `.,!"`)
			if len(clean) <= 3 {
				continue
			}
			if _, stop := topicStopWords[clean]; stop {
				continue
			}
			if _, dup := seen[clean]; dup {
				continue
			}
			seen[clean] = struct{}{}
			topics = append(topics, clean)
			if len(topics) == maxTopics {
				return topics
			}
		}
	}
	return topics
}
