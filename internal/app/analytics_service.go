package app

import (
	"context"

	"carely/internal/model"
	"carely/internal/repository"
)

const defaultMessageLimit = 100

// LiveMessageStore is the persisted-message view the dashboard needs.
type LiveMessageStore interface {
	ListByCompany(companyID uint, limit int) ([]model.LiveMessage, error)
	CategoryStats(companyID uint) ([]repository.CategoryStat, error)
	DeleteByCompany(companyID uint) error
}

// DashboardStats is the analytics overview of a company's support traffic.
type DashboardStats struct {
	TotalMessages    int                       `json:"total_messages"`
	AverageSentiment float64                   `json:"average_sentiment"`
	TopCategory      string                    `json:"top_category"`
	Categories       []repository.CategoryStat `json:"categories"`
}

// AnalyticsService aggregates the persisted WhatsApp traffic for the tenant
// dashboard.
type AnalyticsService struct {
	messages LiveMessageStore
}

func NewAnalyticsService(messages LiveMessageStore) *AnalyticsService {
	return &AnalyticsService{messages: messages}
}

func (s *AnalyticsService) RecentMessages(ctx context.Context, companyID uint, limit int) ([]model.LiveMessage, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}
	return s.messages.ListByCompany(companyID, limit)
}

func (s *AnalyticsService) Dashboard(ctx context.Context, companyID uint) (*DashboardStats, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	stats, err := s.messages.CategoryStats(companyID)
	if err != nil {
		return nil, err
	}

	out := &DashboardStats{Categories: stats}
	var (
		weighted float64
		top      int64
	)
	for _, st := range stats {
		out.TotalMessages += int(st.MessageCount)
		weighted += st.AvgSentiment * float64(st.MessageCount)
		if st.MessageCount > top {
			top = st.MessageCount
			out.TopCategory = st.Category
		}
	}
	if out.TotalMessages > 0 {
		out.AverageSentiment = weighted / float64(out.TotalMessages)
	}
	return out, nil
}

// PurgeCompany drops the persisted message log, used by account wipes.
func (s *AnalyticsService) PurgeCompany(ctx context.Context, companyID uint) error {
	if companyID == 0 {
		return ErrInvalidInput
	}
	return s.messages.DeleteByCompany(companyID)
}
