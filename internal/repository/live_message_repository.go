package repository

import (
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type LiveMessageRepository struct {
	db *gorm.DB
}

func NewLiveMessageRepository(db *gorm.DB) *LiveMessageRepository {
	return &LiveMessageRepository{db: db}
}

func (r *LiveMessageRepository) Create(msg *model.LiveMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("create live message failed: %w", err)
	}
	return nil
}

func (r *LiveMessageRepository) ListByCompany(companyID uint, limit int) ([]model.LiveMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []model.LiveMessage
	err := r.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list live messages failed: %w", err)
	}
	return messages, nil
}

// CategoryStat is one row of the dashboard's per-category aggregation.
type CategoryStat struct {
	Category     string  `json:"category"`
	MessageCount int64   `json:"message_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// CategoryStats aggregates classified customer messages per category.
func (r *LiveMessageRepository) CategoryStats(companyID uint) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.db.Model(&model.LiveMessage{}).
		Select("category AS category, COUNT(*) AS message_count, AVG(sentiment_score) AS avg_sentiment").
		Where("company_id = ? AND category IS NOT NULL", companyID).
		Group("category").
		Order("message_count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate category stats failed: %w", err)
	}
	return stats, nil
}

func (r *LiveMessageRepository) DeleteByCompany(companyID uint) error {
	if err := r.db.Where("company_id = ?", companyID).Delete(&model.LiveMessage{}).Error; err != nil {
		return fmt.Errorf("delete live messages by company failed: %w", err)
	}
	return nil
}
