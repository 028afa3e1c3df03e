package model

import "time"

// LiveMessage is one message of a WhatsApp customer conversation, persisted
// asynchronously by the worker. Category and sentiment are only set on
// customer messages; assistant replies carry nil for both.
type LiveMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CompanyID      uint      `gorm:"not null;index" json:"company_id"`
	CustomerPhone  string    `gorm:"size:32;not null;index" json:"customer_phone"`
	CustomerName   string    `gorm:"size:128" json:"customer_name"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	Category       *string   `gorm:"size:128" json:"category"`
	SentimentScore *float64  `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
}
