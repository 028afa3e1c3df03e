package model

import "time"

// Exchange is one question/answer pair of a tenant's support conversation.
// The response time rides along with the pair so truncating the history
// truncates both together.
type Exchange struct {
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	ResponseTime float64   `json:"response_time"`
	AskedAt      time.Time `json:"asked_at"`
}
