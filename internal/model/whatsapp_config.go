package model

import "time"

// WhatsAppConfig links a Meta phone number to a company so the webhook can
// route inbound messages to the right tenant.
type WhatsAppConfig struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyID     uint      `gorm:"not null;uniqueIndex" json:"company_id"`
	PhoneNumberID string    `gorm:"size:64;not null;uniqueIndex" json:"phone_number_id"`
	AccessToken   string    `gorm:"size:512;not null" json:"-"`
	VerifyToken   string    `gorm:"size:128;not null;index" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
