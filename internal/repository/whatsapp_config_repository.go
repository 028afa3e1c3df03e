package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type WhatsAppConfigRepository struct {
	db *gorm.DB
}

func NewWhatsAppConfigRepository(db *gorm.DB) *WhatsAppConfigRepository {
	return &WhatsAppConfigRepository{db: db}
}

// Upsert saves the company's WhatsApp credentials, replacing any prior row.
func (r *WhatsAppConfigRepository) Upsert(cfg *model.WhatsAppConfig) error {
	var existing model.WhatsAppConfig
	err := r.db.Where("company_id = ?", cfg.CompanyID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.Create(cfg).Error; err != nil {
			return fmt.Errorf("create whatsapp config failed: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query whatsapp config failed: %w", err)
	default:
		cfg.ID = existing.ID
		if err := r.db.Save(cfg).Error; err != nil {
			return fmt.Errorf("update whatsapp config failed: %w", err)
		}
		return nil
	}
}

func (r *WhatsAppConfigRepository) GetByCompany(companyID uint) (*model.WhatsAppConfig, error) {
	var cfg model.WhatsAppConfig
	if err := r.db.Where("company_id = ?", companyID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query whatsapp config failed: %w", err)
	}
	return &cfg, nil
}

func (r *WhatsAppConfigRepository) GetByPhoneNumberID(phoneNumberID string) (*model.WhatsAppConfig, error) {
	var cfg model.WhatsAppConfig
	if err := r.db.Where("phone_number_id = ?", phoneNumberID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query whatsapp config by phone failed: %w", err)
	}
	return &cfg, nil
}

func (r *WhatsAppConfigRepository) ExistsByVerifyToken(token string) (bool, error) {
	var count int64
	err := r.db.Model(&model.WhatsAppConfig{}).Where("verify_token = ?", token).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query verify token failed: %w", err)
	}
	return count > 0, nil
}
