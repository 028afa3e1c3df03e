package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByCompanyAndPath(companyID uint, sourcePath string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("company_id = ? AND source_path = ?", companyID, sourcePath).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by path failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByIDAndCompany(id, companyID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ? AND company_id = ?", id, companyID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByCompany(companyID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("company_id = ?", companyID).Order("uploaded_at DESC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) MarkCompleted(id uint, totalPages, totalChunks int) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.DocumentStatusCompleted,
		"total_pages":   totalPages,
		"total_chunks":  totalChunks,
		"error_message": "",
	}).Error
	if err != nil {
		return fmt.Errorf("mark document completed failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MarkFailed(id uint, message string) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.DocumentStatusFailed,
		"error_message": message,
	}).Error
	if err != nil {
		return fmt.Errorf("mark document failed failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Document{}, id).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByCompany(companyID uint) error {
	if err := r.db.Where("company_id = ?", companyID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by company failed: %w", err)
	}
	return nil
}
