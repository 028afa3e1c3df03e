package repository

import (
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(&chunks, 100).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByCompany(companyID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.Where("company_id = ?", companyID).
		Order("document_id ASC, chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks by company failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) CountByCompany(companyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Chunk{}).Where("company_id = ?", companyID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return count, nil
}

// DeleteByDocument removes a document's chunks and reports how many rows went.
func (r *ChunkRepository) DeleteByDocument(documentID uint) (int64, error) {
	res := r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete chunks by document failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ChunkRepository) DeleteByCompany(companyID uint) error {
	if err := r.db.Where("company_id = ?", companyID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by company failed: %w", err)
	}
	return nil
}
