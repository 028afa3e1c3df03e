package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(category *model.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("create category failed: %w", err)
	}
	return nil
}

func (r *CategoryRepository) CreateBatch(categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := r.db.Create(&categories).Error; err != nil {
		return fmt.Errorf("create categories batch failed: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ListByCompany(companyID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Where("company_id = ?", companyID).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories failed: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByIDAndCompany(id, companyID uint) (*model.Category, error) {
	var category model.Category
	err := r.db.Where("id = ? AND company_id = ?", id, companyID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query category failed: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) DeleteByIDAndCompany(id, companyID uint) error {
	if err := r.db.Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Category{}).Error; err != nil {
		return fmt.Errorf("delete category failed: %w", err)
	}
	return nil
}
