package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carely/internal/model"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *model.Company) error {
	if err := r.db.Create(company).Error; err != nil {
		return fmt.Errorf("create company failed: %w", err)
	}
	return nil
}

func (r *CompanyRepository) GetByName(name string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("name = ?", name).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by name failed: %w", err)
	}
	return &company, nil
}

func (r *CompanyRepository) GetByEmail(email string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("email = ?", email).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by email failed: %w", err)
	}
	return &company, nil
}

func (r *CompanyRepository) GetByID(id uint) (*model.Company, error) {
	var company model.Company
	if err := r.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by id failed: %w", err)
	}
	return &company, nil
}
