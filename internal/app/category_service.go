package app

import (
	"context"
	"fmt"
	"strings"

	"carely/internal/model"
)

// CategoryStore is the taxonomy persistence the service needs.
type CategoryStore interface {
	Create(category *model.Category) error
	CreateBatch(categories []model.Category) error
	ListByCompany(companyID uint) ([]model.Category, error)
	GetByIDAndCompany(id, companyID uint) (*model.Category, error)
	DeleteByIDAndCompany(id, companyID uint) error
}

// CategoryService manages a tenant's conversation taxonomy.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, companyID uint, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if companyID == 0 || name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.store.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}

	cat := &model.Category{CompanyID: companyID, Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.Create(cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

// Replace swaps the company's whole taxonomy for the given set, keeping only
// non-empty unique names.
func (s *CategoryService) Replace(ctx context.Context, companyID uint, cats []model.Category) ([]model.Category, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}

	existing, err := s.store.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range existing {
		if err := s.store.DeleteByIDAndCompany(c.ID, companyID); err != nil {
			return nil, fmt.Errorf("clear categories: %w", err)
		}
	}

	seen := make(map[string]struct{})
	keep := make([]model.Category, 0, len(cats))
	for _, c := range cats {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, model.Category{
			CompanyID:   companyID,
			Name:        name,
			Description: strings.TrimSpace(c.Description),
		})
	}
	if len(keep) == 0 {
		return nil, nil
	}
	if err := s.store.CreateBatch(keep); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	return keep, nil
}

func (s *CategoryService) List(ctx context.Context, companyID uint) ([]model.Category, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	return s.store.ListByCompany(companyID)
}

func (s *CategoryService) Delete(ctx context.Context, companyID, categoryID uint) error {
	if companyID == 0 || categoryID == 0 {
		return ErrInvalidInput
	}
	cat, err := s.store.GetByIDAndCompany(categoryID, companyID)
	if err != nil {
		return fmt.Errorf("look up category: %w", err)
	}
	if cat == nil {
		return ErrCategoryNotFound
	}
	return s.store.DeleteByIDAndCompany(categoryID, companyID)
}
