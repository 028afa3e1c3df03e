package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"carely/internal/model"
	"carely/internal/pkg/jwtutil"
	"carely/internal/repository"
)

type AuthService struct {
	companyRepo   *repository.CompanyRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Name     string
	Password string
}

type AuthResult struct {
	Token   string
	Company *model.Company
}

func NewAuthService(companyRepo *repository.CompanyRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		companyRepo:   companyRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if name == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.companyRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrCompanyExists
	}

	existingByEmail, err := s.companyRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrCompanyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	company := &model.Company{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, company.ID, company.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Company: company}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	password := strings.TrimSpace(input.Password)
	if name == "" || password == "" {
		return nil, ErrInvalidInput
	}

	company, err := s.companyRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, company.ID, company.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Company: company}, nil
}

func (s *AuthService) GetCompany(id uint) (*model.Company, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.companyRepo.GetByID(id)
}
