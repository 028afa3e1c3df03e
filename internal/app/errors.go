package app

import "errors"

// Sentinel errors shared by the service layer. Handlers map these to
// response codes; anything else is treated as an internal failure.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCompanyExists      = errors.New("company already registered")
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrCategoryNotFound   = errors.New("category not found")
)
