package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this phone number already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrRoleNotFound indicates that role was not found
	ErrRoleNotFound = errors.New("role not found")

	// ErrSessionNotFound indicates that session (token row) was not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrCategoryNotFound indicates that category was not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryAlreadyExists indicates a duplicate category name
	ErrCategoryAlreadyExists = errors.New("category already exists")

	// ErrCategoryInUse indicates that category still has products
	ErrCategoryInUse = errors.New("category has products")

	// ErrProductNotFound indicates that product was not found
	ErrProductNotFound = errors.New("product not found")

	// ErrTooManyImages indicates that product already has the maximum number of images
	ErrTooManyImages = errors.New("too many product images")

	// ErrOrderNotFound indicates that order was not found
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderDetailNotFound indicates that order detail was not found
	ErrOrderDetailNotFound = errors.New("order detail not found")
)
