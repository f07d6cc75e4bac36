package storage

import (
	"context"

	"github.com/iudanet/shopapp/internal/models"
)

// UserStorage defines interface for user data persistence (credential store)
type UserStorage interface {
	// CreateUser creates a new user in the storage and sets user.ID
	// Returns ErrUserAlreadyExists if phone number is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByPhoneNumber retrieves user by phone number
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error)

	// ExistsByPhoneNumber reports whether a user with this phone number exists
	ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)

	// UpdateUser updates user information
	// Returns ErrUserNotFound if user doesn't exist
	UpdateUser(ctx context.Context, user *models.User) error

	// GetRole retrieves role by ID
	// Returns ErrRoleNotFound if role doesn't exist
	GetRole(ctx context.Context, roleID int64) (*models.Role, error)
}
