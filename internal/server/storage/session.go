package storage

import (
	"context"

	"github.com/iudanet/shopapp/internal/models"
)

// SessionStorage defines interface for the token ledger
type SessionStorage interface {
	// GetUserSessions retrieves all sessions for a user in insertion order
	// Returns empty slice if no sessions found
	GetUserSessions(ctx context.Context, userID int64) ([]*models.Session, error)

	// GetSessionByRefreshToken retrieves session by refresh token value
	// Returns ErrSessionNotFound if session doesn't exist
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)

	// SaveSession inserts a new session (ID == 0) or overwrites an existing one in place
	SaveSession(ctx context.Context, session *models.Session) error

	// DeleteSession deletes session by ID
	// Returns ErrSessionNotFound if session doesn't exist
	DeleteSession(ctx context.Context, sessionID int64) error
}
