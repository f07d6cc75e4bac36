package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
)

const sessionColumns = `
	id, user_id, token, token_type, expiration_date, refresh_token,
	refresh_expiration_date, revoked, expired, is_mobile, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetUserSessions returns all sessions of the user, oldest first
func (s *Storage) GetUserSessions(ctx context.Context, userID int64) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM tokens WHERE user_id = ? ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// GetSessionByRefreshToken retrieves session by its refresh token value
func (s *Storage) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM tokens WHERE refresh_token = ?`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, err
	}

	return session, nil
}

// SaveSession inserts a new session (ID == 0) or overwrites an existing one in place
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	if session.ID == 0 {
		return s.insertSession(ctx, session)
	}

	query := `
		UPDATE tokens
		SET token = ?, token_type = ?, expiration_date = ?, refresh_token = ?,
			refresh_expiration_date = ?, revoked = ?, expired = ?, is_mobile = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		session.Token,
		session.TokenType,
		session.ExpirationDate.UTC(),
		session.RefreshToken,
		session.RefreshExpirationDate.UTC(),
		session.Revoked,
		session.Expired,
		session.IsMobile,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

func (s *Storage) insertSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO tokens (user_id, token, token_type, expiration_date, refresh_token,
			refresh_expiration_date, revoked, expired, is_mobile, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, query,
		session.UserID,
		session.Token,
		session.TokenType,
		session.ExpirationDate.UTC(),
		session.RefreshToken,
		session.RefreshExpirationDate.UTC(),
		session.Revoked,
		session.Expired,
		session.IsMobile,
		session.CreatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session id: %w", err)
	}
	session.ID = id

	return nil
}

// DeleteSession deletes session by ID
func (s *Storage) DeleteSession(ctx context.Context, sessionID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	session := &models.Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.TokenType,
		&session.ExpirationDate,
		&session.RefreshToken,
		&session.RefreshExpirationDate,
		&session.Revoked,
		&session.Expired,
		&session.IsMobile,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return session, nil
}
