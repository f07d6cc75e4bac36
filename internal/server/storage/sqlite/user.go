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

const userColumns = `
	u.id, u.fullname, u.phone_number, u.address, u.password, u.is_active,
	u.date_of_birth, u.facebook_account_id, u.google_account_id,
	u.created_at, u.updated_at, r.id, r.name`

// CreateUser creates a new user in the storage and sets user.ID
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (fullname, phone_number, address, password, is_active, date_of_birth,
			facebook_account_id, google_account_id, role_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.FullName,
		user.PhoneNumber,
		user.Address,
		user.PasswordHash,
		nullInt(user.Active),
		nullTime(user.DateOfBirth),
		user.FacebookAccountID,
		user.GoogleAccountID,
		user.Role.ID,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrRoleNotFound
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByPhoneNumber retrieves user by phone number
func (s *Storage) GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.phone_number = ?
	`

	return scanUser(s.db.QueryRowContext(ctx, query, phoneNumber))
}

// ExistsByPhoneNumber reports whether an account with this phone number exists
func (s *Storage) ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone_number = ?)`, phoneNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check phone number: %w", err)
	}

	return exists, nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.id = ?
	`

	return scanUser(s.db.QueryRowContext(ctx, query, userID))
}

// UpdateUser updates user information
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET fullname = ?, phone_number = ?, address = ?, password = ?, is_active = ?,
			date_of_birth = ?, facebook_account_id = ?, google_account_id = ?, role_id = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.FullName,
		user.PhoneNumber,
		user.Address,
		user.PasswordHash,
		nullInt(user.Active),
		nullTime(user.DateOfBirth),
		user.FacebookAccountID,
		user.GoogleAccountID,
		user.Role.ID,
		user.UpdatedAt.UTC(),
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// GetRole retrieves role by ID
func (s *Storage) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	role := &models.Role{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = ?`, roleID).
		Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var (
		active      sql.NullInt64
		dateOfBirth sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.PhoneNumber,
		&user.Address,
		&user.PasswordHash,
		&active,
		&dateOfBirth,
		&user.FacebookAccountID,
		&user.GoogleAccountID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Role.ID,
		&user.Role.Name,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if active.Valid {
		v := int(active.Int64)
		user.Active = &v
	}
	if dateOfBirth.Valid {
		user.DateOfBirth = &dateOfBirth.Time
	}

	return user, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
