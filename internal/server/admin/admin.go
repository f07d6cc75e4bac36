// Package admin bootstraps administrator accounts from the command line.
// Admins cannot register over HTTP.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/shopapp/internal/iocli"
	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
)

// RoleID идентификатор роли admin из начальной миграции
const RoleID = 2

// ErrPasswordMismatch пароль и подтверждение не совпадают
var ErrPasswordMismatch = errors.New("passwords do not match")

// PasswordHasher хеширует пароль администратора
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Account данные администратора, пустые поля запрашиваются у оператора
type Account struct {
	PhoneNumber string
	FullName    string
}

// Create запрашивает недостающие данные и пароль и сохраняет администратора
func Create(ctx context.Context, prompt iocli.IO, users storage.UserStorage, hasher PasswordHasher, acc Account) (*models.User, error) {
	var err error

	if acc.PhoneNumber == "" {
		if acc.PhoneNumber, err = prompt.ReadInput("Phone number: "); err != nil {
			return nil, fmt.Errorf("failed to read phone number: %w", err)
		}
	}
	if err := validation.ValidatePhoneNumber(acc.PhoneNumber); err != nil {
		return nil, err
	}

	if acc.FullName == "" {
		if acc.FullName, err = prompt.ReadInput("Full name: "); err != nil {
			return nil, fmt.Errorf("failed to read full name: %w", err)
		}
	}

	password, err := prompt.ReadPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	retype, err := prompt.ReadPassword("Retype password: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if password != retype {
		return nil, ErrPasswordMismatch
	}

	role, err := users.GetRole(ctx, RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin role: %w", err)
	}
	if role.Name != models.RoleAdmin {
		return nil, fmt.Errorf("role %d is %q, expected %q", RoleID, role.Name, models.RoleAdmin)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	active := 1
	now := time.Now()
	user := &models.User{
		FullName:     acc.FullName,
		PhoneNumber:  acc.PhoneNumber,
		PasswordHash: hash,
		Active:       &active,
		Role:         *role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	prompt.Printf("Admin %s created with id %d\n", user.PhoneNumber, user.ID)

	return user, nil
}
