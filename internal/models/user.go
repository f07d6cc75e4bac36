package models

import "time"

// Имена ролей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Role представляет роль пользователя
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // "user" или "admin"
}

// User представляет пользователя магазина
type User struct {
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Active            *int       `json:"is_active,omitempty"` // nil или 1 - активен, 0 - заблокирован
	FullName          string     `json:"fullname"`
	PhoneNumber       string     `json:"phone_number"` // уникальный, используется как логин
	Address           string     `json:"address"`
	PasswordHash      string     `json:"-"` // пустой для аккаунтов через facebook/google
	Role              Role       `json:"role"`
	ID                int64      `json:"id"`
	FacebookAccountID int64      `json:"facebook_account_id"`
	GoogleAccountID   int64      `json:"google_account_id"`
}

// IsDeactivated сообщает, что флаг active явно выставлен в 0
func (u *User) IsDeactivated() bool {
	return u.Active != nil && *u.Active == 0
}

// HasLinkedAccount сообщает, привязан ли аккаунт к facebook или google.
// Для таких аккаунтов пароль не проверяется.
func (u *User) HasLinkedAccount() bool {
	return u.FacebookAccountID != 0 || u.GoogleAccountID != 0
}

// IsAdmin проверяет роль администратора
func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}

// Session представляет запись о выданной паре токенов (таблица tokens)
type Session struct {
	ExpirationDate        time.Time `json:"expiration_date"`         // истечение access token
	RefreshExpirationDate time.Time `json:"refresh_expiration_date"` // истечение refresh token
	CreatedAt             time.Time `json:"created_at"`
	Token                 string    `json:"token"`         // access token (JWT)
	TokenType             string    `json:"token_type"`    // всегда "Bearer"
	RefreshToken          string    `json:"refresh_token"` // случайная уникальная строка
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user_id"`
	Revoked               bool      `json:"revoked"`
	Expired               bool      `json:"expired"`
	IsMobile              bool      `json:"is_mobile"`
}
