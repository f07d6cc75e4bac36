package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	DateOfBirth       *Date  `json:"date_of_birth,omitempty"`
	FullName          string `json:"fullname"`
	PhoneNumber       string `json:"phone_number" validate:"required,phone"`
	Address           string `json:"address" validate:"max=200"`
	Password          string `json:"password" validate:"omitempty,min=6"`
	RetypePassword    string `json:"retype_password" validate:"eqfield=Password"`
	FacebookAccountID int64  `json:"facebook_account_id"`
	GoogleAccountID   int64  `json:"google_account_id"`
	RoleID            int64  `json:"role_id"` // 0 - роль user
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password"`
}

// LoginResponse представляет ответ с парой токенов
type LoginResponse struct {
	Message               string   `json:"message"`
	Token                 string   `json:"token"`
	RefreshToken          string   `json:"refresh_token"`
	TokenType             string   `json:"token_type"`
	Username              string   `json:"username"` // номер телефона
	Roles                 []string `json:"roles"`
	ExpiresAt             int64    `json:"expires_at"`         // unix seconds
	RefreshTokenExpiresAt int64    `json:"refresh_expires_at"` // unix seconds
	ID                    int64    `json:"id"`
}

// RefreshTokenRequest представляет запрос на обновление токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest представляет запрос на выход из сессии
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateUserRequest представляет запрос на изменение профиля.
// Пустые поля не изменяются.
type UpdateUserRequest struct {
	DateOfBirth       *Date  `json:"date_of_birth,omitempty"`
	FacebookAccountID *int64 `json:"facebook_account_id,omitempty"`
	GoogleAccountID   *int64 `json:"google_account_id,omitempty"`
	FullName          string `json:"fullname"`
	PhoneNumber       string `json:"phone_number" validate:"omitempty,phone"`
	Address           string `json:"address" validate:"max=200"`
	Password          string `json:"password" validate:"omitempty,min=6"`
	RetypePassword    string `json:"retype_password" validate:"eqfield=Password"`
}

// UserResponse представляет данные пользователя
type UserResponse struct {
	DateOfBirth       *Date  `json:"date_of_birth"`
	FullName          string `json:"fullname"`
	PhoneNumber       string `json:"phone_number"`
	Address           string `json:"address"`
	Role              string `json:"role"`
	ID                int64  `json:"id"`
	FacebookAccountID int64  `json:"facebook_account_id"`
	GoogleAccountID   int64  `json:"google_account_id"`
	RoleID            int64  `json:"role_id"`
	Active            bool   `json:"is_active"`
}
