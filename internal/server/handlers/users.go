package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/session"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// defaultRoleID роль user, назначается при регистрации без role_id
const defaultRoleID = 1

// SessionService is the part of session.Manager used by handlers
type SessionService interface {
	Login(ctx context.Context, phoneNumber, password string) (string, error)
	UserFromToken(ctx context.Context, token string) (*models.User, error)
	AddSession(ctx context.Context, user *models.User, accessToken string, isMobile bool) (*models.Session, error)
	RefreshByToken(ctx context.Context, refreshToken string) (*models.Session, *models.User, error)
	Logout(ctx context.Context, refreshToken string, user *models.User) error
}

// PasswordHasher хеширует пароли при регистрации и смене пароля
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// UserHandler обрабатывает регистрацию, вход и профиль пользователя
type UserHandler struct {
	base
	users     storage.UserStorage
	sessions  SessionService
	passwords PasswordHasher
	now       func() time.Time
}

// NewUserHandler создает новый handler для пользователей
func NewUserHandler(
	logger *slog.Logger,
	validate *validation.Validator,
	users storage.UserStorage,
	sessions SessionService,
	passwords PasswordHasher,
) *UserHandler {
	return &UserHandler{
		base:      base{logger: logger, validate: validate},
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		now:       time.Now,
	}
}

// Register обрабатывает POST /api/v1/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	linked := req.FacebookAccountID != 0 || req.GoogleAccountID != 0
	if !linked && req.Password == "" {
		h.sendError(w, "password is required", http.StatusBadRequest)
		return
	}

	roleID := req.RoleID
	if roleID == 0 {
		roleID = defaultRoleID
	}
	role, err := h.users.GetRole(ctx, roleID)
	if err != nil {
		h.storageError(ctx, w, err, "get role")
		return
	}
	if role.Name == models.RoleAdmin {
		h.logger.WarnContext(ctx, "attempt to register admin account")
		h.sendError(w, "registering an admin account is not allowed", http.StatusForbidden)
		return
	}

	exists, err := h.users.ExistsByPhoneNumber(ctx, req.PhoneNumber)
	if err != nil {
		h.storageError(ctx, w, err, "check phone number")
		return
	}
	if exists {
		h.sendError(w, "phone number already exists", http.StatusConflict)
		return
	}

	active := 1
	now := h.now()
	user := &models.User{
		FullName:          req.FullName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
		Active:            &active,
		FacebookAccountID: req.FacebookAccountID,
		GoogleAccountID:   req.GoogleAccountID,
		Role:              *role,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.DateOfBirth != nil && !req.DateOfBirth.IsZero() {
		dob := req.DateOfBirth.Time
		user.DateOfBirth = &dob
	}

	// для аккаунтов facebook/google пароль не обязателен
	if req.Password != "" {
		user.PasswordHash, err = h.passwords.Hash(req.Password)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.sendError(w, "phone number already exists", http.StatusConflict)
			return
		}
		h.storageError(ctx, w, err, "create user")
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully", slog.Int64("user_id", user.ID))

	h.sendJSON(w, api.RegisterResponse{
		Message: "User registered successfully",
		User:    toUserResponse(user),
	}, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/users/login.
// Токен из Login регистрируется в реестре сессий с учетом лимита на пользователя.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.sessions.Login(ctx, req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrBadCredentials) {
			h.logger.WarnContext(ctx, "login failed", slog.Any("error", err))
			h.sendError(w, session.ErrBadCredentials.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to login", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.sessions.UserFromToken(ctx, token)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve user from fresh token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sess, err := h.sessions.AddSession(ctx, user, token, isMobileAgent(r.UserAgent()))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add session", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, toLoginResponse("Login successfully", user, sess), http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/users/refresh
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, user, err := h.sessions.RefreshByToken(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			h.sendError(w, "invalid refresh token", http.StatusUnauthorized)
		case errors.Is(err, session.ErrPermissionDenied):
			h.sendError(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.ErrorContext(ctx, "failed to refresh token", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, toLoginResponse("Refresh token successfully", user, sess), http.StatusOK)
}

// Logout обрабатывает POST /api/v1/users/logout.
// Сессия помечается отозванной, access token действует до истечения.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.LogoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sessions.Logout(ctx, req.RefreshToken, user); err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			h.sendError(w, "invalid refresh token", http.StatusUnauthorized)
		case errors.Is(err, session.ErrPermissionDenied):
			h.sendError(w, "session belongs to another user", http.StatusForbidden)
		default:
			h.logger.ErrorContext(ctx, "failed to logout", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// Details обрабатывает GET /api/v1/users/details
func (h *UserHandler) Details(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusOK)
}

// UpdateDetails обрабатывает PUT /api/v1/users/details/{id}.
// Изменять профиль может только его владелец.
func (h *UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if caller.ID != id {
		h.sendError(w, "cannot update another user's details", http.StatusForbidden)
		return
	}

	var req api.UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := *caller
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.DateOfBirth != nil && !req.DateOfBirth.IsZero() {
		dob := req.DateOfBirth.Time
		user.DateOfBirth = &dob
	}
	if req.FacebookAccountID != nil {
		user.FacebookAccountID = *req.FacebookAccountID
	}
	if req.GoogleAccountID != nil {
		user.GoogleAccountID = *req.GoogleAccountID
	}

	if req.PhoneNumber != "" && req.PhoneNumber != user.PhoneNumber {
		exists, err := h.users.ExistsByPhoneNumber(ctx, req.PhoneNumber)
		if err != nil {
			h.storageError(ctx, w, err, "check phone number")
			return
		}
		if exists {
			h.sendError(w, "phone number already exists", http.StatusConflict)
			return
		}
		user.PhoneNumber = req.PhoneNumber
	}

	if req.Password != "" {
		user.PasswordHash, err = h.passwords.Hash(req.Password)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}
	user.UpdatedAt = h.now()

	if err := h.users.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.sendError(w, "phone number already exists", http.StatusConflict)
			return
		}
		h.storageError(ctx, w, err, "update user")
		return
	}

	h.logger.InfoContext(ctx, "user details updated", slog.Int64("user_id", user.ID))

	h.sendJSON(w, toUserResponse(&user), http.StatusOK)
}

// isMobileAgent определяет мобильного клиента по User-Agent
func isMobileAgent(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "mobile")
}

func toUserResponse(user *models.User) api.UserResponse {
	resp := api.UserResponse{
		FullName:          user.FullName,
		PhoneNumber:       user.PhoneNumber,
		Address:           user.Address,
		Role:              user.Role.Name,
		ID:                user.ID,
		FacebookAccountID: user.FacebookAccountID,
		GoogleAccountID:   user.GoogleAccountID,
		RoleID:            user.Role.ID,
		Active:            !user.IsDeactivated(),
	}
	if user.DateOfBirth != nil {
		dob := api.NewDate(*user.DateOfBirth)
		resp.DateOfBirth = &dob
	}
	return resp
}

func toLoginResponse(message string, user *models.User, sess *models.Session) api.LoginResponse {
	return api.LoginResponse{
		Message:               message,
		Token:                 sess.Token,
		RefreshToken:          sess.RefreshToken,
		TokenType:             sess.TokenType,
		Username:              user.PhoneNumber,
		Roles:                 []string{user.Role.Name},
		ExpiresAt:             sess.ExpirationDate.Unix(),
		RefreshTokenExpiresAt: sess.RefreshExpirationDate.Unix(),
		ID:                    user.ID,
	}
}
