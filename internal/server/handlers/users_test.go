package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/session"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// mockUserStorage is a mock implementation of storage.UserStorage
type mockUserStorage struct {
	users  map[string]*models.User
	roles  map[int64]*models.Role
	nextID int64
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{
		users: make(map[string]*models.User),
		roles: map[int64]*models.Role{
			1: {ID: 1, Name: models.RoleUser},
			2: {ID: 2, Name: models.RoleAdmin},
		},
	}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.PhoneNumber]; ok {
		return storage.ErrUserAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.PhoneNumber] = user
	return nil
}

func (m *mockUserStorage) GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error) {
	user, ok := m.users[phoneNumber]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	_, ok := m.users[phoneNumber]
	return ok, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	for phone, u := range m.users {
		if u.ID == user.ID {
			delete(m.users, phone)
			m.users[user.PhoneNumber] = user
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (m *mockUserStorage) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	role, ok := m.roles[roleID]
	if !ok {
		return nil, storage.ErrRoleNotFound
	}
	return role, nil
}

// mockSessions is a mock implementation of SessionService
type mockSessions struct {
	loginErr   error
	refreshErr error
	logoutErr  error
	user       *models.User
	isMobile   *bool
}

func (m *mockSessions) Login(ctx context.Context, phoneNumber, password string) (string, error) {
	if m.loginErr != nil {
		return "", m.loginErr
	}
	return "access-" + phoneNumber, nil
}

func (m *mockSessions) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	return m.user, nil
}

func (m *mockSessions) AddSession(ctx context.Context, user *models.User, accessToken string, isMobile bool) (*models.Session, error) {
	m.isMobile = &isMobile
	return testSession(user, accessToken), nil
}

func (m *mockSessions) RefreshByToken(ctx context.Context, refreshToken string) (*models.Session, *models.User, error) {
	if m.refreshErr != nil {
		return nil, nil, m.refreshErr
	}
	return testSession(m.user, "rotated"), m.user, nil
}

func (m *mockSessions) Logout(ctx context.Context, refreshToken string, user *models.User) error {
	return m.logoutErr
}

func testSession(user *models.User, token string) *models.Session {
	now := time.Now()
	return &models.Session{
		Token:                 token,
		TokenType:             "Bearer",
		RefreshToken:          "refresh-" + token,
		ExpirationDate:        now.Add(time.Hour),
		RefreshExpirationDate: now.Add(24 * time.Hour),
		UserID:                user.ID,
	}
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func testUser() *models.User {
	return &models.User{
		ID:          7,
		FullName:    "Test User",
		PhoneNumber: "0912345678",
		Role:        models.Role{ID: 1, Name: models.RoleUser},
	}
}

func setupUserHandler(sessions *mockSessions) (*UserHandler, *mockUserStorage) {
	users := newMockUserStorage()
	return NewUserHandler(setupTestLogger(), validation.New(), users, sessions, plainHasher{}), users
}

func TestUserHandler_Register(t *testing.T) {
	tests := []struct {
		name            string
		req             api.RegisterRequest
		existing        bool
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "successful registration",
			req: api.RegisterRequest{
				FullName: "New User", PhoneNumber: "0987654321",
				Password: "secret1", RetypePassword: "secret1",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "linked account without password",
			req: api.RegisterRequest{
				FullName: "Google User", PhoneNumber: "0987654322", GoogleAccountID: 42,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:            "password required",
			req:             api.RegisterRequest{PhoneNumber: "0987654321"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "password is required",
		},
		{
			name: "passwords do not match",
			req: api.RegisterRequest{
				PhoneNumber: "0987654321", Password: "secret1", RetypePassword: "secret2",
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "retype_password must match password",
		},
		{
			name: "admin role rejected",
			req: api.RegisterRequest{
				PhoneNumber: "0987654321", Password: "secret1", RetypePassword: "secret1", RoleID: 2,
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unknown role",
			req: api.RegisterRequest{
				PhoneNumber: "0987654321", Password: "secret1", RetypePassword: "secret1", RoleID: 9,
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "duplicate phone number",
			req: api.RegisterRequest{
				PhoneNumber: "0912345678", Password: "secret1", RetypePassword: "secret1",
			},
			existing:        true,
			expectedStatus:  http.StatusConflict,
			expectedMessage: "phone number already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, users := setupUserHandler(&mockSessions{})
			if tt.existing {
				require.NoError(t, users.CreateUser(context.Background(), testUser()))
			}

			w := httptest.NewRecorder()
			h.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/users/register", tt.req, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decodeErrorResponse(t, w).Message)
			}
			if tt.expectedStatus == http.StatusCreated {
				var resp api.RegisterResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.req.PhoneNumber, resp.User.PhoneNumber)
				assert.Equal(t, models.RoleUser, resp.User.Role)

				stored, err := users.GetUserByPhoneNumber(context.Background(), tt.req.PhoneNumber)
				require.NoError(t, err)
				if tt.req.Password != "" {
					assert.Equal(t, "hashed:"+tt.req.Password, stored.PasswordHash)
				} else {
					assert.Empty(t, stored.PasswordHash)
				}
			}
		})
	}
}

func TestUserHandler_Login(t *testing.T) {
	tests := []struct {
		name             string
		userAgent        string
		loginErr         error
		expectedStatus   int
		expectedIsMobile bool
	}{
		{name: "desktop client", userAgent: "Mozilla/5.0 (X11; Linux x86_64)", expectedStatus: http.StatusOK},
		{name: "mobile client", userAgent: "Mozilla/5.0 (iPhone) Mobile/15E148", expectedStatus: http.StatusOK, expectedIsMobile: true},
		{name: "unknown phone", loginErr: fmt.Errorf("%w: user", session.ErrNotFound), expectedStatus: http.StatusUnauthorized},
		{name: "wrong password", loginErr: session.ErrBadCredentials, expectedStatus: http.StatusUnauthorized},
		{name: "storage failure", loginErr: errors.New("database is locked"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessions{loginErr: tt.loginErr, user: testUser()}
			h, _ := setupUserHandler(sessions)

			req := jsonRequest(t, http.MethodPost, "/api/v1/users/login",
				api.LoginRequest{PhoneNumber: "0912345678", Password: "secret1"}, nil)
			req.Header.Set("User-Agent", tt.userAgent)
			w := httptest.NewRecorder()
			h.Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Nil(t, sessions.isMobile)
				if tt.expectedStatus == http.StatusUnauthorized {
					assert.Equal(t, session.ErrBadCredentials.Error(), decodeErrorResponse(t, w).Message)
				}
				return
			}

			require.NotNil(t, sessions.isMobile)
			assert.Equal(t, tt.expectedIsMobile, *sessions.isMobile)

			var resp api.LoginResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "access-0912345678", resp.Token)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.Equal(t, "0912345678", resp.Username)
			assert.Equal(t, []string{models.RoleUser}, resp.Roles)
			assert.NotEmpty(t, resp.RefreshToken)
		})
	}
}

func TestUserHandler_Refresh_Errors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "unknown token", err: session.ErrNotFound, expectedStatus: http.StatusUnauthorized},
		{name: "revoked token", err: session.ErrRevoked, expectedStatus: http.StatusForbidden},
		{name: "deactivated user", err: session.ErrPermissionDenied, expectedStatus: http.StatusForbidden},
		{name: "storage failure", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupUserHandler(&mockSessions{refreshErr: tt.err, user: testUser()})

			w := httptest.NewRecorder()
			h.Refresh(w, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh",
				api.RefreshTokenRequest{RefreshToken: "some-token"}, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestUserHandler_Refresh_Success(t *testing.T) {
	h, _ := setupUserHandler(&mockSessions{user: testUser()})

	w := httptest.NewRecorder()
	h.Refresh(w, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh",
		api.RefreshTokenRequest{RefreshToken: "some-token"}, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "rotated", resp.Token)
	assert.Equal(t, int64(7), resp.ID)
}

func TestUserHandler_Logout(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		err            error
		expectedStatus int
	}{
		{name: "success", user: testUser(), expectedStatus: http.StatusOK},
		{name: "no user in context", expectedStatus: http.StatusUnauthorized},
		{name: "unknown refresh token", user: testUser(), err: session.ErrNotFound, expectedStatus: http.StatusUnauthorized},
		{name: "foreign session", user: testUser(), err: session.ErrPermissionDenied, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupUserHandler(&mockSessions{logoutErr: tt.err})

			w := httptest.NewRecorder()
			h.Logout(w, jsonRequest(t, http.MethodPost, "/api/v1/users/logout",
				api.LogoutRequest{RefreshToken: "some-token"}, tt.user))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestUserHandler_UpdateDetails(t *testing.T) {
	newUpdateRequest := func(t *testing.T, id string, body api.UpdateUserRequest, user *models.User) *http.Request {
		req := jsonRequest(t, http.MethodPut, "/api/v1/users/details/"+id, body, user)
		req.SetPathValue("id", id)
		return req
	}

	t.Run("owner updates profile and password", func(t *testing.T) {
		h, users := setupUserHandler(&mockSessions{})
		user := testUser()
		require.NoError(t, users.CreateUser(context.Background(), user))

		w := httptest.NewRecorder()
		h.UpdateDetails(w, newUpdateRequest(t, fmt.Sprint(user.ID), api.UpdateUserRequest{
			FullName: "Renamed", Password: "newpass", RetypePassword: "newpass",
		}, user))

		require.Equal(t, http.StatusOK, w.Code)
		stored, err := users.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.FullName)
		assert.Equal(t, "hashed:newpass", stored.PasswordHash)
	})

	t.Run("another user's profile", func(t *testing.T) {
		h, _ := setupUserHandler(&mockSessions{})

		w := httptest.NewRecorder()
		h.UpdateDetails(w, newUpdateRequest(t, "99", api.UpdateUserRequest{FullName: "x"}, testUser()))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("phone number taken", func(t *testing.T) {
		h, users := setupUserHandler(&mockSessions{})
		user := testUser()
		require.NoError(t, users.CreateUser(context.Background(), user))
		require.NoError(t, users.CreateUser(context.Background(), &models.User{PhoneNumber: "0987654321"}))

		w := httptest.NewRecorder()
		h.UpdateDetails(w, newUpdateRequest(t, fmt.Sprint(user.ID),
			api.UpdateUserRequest{PhoneNumber: "0987654321"}, user))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestIsMobileAgent(t *testing.T) {
	assert.True(t, isMobileAgent("Mozilla/5.0 (Linux; Android 14) Mobile Safari/537.36"))
	assert.True(t, isMobileAgent("okhttp MOBILE"))
	assert.False(t, isMobileAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64)"))
	assert.False(t, isMobileAgent(""))
}
