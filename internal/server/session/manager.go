// Package session issues, rotates and validates access/refresh token pairs
// and keeps the per-user token ledger within its cap.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/jwt"
	"github.com/iudanet/shopapp/internal/server/metrics"
	"github.com/iudanet/shopapp/internal/server/storage"
)

const (
	// DefaultMaxSessions лимит активных сессий на пользователя
	DefaultMaxSessions = 3

	// TokenTypeBearer тип токена в записи сессии
	TokenTypeBearer = "Bearer"
)

// PasswordVerifier checks a plaintext password against a stored hash
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

// Recorder receives session events, implemented by metrics.Metrics
type Recorder interface {
	LoginAttempt(result string)
	RefreshAttempt(result string)
	SessionEvicted()
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string)   {}
func (nopRecorder) RefreshAttempt(string) {}
func (nopRecorder) SessionEvicted()       {}

// Config управляет лимитом сессий и сериализацией логинов
type Config struct {
	MaxSessions int
	// SerializeLogins оборачивает addSession в мьютекс на пользователя.
	// По умолчанию выключено: параллельные логины могут превысить лимит.
	SerializeLogins bool
}

// Option configures Manager
type Option func(*Manager)

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithClock overrides time source, used in tests
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager orchestrates login, session registration, refresh and validation
type Manager struct {
	logger      *slog.Logger
	users       storage.UserStorage
	sessions    storage.SessionStorage
	signer      *jwt.Signer
	passwords   PasswordVerifier
	recorder    Recorder
	now         func() time.Time
	locks       *userLocks
	maxSessions int
}

// NewManager creates a new session manager
func NewManager(
	logger *slog.Logger,
	users storage.UserStorage,
	sessions storage.SessionStorage,
	signer *jwt.Signer,
	passwords PasswordVerifier,
	cfg Config,
	opts ...Option,
) *Manager {
	m := &Manager{
		logger:      logger,
		users:       users,
		sessions:    sessions,
		signer:      signer,
		passwords:   passwords,
		recorder:    nopRecorder{},
		now:         time.Now,
		maxSessions: cfg.MaxSessions,
	}
	if m.maxSessions <= 0 {
		m.maxSessions = DefaultMaxSessions
	}
	if cfg.SerializeLogins {
		m.locks = &userLocks{}
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// MaxSessions returns the per-user session cap
func (m *Manager) MaxSessions() int {
	return m.maxSessions
}

// Login verifies credentials and mints an access token for the phone number.
// The caller registers the token with AddSession.
func (m *Manager) Login(ctx context.Context, phoneNumber, password string) (string, error) {
	user, err := m.users.GetUserByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		m.recorder.LoginAttempt(metrics.ResultFailure)
		if errors.Is(err, storage.ErrUserNotFound) {
			m.logger.WarnContext(ctx, "login failed: user not found")
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	// Для аккаунтов facebook/google пароль не проверяется
	if !user.HasLinkedAccount() {
		ok, err := m.passwords.Verify(password, user.PasswordHash)
		if err != nil {
			m.logger.WarnContext(ctx, "login failed: unreadable password hash",
				slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
		if !ok {
			m.recorder.LoginAttempt(metrics.ResultFailure)
			m.logger.WarnContext(ctx, "login failed: invalid password", slog.Int64("user_id", user.ID))
			return "", ErrBadCredentials
		}
	}

	token, _, err := m.signer.GenerateAccessToken(user.PhoneNumber)
	if err != nil {
		m.recorder.LoginAttempt(metrics.ResultFailure)
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	m.recorder.LoginAttempt(metrics.ResultSuccess)
	m.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))

	return token, nil
}

// AddSession records a new session for the user. When the user already holds
// MaxSessions sessions, one is evicted first: the first non-mobile session,
// or the first session if all of them are mobile.
func (m *Manager) AddSession(ctx context.Context, user *models.User, accessToken string, isMobile bool) (*models.Session, error) {
	if m.locks != nil {
		unlock := m.locks.lock(user.ID)
		defer unlock()
	}

	existing, err := m.sessions.GetUserSessions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user sessions: %w", err)
	}

	if len(existing) >= m.maxSessions {
		victim := pickEviction(existing)
		if err := m.sessions.DeleteSession(ctx, victim.ID); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to evict session: %w", err)
		}
		m.recorder.SessionEvicted()
		m.logger.InfoContext(ctx, "session evicted",
			slog.Int64("user_id", user.ID),
			slog.Int64("session_id", victim.ID),
			slog.Bool("mobile", victim.IsMobile))
	}

	refreshToken, refreshExpiresAt, err := m.signer.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := m.now()
	session := &models.Session{
		UserID:                user.ID,
		Token:                 accessToken,
		TokenType:             TokenTypeBearer,
		ExpirationDate:        now.Add(m.signer.AccessTokenTTL()),
		RefreshToken:          refreshToken,
		RefreshExpirationDate: refreshExpiresAt,
		IsMobile:              isMobile,
		CreatedAt:             now,
	}

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// pickEviction returns the first non-mobile session, otherwise the first one
func pickEviction(sessions []*models.Session) *models.Session {
	for _, s := range sessions {
		if !s.IsMobile {
			return s
		}
	}
	return sessions[0]
}

// Refresh rotates both tokens of the session identified by refreshToken.
// The ledger row is updated in place.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, user *models.User) (*models.Session, error) {
	session, err := m.sessions.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := m.checkRefreshable(session, user); err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		m.logger.WarnContext(ctx, "refresh rejected",
			slog.Int64("user_id", user.ID),
			slog.Int64("session_id", session.ID),
			slog.Any("error", err))
		return nil, err
	}

	token, expiresAt, err := m.signer.GenerateAccessToken(user.PhoneNumber)
	if err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, refreshExpiresAt, err := m.signer.GenerateRefreshToken()
	if err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session.Token = token
	session.ExpirationDate = expiresAt
	session.RefreshToken = newRefreshToken
	session.RefreshExpirationDate = refreshExpiresAt

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.recorder.RefreshAttempt(metrics.ResultSuccess)
	m.logger.InfoContext(ctx, "tokens refreshed",
		slog.Int64("user_id", user.ID),
		slog.Int64("session_id", session.ID))

	return session, nil
}

func (m *Manager) checkRefreshable(session *models.Session, user *models.User) error {
	if user.IsDeactivated() {
		return ErrPermissionDenied
	}
	if session.UserID != user.ID {
		return ErrPermissionDenied
	}
	if session.Revoked {
		return ErrRevoked
	}
	return nil
}

// RefreshByToken resolves the session owner and rotates the session
func (m *Manager) RefreshByToken(ctx context.Context, refreshToken string) (*models.Session, *models.User, error) {
	user, err := m.UserFromRefreshToken(ctx, refreshToken)
	if err != nil {
		m.recorder.RefreshAttempt(metrics.ResultFailure)
		return nil, nil, err
	}

	session, err := m.Refresh(ctx, refreshToken, user)
	if err != nil {
		return nil, nil, err
	}

	return session, user, nil
}

// Validate decodes the access token and returns its subject (phone number).
// The ledger is not consulted.
func (m *Manager) Validate(token string) (string, error) {
	claims, err := m.signer.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return "", ErrExpired
		}
		return "", ErrInvalidSignature
	}

	return claims.Subject, nil
}

// UserFromToken validates the access token and loads its owner
func (m *Manager) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	phoneNumber, err := m.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetUserByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UserFromRefreshToken loads the owner of the session with this refresh token
func (m *Manager) UserFromRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	session, err := m.sessions.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	user, err := m.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Logout marks the session revoked and expired. The row is kept and the
// access token stays valid until its own expiry.
func (m *Manager) Logout(ctx context.Context, refreshToken string, user *models.User) error {
	session, err := m.sessions.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.UserID != user.ID {
		return ErrPermissionDenied
	}

	session.Revoked = true
	session.Expired = true

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.InfoContext(ctx, "user logged out",
		slog.Int64("user_id", user.ID),
		slog.Int64("session_id", session.ID))

	return nil
}

// userLocks хранит мьютекс на каждого пользователя
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	mu, ok := l.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[userID] = mu
	}
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}
