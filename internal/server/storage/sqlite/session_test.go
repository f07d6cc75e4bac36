package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
)

func newTestSession(userID int64, refresh string, mobile bool) *models.Session {
	now := time.Now()
	return &models.Session{
		UserID:                userID,
		Token:                 "access-" + refresh,
		TokenType:             "Bearer",
		ExpirationDate:        now.Add(time.Hour),
		RefreshToken:          refresh,
		RefreshExpirationDate: now.Add(24 * time.Hour),
		IsMobile:              mobile,
	}
}

func TestSessionStorage_SaveSession_Insert(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	session := newTestSession(userID, "refresh-1", true)

	require.NoError(t, s.SaveSession(ctx, session))
	assert.NotZero(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())

	retrieved, err := s.GetSessionByRefreshToken(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, userID, retrieved.UserID)
	assert.Equal(t, "access-refresh-1", retrieved.Token)
	assert.Equal(t, "Bearer", retrieved.TokenType)
	assert.True(t, retrieved.IsMobile)
	assert.False(t, retrieved.Revoked)
	assert.False(t, retrieved.Expired)
	assert.WithinDuration(t, session.ExpirationDate, retrieved.ExpirationDate, time.Second)
	assert.WithinDuration(t, session.RefreshExpirationDate, retrieved.RefreshExpirationDate, time.Second)
}

func TestSessionStorage_SaveSession_UnknownUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.SaveSession(ctx, newTestSession(12345, "orphan", false))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSessionStorage_SaveSession_UpdateInPlace(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	session := newTestSession(userID, "old-refresh", false)
	require.NoError(t, s.SaveSession(ctx, session))
	originalID := session.ID

	session.Token = "new-access"
	session.RefreshToken = "new-refresh"
	session.Revoked = true
	require.NoError(t, s.SaveSession(ctx, session))
	assert.Equal(t, originalID, session.ID)

	_, err := s.GetSessionByRefreshToken(ctx, "old-refresh")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	retrieved, err := s.GetSessionByRefreshToken(ctx, "new-refresh")
	require.NoError(t, err)
	assert.Equal(t, originalID, retrieved.ID)
	assert.Equal(t, "new-access", retrieved.Token)
	assert.True(t, retrieved.Revoked)

	sessions, err := s.GetUserSessions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	t.Run("unknown id", func(t *testing.T) {
		missing := newTestSession(userID, "missing", false)
		missing.ID = 999
		assert.ErrorIs(t, s.SaveSession(ctx, missing), storage.ErrSessionNotFound)
	})
}

func TestSessionStorage_GetUserSessions_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)

	for i := range 3 {
		require.NoError(t, s.SaveSession(ctx, newTestSession(userID, fmt.Sprintf("r%d", i), i%2 == 0)))
	}
	require.NoError(t, s.SaveSession(ctx, newTestSession(otherID, "other", false)))

	sessions, err := s.GetUserSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for i, session := range sessions {
		assert.Equal(t, fmt.Sprintf("r%d", i), session.RefreshToken)
	}

	empty, err := s.GetUserSessions(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSessionStorage_DeleteSession(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	session := newTestSession(userID, "to-delete", false)
	require.NoError(t, s.SaveSession(ctx, session))

	require.NoError(t, s.DeleteSession(ctx, session.ID))

	_, err := s.GetSessionByRefreshToken(ctx, "to-delete")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	assert.ErrorIs(t, s.DeleteSession(ctx, session.ID), storage.ErrSessionNotFound)
}

func TestSessionStorage_ExpiredSessionIsKept(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)

	expired := newTestSession(userID, "expired", false)
	expired.RefreshExpirationDate = time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveSession(ctx, expired))

	sessions, err := s.GetUserSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, expired.ID, sessions[0].ID)

	// ротация истекшей сессии перезаписывает ту же строку
	expired.RefreshToken = "rotated"
	expired.RefreshExpirationDate = time.Now().Add(time.Hour)
	require.NoError(t, s.SaveSession(ctx, expired))

	stored, err := s.GetSessionByRefreshToken(ctx, "rotated")
	require.NoError(t, err)
	assert.Equal(t, expired.ID, stored.ID)
}
