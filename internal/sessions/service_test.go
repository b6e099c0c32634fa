package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/domain"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "user-1", Device{UserAgent: "curl", IP: "10.0.0.1"}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sess.RefreshToken)
	require.NotEmpty(t, sess.ID)

	got, err := svc.ValidateRefresh(ctx, sess.RefreshToken, Device{IP: "10.0.0.2"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "10.0.0.2", got.IP)
	require.Equal(t, "curl", got.UserAgent)

	require.NoError(t, svc.DeleteRefresh(ctx, sess.RefreshToken))
	gone, err := svc.ValidateRefresh(ctx, sess.RefreshToken, Device{})
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestValidateRefreshExpired(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "user-1", Device{}, time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	got, err := svc.ValidateRefresh(ctx, sess.RefreshToken, Device{})
	require.NoError(t, err)
	require.Nil(t, got)

	stored, err := repo.GetByRefresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	require.Nil(t, stored, "expired session cleaned up")
}

func TestListAndRevoke(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	laptop, err := svc.CreateSession(ctx, "user-1", Device{UserAgent: "laptop"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "user-1", Device{UserAgent: "phone"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "user-2", Device{UserAgent: "other"}, time.Hour)
	require.NoError(t, err)

	list, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	// another user's session is invisible
	err = svc.Revoke(ctx, "user-2", laptop.ID, time.Minute)
	require.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, svc.Revoke(ctx, "user-1", laptop.ID, time.Minute))
	list, err = svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "phone", list[0].UserAgent)
}
