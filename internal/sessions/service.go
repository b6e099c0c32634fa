package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/domain"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// CreateSession stores a new refresh session for the device and returns it.
func (s *Service) CreateSession(ctx context.Context, userID string, dev Device, ttl time.Duration) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		RefreshToken: hex.EncodeToString(b),
		UserID:       userID,
		UserAgent:    dev.UserAgent,
		IP:           dev.IP,
		CreatedAt:    now,
		LastSeenAt:   now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ValidateRefresh returns the session if the refresh token is valid and not expired,
// and records the device as seen. Unknown or expired tokens return (nil, nil).
func (s *Service) ValidateRefresh(ctx context.Context, refresh string, dev Device) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	now := s.now()
	if sess.expired(now) {
		// cleanup expired session
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	sess.LastSeenAt = now
	if dev.IP != "" {
		sess.IP = dev.IP
	}
	if dev.UserAgent != "" {
		sess.UserAgent = dev.UserAgent
	}
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ListForUser returns the user's live sessions, most recently seen first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Session, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*Session, 0, len(all))
	for _, sess := range all {
		if !sess.expired(now) {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Revoke deletes one of the user's sessions and blacklists its id so access tokens
// minted for it stop working before they expire.
func (s *Service) Revoke(ctx context.Context, userID, id string, accessTTL time.Duration) error {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil || sess.UserID != userID {
		return domain.NotFound("session")
	}
	if err := s.repo.DeleteByRefresh(ctx, sess.RefreshToken); err != nil {
		return err
	}
	return BlacklistSession(ctx, id, accessTTL)
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}
