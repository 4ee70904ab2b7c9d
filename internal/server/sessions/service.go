package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

// Service issues, resolves and revokes the opaque bearer tokens exchanged
// for authenticated access. Tokens are independent of the password.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create issues a session bound to the client IP, valid for one calendar
// month. The token is a canonical UUID string over 128 random bits.
func (s *Service) Create(ctx context.Context, ip string, userID int64) (*models.Session, error) {
	created := s.now()

	session := &models.Session{
		IPAddr: ip,
		Token:  uuid.NewString(),
		Create: created,
		Expire: created.AddDate(0, 1, 0),
		User:   userID,
	}

	return s.repo.Create(ctx, session)
}

// Resolve maps a token to its live session. Expired sessions are rejected
// with ErrorSessionExpired rather than treated as advisory data.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		return nil, common.ErrorSessionExpired
	}

	return session, nil
}

// Revoke destroys the session. A second revoke of the same token reports
// not-found; revocation is deliberately not idempotent.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.repo.DeleteByToken(ctx, token)
}
