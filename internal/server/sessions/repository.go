package sessions

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)

	// DeleteByToken removes the session row; deleting a token that has no
	// row reports ErrorNotFound.
	DeleteByToken(ctx context.Context, token string) error
}
