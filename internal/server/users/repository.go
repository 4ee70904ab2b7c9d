package users

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	GetByActivationToken(ctx context.Context, token string) (*models.User, error)
	EmailTaken(ctx context.Context, email string, university int64) (bool, error)
	Activate(ctx context.Context, id int64) error
}
