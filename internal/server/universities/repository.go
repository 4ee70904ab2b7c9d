package universities

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, university *models.University) (*models.University, error)
	GetByID(ctx context.Context, id int64) (*models.University, error)
	List(ctx context.Context) ([]models.University, error)
}
