package boards

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, board *models.Board) (*models.Board, error)
	GetByID(ctx context.Context, id int64) (*models.Board, error)
	ListByUniversity(ctx context.Context, universityID int64) ([]models.Board, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Board, error)

	// Subscribe links a user to a board; subscribing twice is a no-op.
	Subscribe(ctx context.Context, userID, boardID int64) error
	IsSubscribed(ctx context.Context, userID, boardID int64) (bool, error)
}
