package posts

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/threads"
)

// PageSize is the number of posts per thread page.
const PageSize = 10

type Repository interface {
	// Create inserts the post, upserts the author's participant row and
	// bumps the thread's reply and image counters, all in one transaction.
	// The counters therefore always equal the live post counts.
	Create(ctx context.Context, post *models.Post, derive threads.TagFunc) (*models.Post, error)

	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByThread(ctx context.Context, threadID int64, page int) ([]models.Post, error)

	// Delete removes the post and decrements the thread counters in one
	// transaction.
	Delete(ctx context.Context, post *models.Post) error
}
