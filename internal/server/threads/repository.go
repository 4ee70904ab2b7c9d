package threads

import (
	"context"

	"github.com/uchan-net/uchan/internal/server/models"
)

const (
	// BoardPageSize is the number of threads per board page.
	BoardPageSize = 8
	// UserPageSize is the number of threads per page of a user's own threads.
	UserPageSize = 10
)

// TagFunc derives a fresh pseudonymous tag. It is passed into the
// repository so the derivation runs exactly once, inside the same
// transaction that persists the participant row.
type TagFunc func() (string, error)

type Repository interface {
	// Create inserts the thread and its author's participant row in one
	// transaction. The author row is by construction the first participant
	// of the thread.
	Create(ctx context.Context, thread *models.Thread, derive TagFunc) (*models.Thread, error)

	GetByID(ctx context.Context, id int64) (*models.Thread, error)
	ListByBoard(ctx context.Context, boardID int64, page int) ([]models.Thread, error)
	ListByAuthor(ctx context.Context, userID int64, page int) ([]models.Thread, error)

	// Delete removes the thread's posts, participants and finally the
	// thread row itself, in one transaction.
	Delete(ctx context.Context, threadID int64) error

	// EnsureParticipant returns the existing (thread, user) row or creates
	// it with a freshly derived tag, atomically. Calling it twice for the
	// same pair returns the same tag both times.
	EnsureParticipant(ctx context.Context, threadID, userID int64, derive TagFunc) (*models.ThreadParticipant, error)

	GetParticipant(ctx context.Context, threadID, userID int64) (*models.ThreadParticipant, error)
	GetParticipantByID(ctx context.Context, id int64) (*models.ThreadParticipant, error)

	// AuthorTag returns the tag of the first participant row ever created
	// for the thread, which is the thread author's row.
	AuthorTag(ctx context.Context, threadID int64) (string, error)
}
