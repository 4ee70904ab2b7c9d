package chats

import (
	"context"
	"time"

	"github.com/uchan-net/uchan/internal/server/models"
)

const (
	// ChatPageSize is the number of chats per page, most recently active first.
	ChatPageSize = 10
	// MessagePageSize is the number of messages per page, newest first.
	MessagePageSize = 20
)

type Repository interface {
	// CreateRequest inserts a pending request. A second request for the
	// same (from, to) pair fails with common.ErrorConflict.
	CreateRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatRequest, error)

	GetRequest(ctx context.Context, id int64) (*models.ChatRequest, error)
	PendingRequests(ctx context.Context, userID int64) ([]models.ChatRequest, error)

	// AcceptRequest flips the request to accepted and creates the chat in
	// one transaction. Accepting an already accepted request fails with
	// common.ErrorAlreadyAccepted.
	AcceptRequest(ctx context.Context, id int64, now time.Time) (*models.Chat, error)

	DeleteRequest(ctx context.Context, id int64) error

	GetChat(ctx context.Context, id int64) (*models.Chat, error)
	ListChats(ctx context.Context, userID int64, page int) ([]models.Chat, error)

	// CreateMessage inserts the message and advances the chat's last
	// activity time in one transaction.
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	ListMessages(ctx context.Context, chatID int64, page int) ([]models.Message, error)
}
