package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatRequest, error) {
	query := `INSERT INTO chat_requests (u_from, u_to) VALUES ($1, $2) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, req.From, req.To).Scan(&req.ID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id int64) (*models.ChatRequest, error) {
	query := `SELECT id, u_from, u_to, accepted FROM chat_requests WHERE id = $1`

	req := &models.ChatRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.From, &req.To, &req.Accepted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}

func (r *PostgresRepository) PendingRequests(ctx context.Context, userID int64) ([]models.ChatRequest, error) {
	query := `SELECT id, u_from, u_to, accepted FROM chat_requests WHERE u_to = $1 AND NOT accepted ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.ChatRequest
	for rows.Next() {
		var req models.ChatRequest
		if err := rows.Scan(&req.ID, &req.From, &req.To, &req.Accepted); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, req)
	}

	return list, rows.Err()
}

func (r *PostgresRepository) AcceptRequest(ctx context.Context, id int64, now time.Time) (*models.Chat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	// The WHERE NOT accepted guard makes a double accept lose the race
	// cleanly instead of creating a second chat.
	query :=
		`UPDATE chat_requests SET accepted = TRUE
		 WHERE id = $1 AND NOT accepted
		 RETURNING u_from, u_to`

	chat := &models.Chat{Last: now}
	err = tx.QueryRowContext(ctx, query, id).Scan(&chat.User1, &chat.User2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			checkErr := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM chat_requests WHERE id = $1)`, id).Scan(&exists)
			if checkErr != nil {
				return nil, fmt.Errorf("db error: %w", checkErr)
			}
			if !exists {
				return nil, common.ErrorNotFound
			}
			return nil, common.ErrorAlreadyAccepted
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO chats (user1, user2, last) VALUES ($1, $2, $3) RETURNING id`,
		chat.User1, chat.User2, chat.Last).Scan(&chat.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return chat, nil
}

func (r *PostgresRepository) DeleteRequest(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetChat(ctx context.Context, id int64) (*models.Chat, error) {
	query := `SELECT id, user1, user2, last FROM chats WHERE id = $1`

	chat := &models.Chat{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&chat.ID, &chat.User1, &chat.User2, &chat.Last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return chat, nil
}

// ListChats returns one page of the user's chats ordered by last activity.
func (r *PostgresRepository) ListChats(ctx context.Context, userID int64, page int) ([]models.Chat, error) {
	if page < 1 {
		page = 1
	}

	query :=
		`SELECT id, user1, user2, last FROM chats
		 WHERE user1 = $1 OR user2 = $1
		 ORDER BY last DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, ChatPageSize, (page-1)*ChatPageSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.User1, &chat.User2, &chat.Last); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, chat)
	}

	return list, rows.Err()
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	query :=
		`INSERT INTO messages (chat, u_from, u_to, body, image, sent)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		msg.Chat, msg.From, msg.To, msg.Text, msg.Image, msg.Sent).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE chats SET last = $2 WHERE id = $1`, msg.Chat, msg.Sent)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

// ListMessages returns one page of a chat's messages, newest first.
func (r *PostgresRepository) ListMessages(ctx context.Context, chatID int64, page int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}

	query :=
		`SELECT id, chat, u_from, u_to, body, image, sent FROM messages
		 WHERE chat = $1
		 ORDER BY sent DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, chatID, MessagePageSize, (page-1)*MessagePageSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Chat, &msg.From, &msg.To, &msg.Text, &msg.Image, &msg.Sent); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, msg)
	}

	return list, rows.Err()
}
