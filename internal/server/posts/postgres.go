package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/threads"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postColumns = `id, op, anon, body, image, posted, reply, thread, author, board`

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post, derive threads.TagFunc) (*models.Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	query :=
		`INSERT INTO posts (op, anon, body, image, posted, reply, thread, author, board)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id
		 `

	err = tx.QueryRowContext(ctx, query,
		post.OP, post.Anon, post.Text, post.Image, post.Posted,
		post.ReplyTo, post.Thread, post.Author, post.Board).Scan(&post.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	tag, err := derive()
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO thread_users (thread, user_id, follow, authid)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (thread, user_id) DO NOTHING`,
		post.Thread, post.Author, tag)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Single statement keeps both counters consistent with the insert.
	hasImage := post.Image != ""
	_, err = tx.ExecContext(ctx,
		`UPDATE threads SET replies = replies + 1, images = images + CASE WHEN $2 THEN 1 ELSE 0 END WHERE id = $1`,
		post.Thread, hasImage)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OP, &p.Anon, &p.Text, &p.Image, &p.Posted,
		&p.ReplyTo, &p.Thread, &p.Author, &p.Board)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// ListByThread returns one page of a thread's posts in posting order.
func (r *PostgresRepository) ListByThread(ctx context.Context, threadID int64, page int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE thread = $1 ORDER BY id LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, threadID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.OP, &p.Anon, &p.Text, &p.Image, &p.Posted,
			&p.ReplyTo, &p.Thread, &p.Author, &p.Board); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, p)
	}

	return list, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, post *models.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	// Replies pointing at this post keep their reference dangling-free by
	// clearing it first.
	if _, err := tx.ExecContext(ctx, `UPDATE posts SET reply = NULL WHERE reply = $1`, post.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, post.ID)
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

	hadImage := post.Image != ""
	_, err = tx.ExecContext(ctx,
		`UPDATE threads SET replies = replies - 1, images = images - CASE WHEN $2 THEN 1 ELSE 0 END WHERE id = $1`,
		post.Thread, hadImage)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
