package threads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const threadColumns = `id, anon, title, body, image, pinned, posted, replies, images, board, author`

func (r *PostgresRepository) Create(ctx context.Context, thread *models.Thread, derive TagFunc) (*models.Thread, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	query :=
		`INSERT INTO threads (anon, title, body, image, pinned, posted, board, author)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id
		 `

	err = tx.QueryRowContext(ctx, query,
		thread.Anon, thread.Title, thread.Text, thread.Image, thread.Pinned,
		thread.Posted, thread.Board, thread.Author).Scan(&thread.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	tag, err := derive()
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO thread_users (thread, user_id, follow, authid) VALUES ($1, $2, TRUE, $3)`,
		thread.ID, thread.Author, tag)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return thread, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE id = $1`
	return scanThread(r.db.QueryRowContext(ctx, query, id))
}

// ListByBoard returns one page of a board's threads, newest first. Pinned
// threads are prepended on the first page only.
func (r *PostgresRepository) ListByBoard(ctx context.Context, boardID int64, page int) ([]models.Thread, error) {
	if page < 1 {
		page = 1
	}

	var list []models.Thread

	if page == 1 {
		pinned, err := r.queryThreads(ctx,
			`SELECT `+threadColumns+` FROM threads WHERE board = $1 AND pinned ORDER BY id DESC`, boardID)
		if err != nil {
			return nil, err
		}
		list = pinned
	}

	paged, err := r.queryThreads(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE board = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		boardID, BoardPageSize, (page-1)*BoardPageSize)
	if err != nil {
		return nil, err
	}

	return append(list, paged...), nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, userID int64, page int) ([]models.Thread, error) {
	if page < 1 {
		page = 1
	}

	return r.queryThreads(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE author = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		userID, UserPageSize, (page-1)*UserPageSize)
}

func (r *PostgresRepository) Delete(ctx context.Context, threadID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	// Posts hold a foreign reference to the thread; the cascade must
	// complete before the thread row is removed.
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE thread = $1`, threadID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM thread_users WHERE thread = $1`, threadID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, threadID)
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) EnsureParticipant(ctx context.Context, threadID, userID int64, derive TagFunc) (*models.ThreadParticipant, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	tag, err := derive()
	if err != nil {
		return nil, err
	}

	// The UNIQUE(thread, user_id) constraint makes the check-then-insert
	// safe under concurrent requests; a losing insert simply re-reads the
	// winner's row and its tag.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO thread_users (thread, user_id, follow, authid)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (thread, user_id) DO NOTHING`,
		threadID, userID, tag)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	participant, err := scanParticipant(tx.QueryRowContext(ctx,
		`SELECT id, thread, user_id, follow, authid FROM thread_users WHERE thread = $1 AND user_id = $2`,
		threadID, userID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return participant, nil
}

func (r *PostgresRepository) GetParticipant(ctx context.Context, threadID, userID int64) (*models.ThreadParticipant, error) {
	return scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT id, thread, user_id, follow, authid FROM thread_users WHERE thread = $1 AND user_id = $2`,
		threadID, userID))
}

func (r *PostgresRepository) GetParticipantByID(ctx context.Context, id int64) (*models.ThreadParticipant, error) {
	return scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT id, thread, user_id, follow, authid FROM thread_users WHERE id = $1`, id))
}

func (r *PostgresRepository) AuthorTag(ctx context.Context, threadID int64) (string, error) {
	query := `SELECT authid FROM thread_users WHERE thread = $1 ORDER BY id LIMIT 1`

	var tag string
	err := r.db.QueryRowContext(ctx, query, threadID).Scan(&tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return tag, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*models.Thread, error) {
	t := &models.Thread{}
	err := row.Scan(&t.ID, &t.Anon, &t.Title, &t.Text, &t.Image, &t.Pinned,
		&t.Posted, &t.Replies, &t.Images, &t.Board, &t.Author)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func scanParticipant(row rowScanner) (*models.ThreadParticipant, error) {
	p := &models.ThreadParticipant{}
	err := row.Scan(&p.ID, &p.Thread, &p.User, &p.Follow, &p.AuthID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) queryThreads(ctx context.Context, query string, args ...any) ([]models.Thread, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.Anon, &t.Title, &t.Text, &t.Image, &t.Pinned,
			&t.Posted, &t.Replies, &t.Images, &t.Board, &t.Author); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, t)
	}

	return list, rows.Err()
}
