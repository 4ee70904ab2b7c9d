package boards

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

func (r *PostgresRepository) Create(ctx context.Context, board *models.Board) (*models.Board, error) {

	query :=
		`INSERT INTO boards (memo, name, university)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, board.Memo, board.Name, board.University).Scan(&board.ID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return board, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Board, error) {
	query := `SELECT id, memo, name, university FROM boards WHERE id = $1`

	b := &models.Board{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Memo, &b.Name, &b.University)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

func (r *PostgresRepository) ListByUniversity(ctx context.Context, universityID int64) ([]models.Board, error) {
	query := `SELECT id, memo, name, university FROM boards WHERE university = $1 ORDER BY id`
	return r.queryBoards(ctx, query, universityID)
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64) ([]models.Board, error) {
	query :=
		`SELECT b.id, b.memo, b.name, b.university
		 FROM boards b
		 JOIN user_boards ub ON ub.board_id = b.id
		 WHERE ub.user_id = $1
		 ORDER BY b.id
		 `
	return r.queryBoards(ctx, query, userID)
}

func (r *PostgresRepository) Subscribe(ctx context.Context, userID, boardID int64) error {
	query :=
		`INSERT INTO user_boards (user_id, board_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, board_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, boardID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) IsSubscribed(ctx context.Context, userID, boardID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_boards WHERE user_id = $1 AND board_id = $2)`

	var subscribed bool
	if err := r.db.QueryRowContext(ctx, query, userID, boardID).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return subscribed, nil
}

func (r *PostgresRepository) queryBoards(ctx context.Context, query string, args ...any) ([]models.Board, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Memo, &b.Name, &b.University); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, b)
	}

	return list, rows.Err()
}
