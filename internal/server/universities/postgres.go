package universities

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

func (r *PostgresRepository) Create(ctx context.Context, university *models.University) (*models.University, error) {

	query :=
		`INSERT INTO universities (name, city, domain, suggestion)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		university.Name, university.City, university.Domain, university.Suggestion).Scan(&university.ID)

	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return university, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.University, error) {
	query := `SELECT id, name, city, domain, suggestion FROM universities WHERE id = $1`

	u := &models.University{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.City, &u.Domain, &u.Suggestion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.University, error) {
	query := `SELECT id, name, city, domain, suggestion FROM universities ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.University
	for rows.Next() {
		var u models.University
		if err := rows.Scan(&u.ID, &u.Name, &u.City, &u.Domain, &u.Suggestion); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, u)
	}

	return list, rows.Err()
}
