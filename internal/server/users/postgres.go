package users

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

const userColumns = `id, nickname, password, salt, university, profilepic, email, female, activated, token, admin`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Nickname, &user.Password, &user.Salt, &user.University,
		&user.ProfilePic, &user.Email, &user.Female, &user.Activated, &user.Token, &user.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (nickname, password, salt, university, email, female, activated, token, admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Nickname, user.Password, user.Salt, user.University, user.Email,
		user.Female, user.Activated, user.Token, user.Admin).Scan(&user.ID)

	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE nickname = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, nickname))
}

func (r *PostgresRepository) GetByActivationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) EmailTaken(ctx context.Context, email string, university int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND university = $2)`

	var taken bool
	err := r.db.QueryRowContext(ctx, query, email, university).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return taken, nil
}

func (r *PostgresRepository) Activate(ctx context.Context, id int64) error {
	query := `UPDATE users SET activated = TRUE WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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
