package universities

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO universities .* RETURNING id`).
		WithArgs("Uni Hamburg", "Hamburg", "uni-hamburg.de", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	u, err := repo.Create(context.Background(), &models.University{
		Name: "Uni Hamburg", City: "Hamburg", Domain: "uni-hamburg.de",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 2 {
		t.Fatalf("want university id 2, got %d", u.ID)
	}
}

func TestCreate_DuplicateNameIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO universities .* RETURNING id`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "universities_name_key"})

	_, err := repo.Create(context.Background(), &models.University{Name: "Uni Hamburg"})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want ErrorConflict, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, city, domain, suggestion FROM universities WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestList_OrderedByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "city", "domain", "suggestion"}).
		AddRow(int64(1), "General", "", "", false).
		AddRow(int64(2), "Uni Hamburg", "Hamburg", "uni-hamburg.de", false)

	mock.ExpectQuery(`SELECT id, name, city, domain, suggestion FROM universities ORDER BY id`).
		WillReturnRows(rows)

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("unexpected list: %v", list)
	}
}
