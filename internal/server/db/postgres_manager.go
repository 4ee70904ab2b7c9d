package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uchan-net/uchan/internal/server/boards"
	"github.com/uchan-net/uchan/internal/server/chats"
	"github.com/uchan-net/uchan/internal/server/migrations"
	"github.com/uchan-net/uchan/internal/server/posts"
	"github.com/uchan-net/uchan/internal/server/sessions"
	"github.com/uchan-net/uchan/internal/server/threads"
	"github.com/uchan-net/uchan/internal/server/universities"
	"github.com/uchan-net/uchan/internal/server/users"
)

type PostgresRepositoryManager struct {
	db           *sql.DB
	users        users.Repository
	sessions     sessions.Repository
	universities universities.Repository
	boards       boards.Repository
	threads      threads.Repository
	posts        posts.Repository
	chats        chats.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return m.sessions
}

func (m *PostgresRepositoryManager) Universities() universities.Repository {
	return m.universities
}

func (m *PostgresRepositoryManager) Boards() boards.Repository {
	return m.boards
}

func (m *PostgresRepositoryManager) Threads() threads.Repository {
	return m.threads
}

func (m *PostgresRepositoryManager) Posts() posts.Repository {
	return m.posts
}

func (m *PostgresRepositoryManager) Chats() chats.Repository {
	return m.chats
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:           db,
		users:        users.NewPostgresRepository(db),
		sessions:     sessions.NewPostgresRepository(db),
		universities: universities.NewPostgresRepository(db),
		boards:       boards.NewPostgresRepository(db),
		threads:      threads.NewPostgresRepository(db),
		posts:        posts.NewPostgresRepository(db),
		chats:        chats.NewPostgresRepository(db),
	}

	err = m.RunMigrations(context.Background())
	if err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
