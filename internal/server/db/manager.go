package db

import (
	"context"
	"database/sql"

	"github.com/uchan-net/uchan/internal/server/boards"
	"github.com/uchan-net/uchan/internal/server/chats"
	"github.com/uchan-net/uchan/internal/server/posts"
	"github.com/uchan-net/uchan/internal/server/sessions"
	"github.com/uchan-net/uchan/internal/server/threads"
	"github.com/uchan-net/uchan/internal/server/universities"
	"github.com/uchan-net/uchan/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Sessions() sessions.Repository
	Universities() universities.Repository
	Boards() boards.Repository
	Threads() threads.Repository
	Posts() posts.Repository
	Chats() chats.Repository
}
