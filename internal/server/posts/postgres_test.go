package posts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

func fixedTag() (string, error) { return "QUJDRA==", nil }

func TestCreate_BumpsBothCountersForImagePost(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	posted := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts .* RETURNING id`).
		WithArgs(false, true, "same here", "a1b2.jpg", posted, nil, int64(41), int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	mock.ExpectExec(`INSERT INTO thread_users .* ON CONFLICT \(thread, user_id\) DO NOTHING`).
		WithArgs(int64(41), int64(9), "QUJDRA==").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE threads SET replies = replies \+ 1, images = images \+ CASE WHEN \$2 THEN 1 ELSE 0 END WHERE id = \$1`).
		WithArgs(int64(41), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Create(context.Background(), &models.Post{
		Anon:   true,
		Text:   "same here",
		Image:  "a1b2.jpg",
		Posted: posted,
		Thread: 41,
		Author: 9,
		Board:  3,
	}, fixedTag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 77 {
		t.Fatalf("want post id 77, got %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_TextOnlyLeavesImageCounter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(78)))
	mock.ExpectExec(`INSERT INTO thread_users`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE threads SET replies`).
		WithArgs(int64(41), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Create(context.Background(), &models.Post{Text: "ok", Thread: 41, Author: 9, Board: 3}, fixedTag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_CounterUpdateErrorRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(79)))
	mock.ExpectExec(`INSERT INTO thread_users`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE threads SET replies`).
		WillReturnError(errors.New("db is down"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.Post{Thread: 41, Author: 9}, fixedTag)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByThread_PostingOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	posted := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	replyTo := int64(77)

	rows := sqlmock.NewRows([]string{
		"id", "op", "anon", "body", "image", "posted", "reply", "thread", "author", "board",
	}).
		AddRow(int64(77), true, true, "same here", "", posted, nil, int64(41), int64(7), int64(3)).
		AddRow(int64(78), false, true, "agreed", "", posted, replyTo, int64(41), int64(9), int64(3))

	mock.ExpectQuery(`SELECT .* FROM posts WHERE thread = \$1 ORDER BY id LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(41), PageSize, 0).
		WillReturnRows(rows)

	got, err := repo.ListByThread(context.Background(), 41, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 posts, got %d", len(got))
	}
	if got[0].ID != 77 || got[0].ReplyTo != nil {
		t.Fatalf("unexpected first post: %+v", got[0])
	}
	if got[1].ReplyTo == nil || *got[1].ReplyTo != 77 {
		t.Fatalf("reply reference lost: %+v", got[1])
	}
}

func TestDelete_DecrementsCountersAndClearsReplies(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE posts SET reply = NULL WHERE reply = \$1`).
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1`).
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE threads SET replies = replies - 1, images = images - CASE WHEN \$2 THEN 1 ELSE 0 END WHERE id = \$1`).
		WithArgs(int64(41), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), &models.Post{ID: 77, Thread: 41, Image: "a1b2.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelete_MissingPost(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE posts SET reply = NULL WHERE reply = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), &models.Post{ID: 99, Thread: 41})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
