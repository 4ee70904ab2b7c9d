package db

import (
	"context"
	"testing"

	"github.com/uchan-net/uchan/internal/server/models"
)

// Thread creation hands the tag closure the persisted thread id, matching
// the Postgres repository which derives after INSERT ... RETURNING id.
func TestInMemoryThreadCreate_DerivesAfterID(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	thread := &models.Thread{Title: "quiet floors?", Text: "which dorm", Board: 1, Author: 1}

	var seen int64
	thread, err := m.Threads().Create(ctx, thread, func() (string, error) {
		seen = thread.ID
		return "QUJDRA==", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if thread.ID == 0 {
		t.Fatal("thread id was not assigned")
	}
	if seen != thread.ID {
		t.Fatalf("derive saw thread id %d, want %d", seen, thread.ID)
	}

	tag, err := m.Threads().AuthorTag(ctx, thread.ID)
	if err != nil {
		t.Fatalf("author tag: %v", err)
	}
	if tag != "QUJDRA==" {
		t.Fatalf("want stored tag QUJDRA==, got %q", tag)
	}
}
