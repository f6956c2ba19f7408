package chat

import (
	"context"
	"testing"
	"time"
)

func TestResolve_CreatesOnFirstUse(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "ana@example.com", "editor")

	r := NewResolver(repo)
	conv := mustResolve(t, r, "Editorial Chat", uid)

	if conv.Title != "Editorial Chat" {
		t.Fatalf("unexpected title: %q", conv.Title)
	}
	if conv.CreatedBy != uid {
		t.Fatalf("expected created_by=%d, got %d", uid, conv.CreatedBy)
	}
	if n := countRows(t, db, &Conversation{}); n != 1 {
		t.Fatalf("expected 1 conversation, got %d", n)
	}
	// first open on an empty store: no messages
	if n := countRows(t, db, &Message{}); n != 0 {
		t.Fatalf("expected 0 messages, got %d", n)
	}
}

func TestResolve_SequentialReturnsSameConversation(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "bob@example.com", "admin")

	r := NewResolver(repo)
	first := mustResolve(t, r, "Editorial Chat", uid)
	second := mustResolve(t, r, "Editorial Chat", uid)

	if first.ID != second.ID {
		t.Fatalf("expected same conversation, got %q and %q", first.ID, second.ID)
	}
	if n := countRows(t, db, &Conversation{}); n != 1 {
		t.Fatalf("expected 1 conversation, got %d", n)
	}
}

func TestResolve_CreateConflictReResolves(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "cam@example.com", "editor")

	// Another client wins the race between our find and our create.
	winner := &Conversation{
		ID:        "01WINNER000000000000000000",
		Title:     "Editorial Chat",
		CreatedBy: uid,
		CreatedAt: time.Now().UTC(),
	}
	loser := &Conversation{
		ID:        "01LOSER0000000000000000000",
		Title:     "Editorial Chat",
		CreatedBy: uid,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateConversation(context.Background(), winner); err != nil {
		t.Fatalf("create winner: %v", err)
	}
	err := repo.CreateConversation(context.Background(), loser)
	if err == nil {
		t.Fatalf("expected unique title violation")
	}
	if !isDuplicateKey(err) {
		t.Fatalf("expected duplicate key classification, got %v", err)
	}

	// The resolver recovers by re-resolving to the winner.
	r := NewResolver(repo)
	conv := mustResolve(t, r, "Editorial Chat", uid)
	if conv.ID != winner.ID {
		t.Fatalf("expected winner %q, got %q", winner.ID, conv.ID)
	}
	if n := countRows(t, db, &Conversation{}); n != 1 {
		t.Fatalf("expected 1 conversation, got %d", n)
	}
}
