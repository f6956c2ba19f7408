package chat

import (
	"context"
	"testing"
	"time"

	"github.com/pressdeck/editorial-chat/internal/realtime"
)

func msgAt(id string, sentAt time.Time) Message {
	return Message{
		ID:             id,
		ConversationID: "01CONV00000000000000000000",
		SenderID:       1,
		Body:           "body " + id,
		SentAt:         sentAt,
	}
}

func TestIngest_OrderedBySentAt(t *testing.T) {
	s := NewMessageStore(nil, "01CONV00000000000000000000", time.Second)

	base := time.Now().UTC()
	// deliver out of creation order
	s.Ingest(msgAt("01B", base.Add(2*time.Second)))
	s.Ingest(msgAt("01A", base.Add(1*time.Second)))
	s.Ingest(msgAt("01C", base.Add(3*time.Second)))

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].SentAt.Before(msgs[i-1].SentAt) {
			t.Fatalf("sequence not ordered at %d: %v before %v", i, msgs[i].SentAt, msgs[i-1].SentAt)
		}
	}
	if msgs[0].ID != "01A" || msgs[1].ID != "01B" || msgs[2].ID != "01C" {
		t.Fatalf("unexpected order: %s %s %s", msgs[0].ID, msgs[1].ID, msgs[2].ID)
	}
}

func TestIngest_TiesBreakOnID(t *testing.T) {
	s := NewMessageStore(nil, "01CONV00000000000000000000", time.Second)

	at := time.Now().UTC()
	s.Ingest(msgAt("01B", at))
	s.Ingest(msgAt("01A", at))

	msgs := s.Messages()
	if msgs[0].ID != "01A" || msgs[1].ID != "01B" {
		t.Fatalf("unexpected tie order: %s %s", msgs[0].ID, msgs[1].ID)
	}
}

func TestIngest_DuplicateIDLeavesLengthUnchanged(t *testing.T) {
	s := NewMessageStore(nil, "01CONV00000000000000000000", time.Second)

	m := msgAt("01A", time.Now().UTC())
	if !s.Ingest(m) {
		t.Fatalf("first ingest should report new")
	}
	// local echo pushed back by the channel
	if s.Ingest(m) {
		t.Fatalf("duplicate ingest should report already present")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 message, got %d", s.Len())
	}
}

func TestIngest_FiresCallbackOncePerNewMessage(t *testing.T) {
	s := NewMessageStore(nil, "01CONV00000000000000000000", time.Second)

	var fired int
	s.SetOnIngest(func(Message) { fired++ })

	m := msgAt("01A", time.Now().UTC())
	s.Ingest(m)
	s.Ingest(m)
	s.Ingest(msgAt("01B", time.Now().UTC()))

	if fired != 2 {
		t.Fatalf("expected 2 callbacks, got %d", fired)
	}
}

func TestLoad_FetchesHistoryAscWithProfiles(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "dee@example.com", "editor")

	conv := mustResolve(t, NewResolver(repo), "Editorial Chat", uid)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"01A", "01B", "01C"} {
		err := repo.InsertMessage(context.Background(), &Message{
			ID:             id,
			ConversationID: conv.ID,
			SenderID:       uid,
			Body:           "seed",
			SentAt:         base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed msg %s: %v", id, err)
		}
	}

	s := NewMessageStore(repo, conv.ID, time.Second)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "01A" || msgs[2].ID != "01C" {
		t.Fatalf("unexpected order: %s..%s", msgs[0].ID, msgs[2].ID)
	}
	if msgs[0].Sender.Email != "dee@example.com" || msgs[0].Sender.Role != "editor" {
		t.Fatalf("profile not joined: %+v", msgs[0].Sender)
	}
}

func TestAttach_IngestsHubEvents(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "eve@example.com", "admin")
	conv := mustResolve(t, NewResolver(repo), "Editorial Chat", uid)

	hub := realtime.NewHub()

	s := NewMessageStore(repo, conv.ID, time.Second)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Attach(context.Background(), hub); err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer s.Detach()

	// another client writes and announces
	m := &Message{
		ID:             "01REMOTE000000000000000000",
		ConversationID: conv.ID,
		SenderID:       uid,
		Body:           "hi",
		SentAt:         time.Now().UTC(),
	}
	if err := repo.InsertMessage(context.Background(), m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := hub.Publish(context.Background(), realtime.Event{
		MessageID:      m.ID,
		ConversationID: conv.ID,
		SentAt:         m.SentAt,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, time.Second, func() bool { return s.Len() == 1 })

	got := s.Messages()[0]
	if got.ID != m.ID || got.Sender.Email != "eve@example.com" {
		t.Fatalf("unexpected hydrated message: %+v", got)
	}
}

func TestDetach_StopsDelivery(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	uid := seedUser(t, db, "fin@example.com", "admin")
	conv := mustResolve(t, NewResolver(repo), "Editorial Chat", uid)

	hub := realtime.NewHub()
	s := NewMessageStore(repo, conv.ID, time.Second)
	if err := s.Attach(context.Background(), hub); err != nil {
		t.Fatalf("attach: %v", err)
	}
	s.Detach()

	// publishing after detach must not reach the store
	_ = hub.Publish(context.Background(), realtime.Event{
		MessageID:      "01GONE00000000000000000000",
		ConversationID: conv.ID,
		SentAt:         time.Now().UTC(),
	})
	time.Sleep(50 * time.Millisecond)
	if s.Len() != 0 {
		t.Fatalf("expected no messages after detach, got %d", s.Len())
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
