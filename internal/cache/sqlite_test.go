package cache

import (
	"testing"
	"time"

	"github.com/fitpulse/companion/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutAndListMessages(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := []domain.Message{
		{ID: 1, Role: domain.MessageRoleUser, Content: "hi", CreatedAt: base, UpdatedAt: base},
		{ID: 2, Role: domain.MessageRoleBot, Content: "hello", CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second)},
	}
	if err := store.PutMessages("conv-1", msgs); err != nil {
		t.Fatalf("PutMessages failed: %v", err)
	}

	got, err := store.ListMessages("conv-1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected messages: %+v", got)
	}
	if got[0].ContentType != "text" {
		t.Fatalf("expected default content type, got %q", got[0].ContentType)
	}
}

func TestPutMessagesUpsertsContent(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	msg := domain.Message{ID: 10, Role: domain.MessageRoleBot, Content: "Hel", CreatedAt: now, UpdatedAt: now}
	if err := store.PutMessages("conv-1", []domain.Message{msg}); err != nil {
		t.Fatalf("PutMessages failed: %v", err)
	}

	msg.Content = "Hello, world"
	msg.UpdatedAt = now.Add(time.Second)
	if err := store.PutMessages("conv-1", []domain.Message{msg}); err != nil {
		t.Fatalf("PutMessages upsert failed: %v", err)
	}

	got, err := store.ListMessages("conv-1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "Hello, world" {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestListMessagesScopedByConversation(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	if err := store.PutMessages("conv-1", []domain.Message{{ID: 1, Role: "user", Content: "a", CreatedAt: now, UpdatedAt: now}}); err != nil {
		t.Fatalf("PutMessages failed: %v", err)
	}
	if err := store.PutMessages("conv-2", []domain.Message{{ID: 1, Role: "user", Content: "b", CreatedAt: now, UpdatedAt: now}}); err != nil {
		t.Fatalf("PutMessages failed: %v", err)
	}

	got, err := store.ListMessages("conv-2", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "b" {
		t.Fatalf("unexpected messages: %+v", got)
	}
}
