package store

import (
	"context"
	"testing"
	"time"

	"github.com/fvaletk/tastyai/internal/core/conversation"
)

func TestMemoryStoreTurnOrder(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	msgs := []struct{ role, content string }{
		{conversation.RoleUser, "Italian dinner"},
		{conversation.RoleAssistant, "Here are some options"},
		{conversation.RoleUser, "the first one"},
	}
	for _, m := range msgs {
		if err := s.AppendTurn(ctx, "c1", m.role, m.content); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	turns, err := s.LoadTurns(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadTurns() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("LoadTurns() len = %d, want 3", len(turns))
	}
	for i, m := range msgs {
		if turns[i].Role != m.role || turns[i].Content != m.content {
			t.Fatalf("turn %d = %+v, want %s/%s", i, turns[i], m.role, m.content)
		}
	}
}

func TestMemoryStoreConversationsIsolated(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = s.AppendTurn(ctx, "c1", conversation.RoleUser, "pasta")
	turns, _ := s.LoadTurns(ctx, "c2")
	if len(turns) != 0 {
		t.Fatalf("LoadTurns(c2) = %v, want empty", turns)
	}
}

func TestMemoryStoreCarriedOverwrite(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = s.SaveCarried(ctx, "c1", []conversation.RecipeRecord{{Title: "Lasagna"}, {Title: "Pizza"}})
	_ = s.SaveCarried(ctx, "c1", []conversation.RecipeRecord{{Title: "Pad Thai"}})

	got, err := s.LoadCarried(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadCarried() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Pad Thai" {
		t.Fatalf("LoadCarried() = %+v, want overwritten pool", got)
	}
}

func TestMemoryStoreCarriedExpiry(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	_ = s.SaveCarried(ctx, "c1", []conversation.RecipeRecord{{Title: "Lasagna"}})
	time.Sleep(5 * time.Millisecond)

	got, err := s.LoadCarried(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadCarried() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("LoadCarried() = %+v, want expired", got)
	}
}
