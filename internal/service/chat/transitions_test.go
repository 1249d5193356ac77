package chat

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/z-scheduler/backend/internal/analysis/dateparse"
	"github.com/zhouzirui/z-scheduler/backend/internal/model/chat"
)

type ruleDates struct{}

func (ruleDates) Resolve(_ context.Context, utterance string, now time.Time) dateparse.Result {
	return dateparse.Resolve(utterance, now)
}

type noSlots struct{}

func (noSlots) ForDate(context.Context, time.Time) ([]string, error) { return nil, nil }

func TestEveryStateHasTransition(t *testing.T) {
	svc, err := NewService(nil, ruleDates{}, noSlots{}, nil)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	for _, state := range chat.States() {
		if _, ok := svc.transitions[state]; !ok {
			t.Fatalf("state %q has no transition", state)
		}
	}
	if len(svc.transitions) != len(chat.States()) {
		t.Fatalf("transition table has %d entries for %d states", len(svc.transitions), len(chat.States()))
	}
}

func TestUnknownStateIsAnError(t *testing.T) {
	store := NewMemoryStore()
	bad := chat.NewSession("s1")
	bad.State = "archived"
	_ = store.Put(context.Background(), bad)

	svc, err := NewService(store, ruleDates{}, noSlots{}, nil)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if _, err := svc.HandleMessage(context.Background(), "s1", "book"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
