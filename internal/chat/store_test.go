package chat

import (
	"testing"
	"time"
)

func TestMemoryStoreCreatesOnFirstAccess(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	conv, err := store.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if conv.UserID != 42 {
		t.Errorf("expected user 42, got %d", conv.UserID)
	}
	if store.Len() != 1 {
		t.Errorf("expected one session, got %d", store.Len())
	}
}

func TestMemoryStoreResetsExpiredSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	conv, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	conv.AppendTurn("user", "show my spending total", "get_summary", nil)
	conv.SessionStart = time.Now().UTC().Add(-2 * time.Hour)
	if err := store.Put(conv); err != nil {
		t.Fatalf("Put: %v", err)
	}

	again, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.LastIntent != "" {
		t.Errorf("expected expired session reset, last intent %q", again.LastIntent)
	}
	if len(again.Turns) != 1 {
		t.Errorf("expected turn log retained across reset, got %d turns", len(again.Turns))
	}
	if again.Expired(time.Now().UTC(), time.Hour) {
		t.Error("session start should be refreshed after reset")
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if _, err := store.Get(1); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := store.Clear(1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", store.Len())
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := time.Now().UTC()

	stale, _ := store.Get(1)
	stale.SessionStart = now.Add(-3 * time.Hour)
	fresh, _ := store.Get(2)
	fresh.SessionStart = now.Add(-10 * time.Minute)

	if err := store.Sweep(now); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one surviving session, got %d", store.Len())
	}
	conv, _ := store.Get(2)
	if conv.SessionStart != fresh.SessionStart {
		t.Error("fresh session should survive the sweep untouched")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLiteStore(t.TempDir()+"/sessions.db", time.Hour)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer store.Close()

	conv, err := store.Get(7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	conv.AppendTurn("user", "add 500 for food", "add_transaction", map[string]interface{}{"amount": 500.0, "category": "Food"})
	if err := store.Put(conv); err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := store.Get(7)
	if err != nil {
		t.Fatalf("Get after Put: %v", err)
	}
	if loaded.LastIntent != "add_transaction" {
		t.Errorf("expected persisted last intent, got %q", loaded.LastIntent)
	}
	if len(loaded.Turns) != 1 || loaded.Turns[0].Content != "add 500 for food" {
		t.Errorf("unexpected persisted turns: %+v", loaded.Turns)
	}

	if err := store.Clear(7); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cleared, err := store.Get(7)
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	if len(cleared.Turns) != 0 {
		t.Errorf("expected fresh context after clear, got %d turns", len(cleared.Turns))
	}
}
