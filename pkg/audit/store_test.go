package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func sampleEvents() []Event {
	base := time.Date(2026, 2, 1, 19, 30, 0, 0, time.UTC)
	return []Event{
		{
			RequestID: "req-1", UserID: "u1", QueryType: "game_prediction",
			AgentID: "predictor", Capability: "predict_game", Status: "success",
			Payload: map[string]any{"margin": 4.5}, StartedAt: base, FinishedAt: base.Add(80 * time.Millisecond),
		},
		{
			RequestID: "req-1", UserID: "u1", QueryType: "game_prediction",
			AgentID: "statistician", Capability: "game_features", Status: "error",
			Error: "no feature row", StartedAt: base, FinishedAt: base.Add(5 * time.Millisecond),
		},
		{
			RequestID: "req-2", UserID: "u2", QueryType: "model_management",
			AgentID: "curator", Capability: "reload_models", Status: "denied",
			StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute),
		},
	}
}

func runStoreTests(t *testing.T, store Store) {
	ctx := context.Background()
	for _, event := range sampleEvents() {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	byRequest, err := store.List(ctx, Filter{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("list by request: %v", err)
	}
	if len(byRequest) != 2 {
		t.Fatalf("expected 2 events for req-1, got %d", len(byRequest))
	}

	byAgent, err := store.List(ctx, Filter{AgentID: "curator"})
	if err != nil {
		t.Fatalf("list by agent: %v", err)
	}
	if len(byAgent) != 1 || byAgent[0].Status != "denied" {
		t.Fatalf("unexpected curator events: %+v", byAgent)
	}

	byStatus, err := store.List(ctx, Filter{Status: "success"})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].AgentID != "predictor" {
		t.Fatalf("unexpected success events: %+v", byStatus)
	}

	limited, err := store.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d events", len(limited))
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	runStoreTests(t, store)
}

func TestSQLiteStoreRoundTripsPayload(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	ctx := context.Background()
	if err := store.Record(ctx, Event{
		RequestID: "req-9", AgentID: "predictor", Capability: "predict_game",
		Status: "success", Payload: map[string]any{"margin": 7.0},
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	events, err := store.List(ctx, Filter{RequestID: "req-9"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	payload, ok := events[0].Payload.(map[string]any)
	if !ok || payload["margin"] != 7.0 {
		t.Fatalf("payload did not round-trip: %+v", events[0].Payload)
	}
}

func TestNewSQLiteStoreNilDB(t *testing.T) {
	if _, err := NewSQLiteStore(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
