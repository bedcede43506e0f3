package session

import (
	"context"
	"testing"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
)

func newTestManager(t *testing.T, current *time.Time) (*Manager, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStoreWithConfig(kvstore.MemoryStoreConfig{
		Now: func() time.Time { return *current },
	})
	t.Cleanup(func() { store.Close() })

	mgr := NewManager(store, ManagerConfig{
		Now: func() time.Time { return *current },
	})
	return mgr, store
}

func TestManager_CreateLoadRoundTrip(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)
	ctx := context.Background()

	rec, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Expected non-empty session ID")
	}
	if rec.UnitsDay != "20260310" {
		t.Errorf("Expected units day 20260310, got %q", rec.UnitsDay)
	}

	loaded, err := mgr.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected session to load")
	}
	if loaded.ID != rec.ID {
		t.Errorf("Expected ID %q, got %q", rec.ID, loaded.ID)
	}
	if loaded.RequestCount != 0 {
		t.Errorf("Expected fresh request count, got %d", loaded.RequestCount)
	}
}

func TestManager_LoadMissing(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)

	rec, err := mgr.Load(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec != nil {
		t.Error("Expected missing session to load as nil")
	}
}

func TestManager_LoadCorruptRecordAsAbsent(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, store := newTestManager(t, &current)
	ctx := context.Background()

	store.Put(ctx, Key("broken"), "{not json", time.Hour)

	rec, err := mgr.Load(ctx, "broken")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec != nil {
		t.Error("Expected corrupt record to load as nil, not an error")
	}
}

func TestManager_TouchExtendsTTL(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, store := newTestManager(t, &current)
	ctx := context.Background()

	rec, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 23 hours later the session is one hour from expiry. Touch must
	// reset the window to a full 24 hours from the touch.
	current = current.Add(23 * time.Hour)
	if err := mgr.Touch(ctx, rec); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	remaining, ok := store.TTL(Key(rec.ID))
	if !ok {
		t.Fatal("Expected session to have a TTL")
	}
	if remaining != DefaultTTL {
		t.Errorf("Expected TTL reset to %v, got %v", DefaultTTL, remaining)
	}
	if rec.RequestCount != 1 {
		t.Errorf("Expected request count 1, got %d", rec.RequestCount)
	}
	if !rec.LastActivityAt.Equal(current) {
		t.Errorf("Expected last activity %v, got %v", current, rec.LastActivityAt)
	}
}

func TestManager_LoadDoesNotExtendTTL(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, store := newTestManager(t, &current)
	ctx := context.Background()

	rec, _ := mgr.Create(ctx)

	current = current.Add(10 * time.Hour)
	if _, err := mgr.Load(ctx, rec.ID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	remaining, ok := store.TTL(Key(rec.ID))
	if !ok {
		t.Fatal("Expected session to have a TTL")
	}
	if remaining != DefaultTTL-10*time.Hour {
		t.Errorf("Expected TTL to keep draining (%v), got %v", DefaultTTL-10*time.Hour, remaining)
	}
}

func TestManager_SessionExpiresWithoutTouch(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)
	ctx := context.Background()

	rec, _ := mgr.Create(ctx)

	current = current.Add(DefaultTTL + time.Minute)

	loaded, err := mgr.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != nil {
		t.Error("Expected session to expire after 24 idle hours")
	}
}

func TestManager_AddUnits(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)
	ctx := context.Background()

	rec, _ := mgr.Create(ctx)

	if err := mgr.AddUnits(ctx, rec, 95); err != nil {
		t.Fatalf("AddUnits failed: %v", err)
	}
	if err := mgr.AddUnits(ctx, rec, 10); err != nil {
		t.Fatalf("AddUnits failed: %v", err)
	}
	if got := rec.UnitsUsedToday(current); got != 105 {
		t.Errorf("Expected 105 units used, got %d", got)
	}
}

func TestManager_AddUnitsResetsAtMidnightUTC(t *testing.T) {
	current := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)
	ctx := context.Background()

	rec, _ := mgr.Create(ctx)
	mgr.AddUnits(ctx, rec, 200)

	// Cross midnight: the accumulator reads as zero and the next charge
	// starts a fresh day.
	current = current.Add(time.Hour)
	if got := rec.UnitsUsedToday(current); got != 0 {
		t.Errorf("Expected stale accumulator to read as zero, got %d", got)
	}

	if err := mgr.AddUnits(ctx, rec, 7); err != nil {
		t.Fatalf("AddUnits failed: %v", err)
	}
	if got := rec.UnitsUsedToday(current); got != 7 {
		t.Errorf("Expected 7 units after rollover, got %d", got)
	}
	if rec.UnitsDay != "20260311" {
		t.Errorf("Expected units day 20260311, got %q", rec.UnitsDay)
	}
}

func TestManager_AddUnitsRejectsNegative(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mgr, _ := newTestManager(t, &current)

	rec, _ := mgr.Create(context.Background())
	if err := mgr.AddUnits(context.Background(), rec, -1); err == nil {
		t.Error("Expected negative units to be rejected")
	}
}
