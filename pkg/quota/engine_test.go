package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
	"nexa-hq/neurongate/pkg/session"
)

// failingStore simulates an unavailable backend.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, kvstore.ErrUnavailable
}

func (failingStore) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	return kvstore.ErrUnavailable
}

func (failingStore) Close() error { return nil }

func newTestEngine(t *testing.T, current *time.Time, policy Policy) *Engine {
	t.Helper()
	ledger := NewLedger(newTestStore(t, current), nil)
	return NewEngine(ledger, EngineConfig{
		Policy: policy,
		Now:    func() time.Time { return *current },
	})
}

func testRecord(id string, now time.Time, units int64) *session.Record {
	return &session.Record{
		ID:             id,
		CreatedAt:      now,
		LastActivityAt: now,
		DailyUnitsUsed: units,
		UnitsDay:       session.DayStamp(now),
	}
}

func TestEngine_AdmitsUnderAllBudgets(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 5, RequestsPerDay: 10, UnitsPerDay: 100})

	d, err := engine.Evaluate(context.Background(), testRecord("s1", current, 0))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !d.Admitted {
		t.Fatalf("Expected admission, denied with %q", d.Reason)
	}
	if d.HourlyCount != 1 || d.DailyCount != 1 {
		t.Errorf("Expected counts 1/1, got %d/%d", d.HourlyCount, d.DailyCount)
	}
	if d.RetryAfter != 0 {
		t.Errorf("Expected zero retry-after on admission, got %v", d.RetryAfter)
	}
}

func TestEngine_HourlyDenialAndHourBoundaryRetry(t *testing.T) {
	// Scenario: 2 requests/hour. Two admitted at 10:59, third denied with
	// retry-after pointing at 11:00, then a request at 11:00 is admitted.
	current := time.Date(2026, 3, 10, 10, 59, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 2, RequestsPerDay: 100, UnitsPerDay: 1000})
	ctx := context.Background()
	rec := testRecord("s1", current, 0)

	for i := 0; i < 2; i++ {
		d, err := engine.Evaluate(ctx, rec)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if !d.Admitted {
			t.Fatalf("Expected admission %d", i+1)
		}
	}

	d, err := engine.Evaluate(ctx, rec)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Admitted {
		t.Fatal("Expected third request in the hour to be denied")
	}
	if d.Reason != ReasonHourlyRequests {
		t.Errorf("Expected reason %q, got %q", ReasonHourlyRequests, d.Reason)
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("Expected retry-after of 1m to the hour boundary, got %v", d.RetryAfter)
	}

	current = time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	d, err = engine.Evaluate(ctx, rec)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !d.Admitted {
		t.Error("Expected admission after the hour boundary")
	}
}

func TestEngine_DailyDenialRetryUntilMidnight(t *testing.T) {
	current := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 100, RequestsPerDay: 1, UnitsPerDay: 1000})
	ctx := context.Background()
	rec := testRecord("s1", current, 0)

	if d, _ := engine.Evaluate(ctx, rec); !d.Admitted {
		t.Fatal("Expected first request to be admitted")
	}

	d, err := engine.Evaluate(ctx, rec)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Admitted {
		t.Fatal("Expected daily denial")
	}
	if d.Reason != ReasonDailyRequests {
		t.Errorf("Expected reason %q, got %q", ReasonDailyRequests, d.Reason)
	}
	if d.RetryAfter != 2*time.Hour {
		t.Errorf("Expected retry-after of 2h to midnight UTC, got %v", d.RetryAfter)
	}
}

func TestEngine_UnitBudgetDenial(t *testing.T) {
	// Scenario: 95 of 100 units used, a 10-unit call was admitted and
	// charged (now 105). The next request must be denied on units.
	current := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 100, RequestsPerDay: 100, UnitsPerDay: 100})
	ctx := context.Background()

	under := testRecord("s1", current, 95)
	d, err := engine.Evaluate(ctx, under)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !d.Admitted {
		t.Fatal("Expected admission with remaining unit headroom")
	}

	over := testRecord("s1", current, 105)
	d, err = engine.Evaluate(ctx, over)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Admitted {
		t.Fatal("Expected denial once the accumulator exceeds the budget")
	}
	if d.Reason != ReasonDailyUnits {
		t.Errorf("Expected reason %q, got %q", ReasonDailyUnits, d.Reason)
	}
	if d.RetryAfter != 6*time.Hour {
		t.Errorf("Expected retry-after of 6h to midnight UTC, got %v", d.RetryAfter)
	}
}

func TestEngine_ExactlyAtUnitBudgetDenied(t *testing.T) {
	current := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 100, RequestsPerDay: 100, UnitsPerDay: 100})

	d, err := engine.Evaluate(context.Background(), testRecord("s1", current, 100))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Admitted {
		t.Error("Expected denial when usage equals the budget")
	}
}

func TestEngine_HourlyDenialWinsOverLaterChecks(t *testing.T) {
	// All three budgets exhausted: the reported reason must be the first
	// check in the fixed order, the hourly window.
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 1, RequestsPerDay: 1, UnitsPerDay: 10})
	ctx := context.Background()
	rec := testRecord("s1", current, 50)

	// rec is over the unit budget, but the first evaluation still burns
	// the single hourly slot.
	d, _ := engine.Evaluate(ctx, rec)
	if d.Admitted || d.Reason != ReasonDailyUnits {
		t.Fatalf("Expected unit denial first, got admitted=%v reason=%q", d.Admitted, d.Reason)
	}

	d, _ = engine.Evaluate(ctx, rec)
	if d.Admitted {
		t.Fatal("Expected denial")
	}
	if d.Reason != ReasonHourlyRequests {
		t.Errorf("Expected hourly reason to win, got %q", d.Reason)
	}
}

func TestEngine_StoreFailureIsNotADenial(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger := NewLedger(failingStore{}, nil)
	engine := NewEngine(ledger, EngineConfig{
		Policy: DefaultPolicy,
		Now:    func() time.Time { return current },
	})

	d, err := engine.Evaluate(context.Background(), testRecord("s1", current, 0))
	if err == nil {
		t.Fatal("Expected an error from an unavailable store")
	}
	if !errors.Is(err, kvstore.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable in the chain, got %v", err)
	}
	if d != nil {
		t.Error("Expected no decision alongside a store failure")
	}
}

func TestEngine_SetPolicyAppliesToSubsequentEvaluations(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, &current, Policy{RequestsPerHour: 1, RequestsPerDay: 10, UnitsPerDay: 100})
	ctx := context.Background()
	rec := testRecord("s1", current, 0)

	engine.Evaluate(ctx, rec)
	if d, _ := engine.Evaluate(ctx, rec); d.Admitted {
		t.Fatal("Expected denial under the tight policy")
	}

	engine.SetPolicy(Policy{RequestsPerHour: 10, RequestsPerDay: 10, UnitsPerDay: 100})
	if d, _ := engine.Evaluate(ctx, rec); !d.Admitted {
		t.Error("Expected admission after the policy was raised")
	}
}
