package quota

import (
	"context"
	"testing"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
)

func newTestStore(t *testing.T, current *time.Time) *kvstore.MemoryStore {
	t.Helper()
	store := kvstore.NewMemoryStoreWithConfig(kvstore.MemoryStoreConfig{
		Now: func() time.Time { return *current },
	})
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLedger_IncrementMonotonicWithinBucket(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	ledger := NewLedger(newTestStore(t, &current), nil)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		out, err := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 10, current)
		if err != nil {
			t.Fatalf("IncrementIfUnder failed: %v", err)
		}
		if !out.Admitted {
			t.Fatalf("Expected admission at count %d", i)
		}
		if out.Count != i {
			t.Errorf("Expected count %d, got %d", i, out.Count)
		}
		// Later in the same hour, same bucket
		current = current.Add(time.Minute)
	}
}

func TestLedger_DenyAtLimitWithoutMutating(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	ledger := NewLedger(newTestStore(t, &current), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if out, _ := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 2, current); !out.Admitted {
			t.Fatalf("Expected admission %d", i+1)
		}
	}

	// At the limit: denied, and repeated denials never grow the counter.
	for i := 0; i < 3; i++ {
		out, err := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 2, current)
		if err != nil {
			t.Fatalf("IncrementIfUnder failed: %v", err)
		}
		if out.Admitted {
			t.Fatal("Expected denial at the limit")
		}
		if out.Count != 2 {
			t.Errorf("Expected count pinned at 2, got %d", out.Count)
		}
	}
}

func TestLedger_HourBoundaryStartsFreshBucket(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 59, 0, 0, time.UTC)
	ledger := NewLedger(newTestStore(t, &current), nil)
	ctx := context.Background()

	// Exhaust the 12:00 bucket
	ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 1, current)
	if out, _ := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 1, current); out.Admitted {
		t.Fatal("Expected denial in exhausted bucket")
	}

	// 13:00 is a different bucket with a fresh counter
	current = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	out, err := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 1, current)
	if err != nil {
		t.Fatalf("IncrementIfUnder failed: %v", err)
	}
	if !out.Admitted {
		t.Error("Expected admission in the new hour bucket")
	}
	if out.Count != 1 {
		t.Errorf("Expected fresh count 1, got %d", out.Count)
	}
}

func TestLedger_SessionsHaveIndependentCounters(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger := NewLedger(newTestStore(t, &current), nil)
	ctx := context.Background()

	ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 1, current)
	if out, _ := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 1, current); out.Admitted {
		t.Fatal("Expected s1 to be exhausted")
	}

	out, _ := ledger.IncrementIfUnder(ctx, "s2", WindowHourly, 1, current)
	if !out.Admitted {
		t.Error("Expected s2 to be unaffected by s1's counter")
	}
}

func TestLedger_CorruptCounterReadsAsZero(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &current)
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	store.Put(ctx, CounterKey("s1", WindowHourly, current), "garbage", time.Hour)

	out, err := ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 5, current)
	if err != nil {
		t.Fatalf("IncrementIfUnder failed: %v", err)
	}
	if !out.Admitted || out.Count != 1 {
		t.Errorf("Expected corrupt counter to self-heal to 1, got admitted=%v count=%d",
			out.Admitted, out.Count)
	}
}

func TestLedger_CounterExpiresWithBucket(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	store := newTestStore(t, &current)
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	ledger.IncrementIfUnder(ctx, "s1", WindowHourly, 5, current)

	remaining, ok := store.TTL(CounterKey("s1", WindowHourly, current))
	if !ok {
		t.Fatal("Expected counter to carry a TTL")
	}
	want := 30*time.Minute + bucketTTLSlack
	if remaining != want {
		t.Errorf("Expected TTL %v covering the bucket remainder, got %v", want, remaining)
	}
}

func TestWindow_Buckets(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 42, 7, 0, time.UTC)

	if got := WindowHourly.Bucket(at); got != "2026031015" {
		t.Errorf("Expected hourly bucket 2026031015, got %q", got)
	}
	if got := WindowDaily.Bucket(at); got != "20260310" {
		t.Errorf("Expected daily bucket 20260310, got %q", got)
	}

	// Non-UTC input must land in the same bucket as its UTC equivalent
	loc := time.FixedZone("UTC+5", 5*3600)
	if got := WindowHourly.Bucket(at.In(loc)); got != "2026031015" {
		t.Errorf("Expected zone-independent bucket, got %q", got)
	}
}

func TestWindow_BucketEnd(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 42, 7, 0, time.UTC)

	if got := WindowHourly.BucketEnd(at); !got.Equal(time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected next hour boundary, got %v", got)
	}
	if got := WindowDaily.BucketEnd(at); !got.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected next UTC midnight, got %v", got)
	}
}
