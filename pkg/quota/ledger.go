package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
)

// Ledger maintains the per-session window counters in the key-value store.
//
// Counters are created lazily on first increment in a bucket and expire
// with the bucket. The store offers no atomic increment, so concurrent
// increments on the same key can lose updates; see the package comment.
type Ledger struct {
	store  kvstore.Store
	logger *slog.Logger
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store kvstore.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:  store,
		logger: logger.With("component", "quota.ledger"),
	}
}

// IncrementIfUnder reads the session's counter for the bucket containing
// now and, if the count is under limit, writes count+1 with a TTL covering
// the remainder of the bucket. At or over the limit it returns without
// mutating.
//
// An unparsable stored count is treated as zero so a corrupted counter
// self-heals on the next write. Store failures propagate unchanged: a
// failed read is never treated as an empty bucket.
func (l *Ledger) IncrementIfUnder(ctx context.Context, sessionID string, w Window, limit int64, now time.Time) (Outcome, error) {
	key := CounterKey(sessionID, w, now)

	count, err := l.readCount(ctx, key)
	if err != nil {
		return Outcome{}, err
	}

	if count >= limit {
		return Outcome{Admitted: false, Count: count}, nil
	}

	count++
	if err := l.store.Put(ctx, key, strconv.FormatInt(count, 10), w.TTL(now)); err != nil {
		return Outcome{}, fmt.Errorf("write %s counter: %w", w, err)
	}

	return Outcome{Admitted: true, Count: count}, nil
}

// Count returns the session's current counter value for the bucket
// containing now, without mutating. Used for reporting and diagnostics.
func (l *Ledger) Count(ctx context.Context, sessionID string, w Window, now time.Time) (int64, error) {
	return l.readCount(ctx, CounterKey(sessionID, w, now))
}

func (l *Ledger) readCount(ctx context.Context, key string) (int64, error) {
	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	if !found {
		return 0, nil
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || count < 0 {
		l.logger.Warn("discarding unparsable counter value", "key", key, "value", raw)
		return 0, nil
	}
	return count, nil
}
