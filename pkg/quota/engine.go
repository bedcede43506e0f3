package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nexa-hq/neurongate/pkg/session"
)

// Engine derives the allow/deny admission decision from the ledger's
// counters and the session's unit accumulator.
//
// The policy is hot-swappable: the config watcher calls SetPolicy when the
// limits file changes, and in-flight evaluations keep the policy they
// started with.
type Engine struct {
	ledger *Ledger
	now    func() time.Time

	mu     sync.RWMutex
	policy Policy
}

// EngineConfig configures the admission engine.
type EngineConfig struct {
	// Policy is the admission budget. Defaults to DefaultPolicy.
	Policy Policy

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates an admission engine over the given ledger.
func NewEngine(ledger *Ledger, cfg EngineConfig) *Engine {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		ledger: ledger,
		now:    cfg.Now,
		policy: cfg.Policy,
	}
}

// Policy returns the current admission budget.
func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// SetPolicy replaces the admission budget for subsequent evaluations.
func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = p
}

// Evaluate runs one admission evaluation for rec.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. hourly request window: denial carries the seconds remaining in the
//     current UTC hour;
//  2. daily request window: denial carries the seconds until next UTC
//     midnight;
//  3. daily unit budget: denial carries the seconds until next UTC
//     midnight.
//
// On admission both window counters have been incremented as a side effect
// of steps 1–2. The unit budget is never charged here: units are known only
// after the inference call returns and are added via Manager.AddUnits.
//
// Store failures abort the evaluation with an error distinct from any
// policy denial; the caller must fail the request rather than guess.
func (e *Engine) Evaluate(ctx context.Context, rec *session.Record) (*Decision, error) {
	policy := e.Policy()
	now := e.now()

	hourly, err := e.ledger.IncrementIfUnder(ctx, rec.ID, WindowHourly, policy.RequestsPerHour, now)
	if err != nil {
		return nil, fmt.Errorf("hourly window: %w", err)
	}
	if !hourly.Admitted {
		return &Decision{
			Reason:      ReasonHourlyRequests,
			RetryAfter:  untilHourBoundary(now),
			HourlyCount: hourly.Count,
		}, nil
	}

	daily, err := e.ledger.IncrementIfUnder(ctx, rec.ID, WindowDaily, policy.RequestsPerDay, now)
	if err != nil {
		return nil, fmt.Errorf("daily window: %w", err)
	}
	if !daily.Admitted {
		return &Decision{
			Reason:      ReasonDailyRequests,
			RetryAfter:  untilUTCMidnight(now),
			HourlyCount: hourly.Count,
			DailyCount:  daily.Count,
		}, nil
	}

	if rec.UnitsUsedToday(now) >= policy.UnitsPerDay {
		return &Decision{
			Reason:      ReasonDailyUnits,
			RetryAfter:  untilUTCMidnight(now),
			HourlyCount: hourly.Count,
			DailyCount:  daily.Count,
		}, nil
	}

	return &Decision{
		Admitted:    true,
		HourlyCount: hourly.Count,
		DailyCount:  daily.Count,
	}, nil
}

// untilHourBoundary returns the time remaining until the next UTC hour.
func untilHourBoundary(now time.Time) time.Duration {
	return WindowHourly.BucketEnd(now).Sub(now)
}

// untilUTCMidnight returns the time remaining until the next UTC midnight.
func untilUTCMidnight(now time.Time) time.Duration {
	return WindowDaily.BucketEnd(now).Sub(now)
}
