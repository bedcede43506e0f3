package quota

import (
	"time"

	"nexa-hq/neurongate/pkg/session"
)

// Summary is the user-facing quota projection returned by the usage
// endpoint. It is derived entirely from the session record and the policy;
// producing it mutates nothing, so repeated calls with no intervening
// activity yield identical output.
type Summary struct {
	// DailyRequestsUsed is the session's lifetime admitted-request count.
	DailyRequestsUsed int64 `json:"daily_requests_used"`

	// DailyUnitsUsed is the unit accumulator for the current UTC day.
	DailyUnitsUsed int64 `json:"daily_units_used"`

	// UnitsLimit is the configured daily unit budget.
	UnitsLimit int64 `json:"units_limit"`

	// QuotaResetAt is the next UTC midnight, when daily budgets reset.
	QuotaResetAt time.Time `json:"quota_reset_at"`

	// HourlyRequestsRemaining approximates the remaining hourly budget as
	// max(0, perHour - requestCount mod perHour). This is a display
	// heuristic over the lifetime counter; the admission engine's window
	// counters are the sole source of truth for actual admission.
	HourlyRequestsRemaining int64 `json:"hourly_requests_remaining"`
}

// Report projects rec into a quota summary under policy at time now.
func Report(rec *session.Record, policy Policy, now time.Time) Summary {
	var hourlyRemaining int64
	if policy.RequestsPerHour > 0 {
		hourlyRemaining = policy.RequestsPerHour - rec.RequestCount%policy.RequestsPerHour
		if hourlyRemaining < 0 {
			hourlyRemaining = 0
		}
	}

	return Summary{
		DailyRequestsUsed:       rec.RequestCount,
		DailyUnitsUsed:          rec.UnitsUsedToday(now),
		UnitsLimit:              policy.UnitsPerDay,
		QuotaResetAt:            WindowDaily.BucketEnd(now),
		HourlyRequestsRemaining: hourlyRemaining,
	}
}
