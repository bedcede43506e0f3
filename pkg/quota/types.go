package quota

import (
	"fmt"
	"time"
)

// Window identifies a calendar bucket granularity for request counters.
type Window string

const (
	// WindowHourly buckets requests by UTC calendar hour.
	WindowHourly Window = "hourly"

	// WindowDaily buckets requests by UTC calendar day.
	WindowDaily Window = "daily"
)

// Bucket returns the bucket identifier containing t, derived purely from t
// in UTC so concurrent callers converge on the same key.
func (w Window) Bucket(t time.Time) string {
	switch w {
	case WindowHourly:
		return t.UTC().Format("2006010215")
	default:
		return t.UTC().Format("20060102")
	}
}

// bucketTTLSlack keeps counters alive slightly past the bucket boundary so
// the store cannot expire them early. Early eviction would only grant extra
// headroom, but there is no reason to invite it.
const bucketTTLSlack = 5 * time.Second

// TTL returns how long a counter created at t must live to cover the
// remainder of its bucket.
func (w Window) TTL(t time.Time) time.Duration {
	return w.BucketEnd(t).Sub(t) + bucketTTLSlack
}

// BucketEnd returns the first instant after the bucket containing t.
func (w Window) BucketEnd(t time.Time) time.Time {
	u := t.UTC()
	switch w {
	case WindowHourly:
		return u.Truncate(time.Hour).Add(time.Hour)
	default:
		return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
	}
}

// CounterKey returns the store key for a session's counter in the bucket
// containing t.
func CounterKey(sessionID string, w Window, t time.Time) string {
	return fmt.Sprintf("ratewindow:%s:%s", sessionID, w.Bucket(t))
}

// Policy is the fixed admission budget. All limits are compared with
// non-strict inequality before admission: the request that makes a counter
// equal to its limit is admitted, the one that would exceed it is denied.
type Policy struct {
	// RequestsPerHour caps admitted requests per UTC calendar hour.
	RequestsPerHour int64 `yaml:"requests_per_hour"`

	// RequestsPerDay caps admitted requests per UTC calendar day.
	RequestsPerDay int64 `yaml:"requests_per_day"`

	// UnitsPerDay caps consumption units ("neurons") per UTC calendar day.
	UnitsPerDay int64 `yaml:"units_per_day"`
}

// DefaultPolicy is the free-tier budget applied when no policy is configured.
var DefaultPolicy = Policy{
	RequestsPerHour: 20,
	RequestsPerDay:  100,
	UnitsPerDay:     300,
}

// Reason identifies which budget caused a denial.
type Reason string

const (
	// ReasonNone indicates the request was admitted.
	ReasonNone Reason = ""

	// ReasonHourlyRequests indicates the hourly request cap was reached.
	ReasonHourlyRequests Reason = "requests_per_hour"

	// ReasonDailyRequests indicates the daily request cap was reached.
	ReasonDailyRequests Reason = "requests_per_day"

	// ReasonDailyUnits indicates the daily unit budget was exhausted.
	ReasonDailyUnits Reason = "units_per_day"
)

// Decision is the outcome of one admission evaluation. A denial is a
// deliberate policy outcome, not an error; store failures during evaluation
// surface as errors instead.
type Decision struct {
	// Admitted reports whether the request may proceed.
	Admitted bool

	// Reason names the first budget that failed, per the fixed check
	// order. Empty when admitted.
	Reason Reason

	// RetryAfter is how long a denied caller should wait: the remainder
	// of the current hour for an hourly denial, the time until next UTC
	// midnight for daily denials. Zero when admitted.
	RetryAfter time.Duration

	// HourlyCount and DailyCount are the window counter values after
	// evaluation, for logging and response headers.
	HourlyCount int64
	DailyCount  int64
}

// Outcome is the result of a single IncrementIfUnder call.
type Outcome struct {
	// Admitted reports whether the counter was under the limit and was
	// incremented.
	Admitted bool

	// Count is the counter value after the call: incremented on
	// admission, unchanged on refusal.
	Count int64
}
