// Package quota implements admission control for the gateway: calendar-
// bucketed request counters, the fixed-order admission decision, and the
// user-facing usage projection.
//
// # Windows
//
// Two window counters exist per session, hourly and daily, each keyed by a
// bucket identifier derived purely from the current UTC time so that
// concurrent callers in the same bucket converge on the same store key.
// Counters expire with their calendar bucket; the store TTL always covers
// at least the remainder of the bucket.
//
// # Approximation
//
// The backing store offers no atomic increment, so IncrementIfUnder is a
// read followed by a write. Two concurrent requests in the same bucket can
// both read the same pre-increment value and both write count+1, losing one
// update. The limiter is best-effort free-tier protection, not a billing
// ledger; under-counting under concurrent load is accepted rather than
// papered over with optimistic retries.
//
// # Decision order
//
// Checks run in a fixed order (hourly requests, then daily requests, then
// the daily unit budget) and the first failing check alone determines the
// denial reason and retry delay. Store failures during evaluation abort
// the request; they are never converted into an admission or a denial.
package quota
