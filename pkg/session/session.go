package session

import (
	"encoding/json"
	"time"
)

// DayStampLayout is the UTC calendar-day stamp used to align the daily
// unit accumulator to midnight UTC.
const DayStampLayout = "20060102"

// Record represents one anonymous caller's continuity window.
type Record struct {
	// ID is the opaque session identifier. Generated, never reused.
	ID string `json:"id"`

	// CreatedAt is when the session was first created.
	CreatedAt time.Time `json:"created_at"`

	// LastActivityAt is the time of the last admitted request.
	// Monotonically non-decreasing.
	LastActivityAt time.Time `json:"last_activity_at"`

	// RequestCount counts admitted requests over the session's life.
	// Not bucketed; used for display only, never for admission.
	RequestCount int64 `json:"request_count"`

	// DailyUnitsUsed accumulates consumption units charged on the UTC
	// calendar day identified by UnitsDay. It resets when the day rolls
	// over, so the unit budget resets at midnight UTC even for sessions
	// kept alive by continuous activity.
	DailyUnitsUsed int64 `json:"daily_units_used"`

	// UnitsDay is the UTC day stamp (YYYYMMDD) the accumulator belongs to.
	UnitsDay string `json:"units_day"`
}

// Key returns the store key for a session ID.
func Key(id string) string {
	return "session:" + id
}

// DayStamp returns the UTC calendar-day stamp for t.
func DayStamp(t time.Time) string {
	return t.UTC().Format(DayStampLayout)
}

// UnitsUsedToday returns the unit accumulator value for the day containing
// now. If the record's accumulator belongs to an earlier day it reads as
// zero; the stale value is discarded on the next AddUnits write.
func (r *Record) UnitsUsedToday(now time.Time) int64 {
	if r.UnitsDay != DayStamp(now) {
		return 0
	}
	return r.DailyUnitsUsed
}

// encode serializes the record for storage.
func (r *Record) encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decode parses a stored record. Returns nil (not an error) when the data
// is unparsable or missing required fields, so corrupt records read as
// absent.
func decode(data string) *Record {
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil
	}
	if rec.ID == "" {
		return nil
	}
	return &rec
}
