// Package history persists conversation transcripts per session.
//
// The store keeps one JSON transcript per session at "history:<id>",
// capped at a configured message count and expiring on the same sliding
// window as the session itself. The backing store has no range queries, so
// pagination slices the single transcript record.
//
// A transcript that fails to parse reads as empty: history is a
// convenience surface and must self-heal from partial writes rather than
// fail requests.
package history
