// Package kvstore provides the key-value store contract used by the
// session, quota, and history subsystems, plus the built-in backends.
//
// The contract is deliberately narrow: get, put-with-TTL, close. There is
// no atomic increment, no transaction, and no range query. Callers that
// need counters perform read-then-write and accept the resulting lost-update
// approximation (see package quota).
//
// # Failure classification
//
// Every backend failure is wrapped in ErrUnavailable before it crosses the
// package boundary. A missing key is never an error; it is reported through
// the found return value. Callers must never treat a store failure as an
// absent key or a zero value.
//
// # Backends
//
//   - MemoryStore: in-process map with per-entry expiry. Default backend,
//     no persistence, suitable for tests and single-instance deployments.
//   - SQLiteStore: durable single-file backend with WAL journaling.
//     Expired rows are filtered on read and purged by the Sweeper.
package kvstore
