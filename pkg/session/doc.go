// Package session manages anonymous per-caller continuity records.
//
// A session is created on first contact, identified by an opaque generated
// ID, and refreshed with a sliding 24-hour expiration on every admitted
// request. Sessions are never explicitly deleted; the store's own TTL
// expiry is the only destruction path.
//
// Records are stored as JSON at "session:<id>". A record that fails to
// parse is treated identically to a missing one; corruption from a partial
// write self-heals by recreating the session rather than surfacing an error.
package session
