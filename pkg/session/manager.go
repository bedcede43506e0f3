package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nexa-hq/neurongate/pkg/kvstore"
)

// DefaultTTL is the sliding session expiration window.
const DefaultTTL = 24 * time.Hour

// Manager creates, loads, and refreshes session records.
//
// The manager owns the session TTL: Touch is the only operation that
// extends a session's lifetime. Load alone never refreshes expiry.
type Manager struct {
	store  kvstore.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// TTL is the sliding expiration window. Default: 24 hours.
	TTL time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewManager creates a session manager backed by the given store.
func NewManager(store kvstore.Store, cfg ManagerConfig) *Manager {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		store:  store,
		ttl:    cfg.TTL,
		now:    cfg.Now,
		logger: cfg.Logger.With("component", "session"),
	}
}

// Create allocates a new session with a fresh unique ID and persists it
// with the full sliding TTL. Fails only on store unavailability.
func (m *Manager) Create(ctx context.Context) (*Record, error) {
	now := m.now()
	rec := &Record{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastActivityAt: now,
		UnitsDay:       DayStamp(now),
	}

	if err := m.persist(ctx, rec); err != nil {
		return nil, err
	}

	m.logger.Debug("session created", "session_id", rec.ID)
	return rec, nil
}

// Load reads the session record for id. A missing or unparsable record
// returns (nil, nil): absence is a normal state that triggers session
// creation, and corruption is treated identically to absence. Only store
// unavailability is an error.
func (m *Manager) Load(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, nil
	}

	data, found, err := m.store.Get(ctx, Key(id))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, nil
	}

	rec := decode(data)
	if rec == nil {
		m.logger.Warn("discarding unparsable session record", "session_id", id)
		return nil, nil
	}
	return rec, nil
}

// Touch records an admitted request: it increments the lifetime request
// counter, advances LastActivityAt, and rewrites the record with the TTL
// reset to a fresh window. This is the only path that extends session
// lifetime.
func (m *Manager) Touch(ctx context.Context, rec *Record) error {
	now := m.now()
	rec.RequestCount++
	if now.After(rec.LastActivityAt) {
		rec.LastActivityAt = now
	}
	return m.persist(ctx, rec)
}

// AddUnits charges consumption units to the session's daily accumulator.
// The accumulator is aligned to the UTC calendar day: on the first charge
// of a new day the stale value is discarded before adding.
//
// AddUnits is called only after a successful inference result, so the
// rewrite here immediately follows a Touch and the TTL reset is equivalent
// to the sliding window Touch established.
func (m *Manager) AddUnits(ctx context.Context, rec *Record, units int64) error {
	if units < 0 {
		return fmt.Errorf("units cannot be negative: %d", units)
	}

	day := DayStamp(m.now())
	if rec.UnitsDay != day {
		rec.DailyUnitsUsed = 0
		rec.UnitsDay = day
	}
	rec.DailyUnitsUsed += units

	return m.persist(ctx, rec)
}

// persist writes the record with a fresh sliding TTL.
func (m *Manager) persist(ctx context.Context, rec *Record) error {
	data, err := rec.encode()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Put(ctx, Key(rec.ID), data, m.ttl); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
