package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
)

// DefaultMaxMessages caps the transcript length per session.
const DefaultMaxMessages = 200

// Message is one transcript entry.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// At is when the message was recorded.
	At time.Time `json:"at"`
}

// Store persists per-session conversation transcripts.
type Store struct {
	store       kvstore.Store
	ttl         time.Duration
	maxMessages int
	now         func() time.Time
	logger      *slog.Logger
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// TTL is the transcript expiry, refreshed on every append.
	// Default: 24 hours, matching the session window.
	TTL time.Duration

	// MaxMessages caps the transcript length; older messages are dropped
	// first. Default: 200.
	MaxMessages int

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewStore creates a history store backed by the given key-value store.
func NewStore(store kvstore.Store, cfg StoreConfig) *Store {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxMessages == 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		store:       store,
		ttl:         cfg.TTL,
		maxMessages: cfg.MaxMessages,
		now:         cfg.Now,
		logger:      cfg.Logger.With("component", "history"),
	}
}

// Key returns the store key for a session's transcript.
func Key(sessionID string) string {
	return "history:" + sessionID
}

// Append adds messages to the session's transcript, dropping the oldest
// entries once the cap is exceeded, and refreshes the transcript TTL.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	transcript, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	transcript = append(transcript, msgs...)
	if len(transcript) > s.maxMessages {
		transcript = transcript[len(transcript)-s.maxMessages:]
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.store.Put(ctx, Key(sessionID), string(data), s.ttl); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	return nil
}

// Page returns a slice of the transcript in chronological order, along
// with the total message count. offset counts from the start of the
// retained transcript; limit caps the page size.
func (s *Store) Page(ctx context.Context, sessionID string, offset, limit int) ([]Message, int, error) {
	transcript, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	total := len(transcript)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Message{}, total, nil
	}

	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return transcript[offset:end], total, nil
}

// load reads the transcript; a missing or unparsable record reads as empty.
func (s *Store) load(ctx context.Context, sessionID string) ([]Message, error) {
	data, found, err := s.store.Get(ctx, Key(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if !found {
		return nil, nil
	}

	var transcript []Message
	if err := json.Unmarshal([]byte(data), &transcript); err != nil {
		s.logger.Warn("discarding unparsable transcript", "session_id", sessionID)
		return nil, nil
	}
	return transcript, nil
}
