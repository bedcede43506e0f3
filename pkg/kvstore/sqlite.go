package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// This backend provides durable storage and is suitable for single-instance
// deployments where session and counter state must survive restarts.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent performance.
// Expired rows are filtered on read and removed in bulk by PurgeExpired,
// which the Sweeper runs on a schedule.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	now       func() time.Time
	closeOnce sync.Once

	// Pre-compiled statements for the hot path.
	getStmt   *sql.Stmt
	putStmt   *sql.Stmt
	purgeStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewSQLiteStore creates a new SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a new SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
		now:    cfg.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates the kv table if it does not exist.
func (s *SQLiteStore) initSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			k          TEXT PRIMARY KEY,
			v          TEXT NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// prepareStatements pre-compiles the statements used on the request path.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(
		`SELECT v FROM kv WHERE k = ? AND (expires_at = 0 OR expires_at > ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.putStmt, err = s.db.Prepare(
		`INSERT INTO kv (k, v, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.purgeStmt, err = s.db.Prepare(
		`DELETE FROM kv WHERE expires_at != 0 AND expires_at <= ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare purge statement: %w", err)
	}

	return nil
}

// Get retrieves the value at key. Expired rows are reported as absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.getStmt.QueryRowContext(ctx, key, s.now().UnixMilli()).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return value, true, nil
}

// Put writes value at key, replacing any existing row and its expiry.
func (s *SQLiteStore) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}

	if _, err := s.putStmt.ExecContext(ctx, key, value, expiresAt); err != nil {
		return unavailable("put", err)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns the number
// of rows deleted. Reads already filter expired rows, so purging only
// reclaims space; the Sweeper calls this on a schedule.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	result, err := s.purgeStmt.ExecContext(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, unavailable("purge", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

// Close closes prepared statements and the database connection.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.purgeStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}
