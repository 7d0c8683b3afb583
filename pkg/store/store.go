// Package store persists submitted transfers in a local SQLite table and
// serves live queries over them. Writes are serialized behind one mutex;
// observers receive a fresh snapshot synchronously after every committed
// mutation, so the last delivered snapshot always reflects the latest state.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS transfers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	service_key TEXT NOT NULL,
	service_label TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	amount REAL NOT NULL,
	account_or_msisdn TEXT,
	first_name TEXT,
	last_name TEXT,
	gender TEXT,
	province_state TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transfers_created_at ON transfers (created_at);
CREATE INDEX IF NOT EXISTS idx_transfers_service_label ON transfers (service_label);
CREATE INDEX IF NOT EXISTS idx_transfers_provider_name ON transfers (provider_name);
`

// Store owns the transfers table and the set of live-query subscribers.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
	now func() time.Time

	// mu serializes writers against each other and against subscriber
	// notification, so a subscriber never observes a half-written row.
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextSub int
}

// Option configures a Store before it opens.
type Option func(*Store)

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithClock overrides the timestamp source, used by tests to pin createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the SQLite database at path and ensures the
// transfers table and its indexes exist. Use ":memory:" for an ephemeral
// store.
func Open(path string, options ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// SQLite handles one writer at a time; a second connection would only
	// produce SQLITE_BUSY under our serialized write model.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	s := &Store{
		db:   db,
		log:  zerolog.Nop(),
		now:  time.Now,
		subs: make(map[int]*subscriber),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close releases the underlying database. Open subscriptions stop receiving
// snapshots.
func (s *Store) Close() error {
	s.mu.Lock()
	s.subs = make(map[int]*subscriber)
	s.mu.Unlock()
	return s.db.Close()
}

// Insert writes one transfer row, assigns the next surrogate id, and returns
// it. Validation has already happened upstream; failures here are I/O errors
// and propagate unretried. CreatedAt defaults to the current time in epoch
// milliseconds when unset.
func (s *Store) Insert(ctx context.Context, record TransferRecord) (int64, error) {
	if record.CreatedAt == 0 {
		record.CreatedAt = s.now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO transfers (service_key, service_label, provider_name, amount,
			account_or_msisdn, first_name, last_name, gender, province_state, created_at)
		VALUES (:service_key, :service_label, :provider_name, :amount,
			:account_or_msisdn, :first_name, :last_name, :gender, :province_state, :created_at)
	`, record)
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert id: %w", err)
	}

	s.log.Debug().Int64("id", id).Str("service", record.ServiceKey).Msg("transfer inserted")
	s.notifyLocked(ctx)
	return id, nil
}

// Delete removes the row with the given id. Deleting an id that does not
// exist is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %d: %w", id, err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		s.log.Debug().Int64("id", id).Msg("transfer deleted")
		s.notifyLocked(ctx)
	}
	return nil
}

// Count returns the current number of transfer rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transfers`); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return count, nil
}

func (s *Store) selectAll(ctx context.Context) ([]TransferRecord, error) {
	var records []TransferRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT * FROM transfers
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: select all: %w", err)
	}
	return records, nil
}

// selectFiltered applies the history view's filter contract: a nil service
// filter admits every label, an empty query applies no text filter, and a
// non-empty query must appear as a case-sensitive substring of the provider
// name or the account/MSISDN. Filter and query combine with AND.
func (s *Store) selectFiltered(ctx context.Context, serviceFilter *string, query string) ([]TransferRecord, error) {
	service := ""
	hasService := 0
	if serviceFilter != nil {
		service = *serviceFilter
		hasService = 1
	}

	var records []TransferRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT * FROM transfers
		WHERE (? = 0 OR service_label = ?)
		  AND (? = ''
		       OR instr(provider_name, ?) > 0
		       OR instr(COALESCE(account_or_msisdn, ''), ?) > 0)
		ORDER BY created_at DESC, id DESC
	`, hasService, service, query, query, query)
	if err != nil {
		return nil, fmt.Errorf("store: select filtered: %w", err)
	}
	return records, nil
}

func (s *Store) selectDistinctServices(ctx context.Context) ([]string, error) {
	var labels []string
	err := s.db.SelectContext(ctx, &labels, `
		SELECT DISTINCT service_label FROM transfers
		ORDER BY service_label ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: distinct services: %w", err)
	}
	return labels, nil
}
