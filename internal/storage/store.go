package storage

import (
	"context"

	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// Store records flight controller runs: sessions, per-tick telemetry and
// flight mode transitions.
type Store interface {
	// CreateSession starts a new recorded run and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - meta: Scenario name, file, tick interval and motor force limit of the run
	//   - config: Optional controller configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, meta SessionMeta, config any) (sessionID int64, err error)

	// Session retrieves a specific session by its ID.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)

	// StoreRecords saves a batch of tick records and the mode changes they
	// carry in a single atomic transaction.
	StoreRecords(ctx context.Context, sessionID int64, records []*telemetry.Record) error

	// ModeChanges returns the flight mode transitions of a session in tick order.
	ModeChanges(ctx context.Context, sessionID int64) ([]*telemetry.ModeChange, error)

	// ReadRecords returns a reader over the tick records of a session. The
	// reader must be closed after use.
	ReadRecords(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SqliteRecordReader, error)

	// Close releases all database connections and resources. It is safe to
	// call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
