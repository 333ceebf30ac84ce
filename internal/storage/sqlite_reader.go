package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/telemetry"
)

const defaultPageSize = 1000

// RecordReader provides an iterator-based interface for reading the tick
// records of a session in tick order.
type RecordReader interface {
	// Session returns metadata about the session this reader is accessing.
	Session() *Session

	// Next advances the iterator and returns true if there is another record
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current record in the iteration.
	Current() *telemetry.Record

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

var _ RecordReader = (*SqliteRecordReader)(nil)

// ReaderOption configures a SqliteRecordReader.
type ReaderOption func(*SqliteRecordReader)

// WithTickRange limits the reader to ticks within [from, to].
func WithTickRange(from, to int64) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.fromTick = &from
		r.toTick = &to
	}
}

// WithMode limits the reader to ticks computed by the named flight mode.
func WithMode(name string) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.mode = name
	}
}

// WithPageSize sets how many records are fetched per query.
func WithPageSize(n int) ReaderOption {
	return func(r *SqliteRecordReader) {
		r.pageSize = n
	}
}

func newSqliteRecordReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteRecordReader, error) {
	rr := &SqliteRecordReader{
		db:        db,
		sessionID: sessionID,
		pageSize:  defaultPageSize,
	}
	for _, opt := range opts {
		opt(rr)
	}
	if err := rr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return rr, nil
}

// SqliteRecordReader implements RecordReader for SQLite database backend.
type SqliteRecordReader struct {
	db   *sql.DB
	stmt *sql.Stmt

	sessionID   int64
	session     *Session
	numTicks    int64
	modeChanges map[int64]*telemetry.ModeChange

	fromTick *int64 // Optional start of tick range filter
	toTick   *int64 // Optional end of tick range filter
	mode     string // Optional flight mode filter
	pageSize int

	page    []*telemetry.Record
	pos     int
	next    int64 // first tick of the next page
	drained bool

	current *telemetry.Record
	err     error
}

func (rr *SqliteRecordReader) init(ctx context.Context) error {
	if rr.db == nil {
		return errors.New("database connection required")
	}
	if rr.sessionID <= 0 {
		return errors.New("session ID required")
	}
	if rr.pageSize <= 0 {
		return fmt.Errorf("page size must be positive: %d given", rr.pageSize)
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: rr.loadSession},
		{msg: "loading mode changes", fn: rr.loadModeChanges},
		{msg: "initializing filters", fn: rr.initFilters},
		{msg: "initializing query", fn: rr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (rr *SqliteRecordReader) loadSession(ctx context.Context) (err error) {
	rr.session, err = loadSession(ctx, rr.db, rr.sessionID)
	return
}

func (rr *SqliteRecordReader) loadModeChanges(ctx context.Context) error {
	changes, err := queryModeChanges(ctx, rr.db, rr.sessionID)
	if err != nil {
		return err
	}

	rr.modeChanges = make(map[int64]*telemetry.ModeChange, len(changes))
	for _, mc := range changes {
		rr.modeChanges[mc.Tick] = mc
	}
	return nil
}

func (rr *SqliteRecordReader) initFilters(ctx context.Context) (err error) {
	if rr.fromTick != nil && rr.toTick != nil && *rr.fromTick > *rr.toTick {
		return fmt.Errorf("start tick %d is after end tick %d", *rr.fromTick, *rr.toTick)
	}

	var first, last int64
	if err = rr.db.QueryRowContext(ctx, selectTickRangeSQL, rr.sessionID).Scan(&first, &last, &rr.numTicks); err != nil {
		return fmt.Errorf("scanning tick range: %w", err)
	}

	if rr.fromTick == nil {
		rr.fromTick = &first
	}
	if rr.toTick == nil {
		rr.toTick = &last
	}
	rr.next = *rr.fromTick
	return nil
}

func (rr *SqliteRecordReader) initQuery(ctx context.Context) (err error) {
	if rr.stmt, err = rr.db.PrepareContext(ctx, selectTicksSQL); err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	return nil
}

func (rr *SqliteRecordReader) fetchPage(ctx context.Context) (err error) {
	rows, err := rr.stmt.QueryContext(ctx, rr.sessionID, rr.next, *rr.toTick, rr.mode, rr.mode, rr.pageSize)
	if err != nil {
		return fmt.Errorf("querying ticks: %w", err)
	}
	defer closeWithError(rows, &err)

	rr.page = rr.page[:0]
	rr.pos = 0

	for rows.Next() {
		var rec *telemetry.Record
		if rec, err = scanTick(rows, rr.session.MaxMotorForce); err != nil {
			return err
		}
		rec.ModeChange = rr.modeChanges[rec.Tick]
		rr.page = append(rr.page, rec)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("reading ticks: %w", err)
	}

	if len(rr.page) < rr.pageSize {
		rr.drained = true
	}
	if n := len(rr.page); n > 0 {
		if last := rr.page[n-1].Tick; last < math.MaxInt64 {
			rr.next = last + 1
		} else {
			rr.drained = true
		}
	}
	return nil
}

// Session returns the session this reader reads from.
func (rr *SqliteRecordReader) Session() *Session {
	return rr.session
}

// Len is the number of ticks recorded for the session, before filtering.
func (rr *SqliteRecordReader) Len() int64 {
	return rr.numTicks
}

func (rr *SqliteRecordReader) Next(ctx context.Context) bool {
	if rr.err != nil || rr.stmt == nil {
		return false
	}

	select {
	case <-ctx.Done():
		rr.err = ctx.Err()
		return false
	default:
	}

	if rr.pos >= len(rr.page) {
		if rr.drained {
			rr.current = nil
			return false
		}
		if rr.err = rr.fetchPage(ctx); rr.err != nil {
			return false
		}
		if len(rr.page) == 0 {
			rr.current = nil
			return false
		}
	}

	rr.current = rr.page[rr.pos]
	rr.pos++
	return true
}

func (rr *SqliteRecordReader) Current() *telemetry.Record {
	return rr.current
}

func (rr *SqliteRecordReader) Error() error {
	return rr.err
}

func (rr *SqliteRecordReader) Close() error {
	if rr.stmt != nil {
		err := rr.stmt.Close()
		rr.stmt = nil
		rr.page = nil
		rr.current = nil
		return err
	}
	return nil
}
