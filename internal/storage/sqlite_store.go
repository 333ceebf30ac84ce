package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// maxRowsPerInsert keeps a multi-row insert under SQLite's bound variable limit.
const maxRowsPerInsert = 500

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened and the schema initialised on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, meta SessionMeta, config any) (sessionID int64, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, meta.Name, meta.Scenario, meta.DT, meta.MaxMotorForce, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return loadSession(ctx, db, id)
}

func loadSession(ctx context.Context, db *sql.DB, id int64) (session *Session, err error) {
	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session, err = scanSession(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *Session
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreRecords(ctx context.Context, sessionID int64, records []*telemetry.Record) (err error) {
	if len(records) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]any, 0, min(len(records), maxRowsPerInsert)*tickColumns)
	for chunk := range slices.Chunk(records, maxRowsPerInsert) {
		values = values[:0]
		for _, r := range chunk {
			values = appendTickValues(values, sessionID, r)
		}

		if _, err = tx.ExecContext(ctx, insertTicksSQL+valuesPlaceholders(len(chunk), tickColumns), values...); err != nil {
			return fmt.Errorf("batch inserting ticks: %w", err)
		}
	}

	if err = storeModeChanges(ctx, tx, sessionID, records); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func storeModeChanges(ctx context.Context, tx *sql.Tx, sessionID int64, records []*telemetry.Record) (err error) {
	var stmt *sql.Stmt
	for _, r := range records {
		if r.ModeChange == nil {
			continue
		}

		if stmt == nil {
			if stmt, err = tx.PrepareContext(ctx, insertModeChangeSQL); err != nil {
				return fmt.Errorf("preparing statement: %w", err)
			}
			defer closeWithError(stmt, &err)
		}

		mc := r.ModeChange
		if _, err = stmt.ExecContext(ctx, sessionID, mc.Tick, int64(mc.Elapsed), mc.Mode, mc.Previous); err != nil {
			return fmt.Errorf("inserting mode change: %w", err)
		}
	}
	return nil
}

func (s *SqliteStore) ModeChanges(ctx context.Context, sessionID int64) ([]*telemetry.ModeChange, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return queryModeChanges(ctx, db, sessionID)
}

func queryModeChanges(ctx context.Context, db *sql.DB, sessionID int64) (changes []*telemetry.ModeChange, err error) {
	rows, err := db.QueryContext(ctx, selectModeChangesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying mode changes: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var mc telemetry.ModeChange
		var elapsed int64
		if err = rows.Scan(&mc.Tick, &elapsed, &mc.Mode, &mc.Previous); err != nil {
			err = fmt.Errorf("scanning mode change: %w", err)
			return
		}
		mc.Elapsed = time.Duration(elapsed)
		changes = append(changes, &mc)
	}
	err = rows.Err()
	return
}

// ReadRecords creates a reader over the tick records of a session. Records
// are fetched page by page in tick order.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - sessionID: Unique identifier of the session to read from
//   - opts: Optional configuration parameters for the reader (WithTickRange,
//     WithMode, WithPageSize)
//
// Returns error if reader creation fails or session doesn't exist.
func (s *SqliteStore) ReadRecords(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SqliteRecordReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteRecordReader(ctx, db, sessionID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
