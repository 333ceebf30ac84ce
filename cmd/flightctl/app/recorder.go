package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/flight-control/internal/storage"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// WithMaxBatchSize sets the maximum number of tick records to store within a
// single database transaction.
func WithMaxBatchSize(size int) func(*Recorder) {
	return func(r *Recorder) {
		r.maxBatchSize = size
	}
}

// WithLogger sets the logger for the Recorder.
func WithLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// Recorder buffers the tick records of one session and writes them to the
// store in batches.
type Recorder struct {
	store     storage.Store
	sessionID int64
	buffer    *storage.RecordBuffer
	logger    *slog.Logger

	maxBatchSize int

	stored  int64
	batches int
}

// NewRecorder opens a new session in store and returns a Recorder for it.
func NewRecorder(ctx context.Context, store storage.Store, meta storage.SessionMeta, config any, options ...func(*Recorder)) (*Recorder, error) {
	r := Recorder{
		store:        store,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBatchSize: defaultMaxBatchSize,
	}

	for _, option := range options {
		option(&r)
	}

	var err error
	if r.buffer, err = storage.NewRecordBuffer(r.maxBatchSize, r.maxBatchSize); err != nil {
		return nil, fmt.Errorf("creating record buffer: %w", err)
	}

	if r.sessionID, err = store.CreateSession(ctx, meta, config); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	r.logger.Info("session created", slog.Int64("session", r.sessionID), slog.String("name", meta.Name))
	return &r, nil
}

// SessionID returns the identifier of the session being recorded.
func (r *Recorder) SessionID() int64 {
	return r.sessionID
}

// Stored returns the number of records written to the store so far.
func (r *Recorder) Stored() int64 {
	return r.stored
}

// Record queues rec and writes a batch once the buffer is full.
func (r *Recorder) Record(ctx context.Context, rec *telemetry.Record) error {
	if err := r.buffer.Insert(rec); err != nil {
		return err
	}
	if !r.buffer.IsFull() {
		return nil
	}
	return r.write(ctx, r.buffer.Flush())
}

// Flush writes every queued record.
func (r *Recorder) Flush(ctx context.Context) error {
	return r.write(ctx, r.buffer.DrainAll())
}

func (r *Recorder) write(ctx context.Context, records []*telemetry.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := r.store.StoreRecords(ctx, r.sessionID, records); err != nil {
		return fmt.Errorf("storing records: %w", err)
	}

	r.stored += int64(len(records))
	r.batches++

	r.logger.Debug("records stored",
		slog.Int64("session", r.sessionID),
		slog.Int64("fromTick", records[0].Tick),
		slog.Int64("toTick", records[len(records)-1].Tick),
		slog.Int("batch", r.batches))

	return nil
}
