// Package clicks implements best-effort click accounting for resolved URLs.
// Visits are handed off through a buffered channel and written to the store
// outside the request path, so a slow or failing write never delays a
// redirect.
package clicks

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 3 * time.Second
)

// Visit is a single successful resolution of a short code.
type Visit struct {
	// URLID is the id of the resolved URL record.
	URLID int64
	// Clicks is the click count to store, i.e. the value observed at
	// resolution time plus one.
	Clicks int64
	// At is the resolution time, used to refresh the record's update timestamp.
	At time.Time
}

// VisitStore persists visit events.
type VisitStore interface {
	RecordVisit(ctx context.Context, id, clicks int64, now time.Time) error
}

// Recorder drains visit events and writes them to the store. Events are
// dropped when the queue is full: click counts are an analytics signal,
// not a billing-grade counter.
type Recorder struct {
	store        VisitStore
	logger       *slog.Logger
	in           chan Visit
	writeTimeout time.Duration
}

type Option func(*Recorder)

func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		r.in = make(chan Visit, n)
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

func NewRecorder(logger *slog.Logger, store VisitStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:        store,
		logger:       logger,
		in:           make(chan Visit, defaultQueueSize),
		writeTimeout: defaultWriteTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record queues a visit for persistence. It never blocks; if the queue is
// full the visit is dropped and logged.
func (r *Recorder) Record(v Visit) {
	const op = "clicks.Recorder.Record"

	select {
	case r.in <- v:
	default:
		r.logger.Warn(
			"visit queue full, dropping visit",
			slog.Group(op, slog.Int64("url_id", v.URLID)),
		)
	}
}

// Run drains the queue until ctx is canceled, then flushes whatever is
// still buffered and returns.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case v := <-r.in:
			r.persist(v)
		case <-ctx.Done():
			for {
				select {
				case v := <-r.in:
					r.persist(v)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) persist(v Visit) {
	const op = "clicks.Recorder.persist"

	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.RecordVisit(ctx, v.URLID, v.Clicks, v.At); err != nil {
		r.logger.Error(
			"failed to record visit",
			slog.Group(op, slog.Int64("url_id", v.URLID), slog.Any("err", err)),
		)
	}
}
