package clicks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errUnknown = errors.New("unknown error")

type visitStoreStub struct {
	mu     sync.Mutex
	visits []Visit
	err    error
}

func (s *visitStoreStub) RecordVisit(ctx context.Context, id, clicks int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.visits = append(s.visits, Visit{URLID: id, Clicks: clicks, At: now})
	return nil
}

func (s *visitStoreStub) recorded() []Visit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Visit, len(s.visits))
	copy(out, s.visits)
	return out
}

func setupRecorder(t testing.TB, store *visitStoreStub, opts ...Option) *Recorder {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRecorder(logger, store, opts...)
}

func TestRecorder_Run(t *testing.T) {
	t.Run("persists queued visits", func(t *testing.T) {
		store := new(visitStoreStub)
		recorder := setupRecorder(t, store)

		now := time.Now()
		recorder.Record(Visit{URLID: 1, Clicks: 6, At: now})
		recorder.Record(Visit{URLID: 2, Clicks: 1, At: now})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, recorder.Run(ctx))

		visits := store.recorded()
		assert.Len(t, visits, 2)
		assert.Equal(t, int64(1), visits[0].URLID)
		assert.Equal(t, int64(6), visits[0].Clicks)
		assert.Equal(t, int64(2), visits[1].URLID)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		store := &visitStoreStub{err: errUnknown}
		recorder := setupRecorder(t, store)

		recorder.Record(Visit{URLID: 1, Clicks: 6, At: time.Now()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, recorder.Run(ctx))
		assert.Empty(t, store.recorded())
	})

	t.Run("flushes remaining visits on shutdown", func(t *testing.T) {
		store := new(visitStoreStub)
		recorder := setupRecorder(t, store)

		for i := int64(1); i <= 10; i++ {
			recorder.Record(Visit{URLID: i, Clicks: 1, At: time.Now()})
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, recorder.Run(ctx))
		assert.Len(t, store.recorded(), 10)
	})
}

func TestRecorder_Record(t *testing.T) {
	t.Run("never blocks when queue is full", func(t *testing.T) {
		store := new(visitStoreStub)
		recorder := setupRecorder(t, store, WithQueueSize(1))

		recorder.Record(Visit{URLID: 1, Clicks: 1, At: time.Now()})

		done := make(chan struct{})
		go func() {
			// The queue holds one event; these are dropped, not blocked on.
			recorder.Record(Visit{URLID: 2, Clicks: 1, At: time.Now()})
			recorder.Record(Visit{URLID: 3, Clicks: 1, At: time.Now()})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full queue")
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, recorder.Run(ctx))
		assert.Len(t, store.recorded(), 1)
	})
}
