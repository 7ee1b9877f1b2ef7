package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/kv"
	"github.com/Damianjacob/mealbuddy-mobile/internal/metrics"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
)

const writeTimeout = 5 * time.Second

// writer owns every durable write. Signals coalesce in a single-slot channel
// and each write serializes the latest full snapshot, so a newer write always
// supersedes an older one.
type writer struct {
	log       *zap.Logger
	backend   kv.Backend
	key       string
	snapshot  func() ([]model.Meal, uint64)
	attempts  int
	backoff   time.Duration
	onFailure func(error)

	pending  chan struct{}
	flushReq chan chan error
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// persisted is only touched by the writer goroutine.
	persisted uint64
	// finalErr is the result of the write performed on stop, readable once done is closed.
	finalErr error
}

func newWriter(log *zap.Logger, backend kv.Backend, key string, snapshot func() ([]model.Meal, uint64)) *writer {
	return &writer{
		log:      log,
		backend:  backend,
		key:      key,
		snapshot: snapshot,
		attempts: 3,
		backoff:  200 * time.Millisecond,
		pending:  make(chan struct{}, 1),
		flushReq: make(chan chan error),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// schedule marks the snapshot dirty without blocking.
func (w *writer) schedule() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *writer) start() {
	defer close(w.done)
	for {
		select {
		case <-w.pending:
			_ = w.write()
		case reply := <-w.flushReq:
			reply <- w.write()
		case <-w.quit:
			w.finalErr = w.write()
			return
		}
	}
}

// flush waits for a write of the current snapshot.
func (w *writer) flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop performs a final write and waits for the goroutine to exit.
func (w *writer) stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.quit) })
	select {
	case <-w.done:
		return w.finalErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) write() error {
	meals, version := w.snapshot()
	if version == w.persisted {
		return nil
	}

	payload, err := json.Marshal(persistedState{Meals: meals})
	if err != nil {
		return w.fail(err, len(meals), 0)
	}

	start := time.Now()
	backoff := w.backoff
	for i := 1; i <= w.attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = w.backend.Set(ctx, w.key, string(payload))
		cancel()
		if err == nil {
			break
		}
		w.log.Warn("snapshot write failed", zap.Int("attempt", i), zap.Error(err))
		if i < w.attempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	duration := time.Since(start)
	if err != nil {
		return w.fail(err, len(meals), duration)
	}

	w.persisted = version
	metrics.RecordWrite(true, duration)
	w.log.Debug("snapshot persisted",
		zap.Int("size", len(meals)),
		zap.Uint64("version", version),
		zap.Duration("duration", duration))
	return nil
}

func (w *writer) fail(err error, size int, duration time.Duration) error {
	perr := apperror.NewPersistenceWriteError(w.key, err)
	metrics.RecordWrite(false, duration)
	w.log.Error("snapshot write abandoned",
		zap.Int("attempts", w.attempts),
		zap.Int("size", size),
		zap.Error(perr))
	if w.onFailure != nil {
		w.onFailure(perr)
	}
	return perr
}
