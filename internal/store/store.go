// Package store holds the authoritative, durably persisted list of meals.
//
// A Store starts Uninitialized and becomes Ready once Load has hydrated it
// from its kv.Backend. Appends are applied in memory immediately and the full
// snapshot is written to the backend in the background.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Damianjacob/mealbuddy-mobile/internal/apperror"
	"github.com/Damianjacob/mealbuddy-mobile/internal/kv"
	"github.com/Damianjacob/mealbuddy-mobile/internal/metrics"
	"github.com/Damianjacob/mealbuddy-mobile/internal/model"
)

// DefaultKey is the namespace the meal collection is stored under.
const DefaultKey = "meal-storage"

var (
	ErrNotReady = errors.New("store: not ready")
	ErrClosed   = errors.New("store: closed")
)

// State is the externally visible lifecycle of a Store.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Listener receives a copy of the collection after every change.
// It must not call Append.
type Listener func(meals []model.Meal)

type persistedState struct {
	Meals []model.Meal `json:"meals"`
}

type subscription struct {
	id uint64
	fn Listener
}

// Store is the meal collection.
type Store struct {
	log     *zap.Logger
	backend kv.Backend
	key     string
	writer  *writer

	// mutateMu serializes mutations and the notifications they trigger.
	mutateMu sync.Mutex

	mu      sync.RWMutex
	state   State
	closed  bool
	meals   []model.Meal
	version uint64

	// unreadable is set when hydration failed, until the first append
	// replaces the durable record.
	unreadable bool

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithRetry sets how many times a durable write is attempted and the initial
// backoff between attempts, doubled after each failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.writer.attempts = attempts
		}
		if backoff >= 0 {
			s.writer.backoff = backoff
		}
	}
}

// WithWriteErrorHandler registers a callback for writes that failed every
// attempt. It runs on the writer goroutine and should return quickly.
func WithWriteErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.writer.onFailure = fn }
}

// New returns an Uninitialized store backed by backend and starts its writer.
func New(backend kv.Backend, opts ...Option) *Store {
	s := &Store{
		log:     zap.NewNop(),
		backend: backend,
		key:     DefaultKey,
	}
	s.writer = newWriter(s.log, backend, s.key, s.snapshot)
	for _, opt := range opts {
		opt(s)
	}
	s.writer.log = s.log
	s.writer.key = s.key

	go s.writer.start()
	return s
}

// State reports whether the store has been hydrated.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Load hydrates the store from the backend and makes it Ready. A failed read
// or an undecodable record is logged and returned, and the store still
// becomes Ready with an empty collection. Appends made while the read is in
// flight fail with ErrNotReady.
func (s *Store) Load(ctx context.Context) error {
	if s.State() == Ready {
		return nil
	}

	meals, loadErr := s.read(ctx)

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	if s.State() == Ready {
		return nil
	}
	if loadErr != nil {
		s.log.Error("hydration failed, starting with an empty collection", zap.Error(loadErr))
		meals = nil
	}

	s.mu.Lock()
	s.meals = meals
	s.state = Ready
	s.unreadable = loadErr != nil
	snap := cloneMeals(s.meals)
	s.mu.Unlock()

	s.log.Info("meal store ready", zap.String("key", s.key), zap.Int("meals", len(snap)))
	s.notify(snap)
	return loadErr
}

func (s *Store) read(ctx context.Context) ([]model.Meal, error) {
	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, apperror.NewPersistenceReadError(s.key, err)
	}
	if !found {
		return nil, nil
	}
	var ps persistedState
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return nil, apperror.NewPersistenceReadError(s.key, fmt.Errorf("decoding snapshot: %w", err))
	}
	return ps.Meals, nil
}

// GetAll returns a copy of the meals in insertion order. It is empty until Load completes.
func (s *Store) GetAll() []model.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMeals(s.meals)
}

// Append adds a validated meal with an assigned id to the end of the
// collection and schedules a durable write. Write failures are not returned.
func (s *Store) Append(meal model.Meal) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.state != Ready:
		s.mu.Unlock()
		return ErrNotReady
	}
	s.meals = append(s.meals, meal.Clone())
	s.version++
	overwrite := s.unreadable
	s.unreadable = false
	snap := cloneMeals(s.meals)
	s.mu.Unlock()

	if overwrite {
		s.log.Error("replacing unreadable durable record with the in-memory collection",
			zap.String("key", s.key), zap.Int("meals", len(snap)))
	}

	metrics.RecordAppend()
	s.writer.schedule()
	s.notify(snap)
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Listeners run in registration order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(snap []model.Meal) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// NewID returns a random 128-bit identifier for a new meal.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// NewMeal builds a meal with a fresh id from a validated submission.
func (s *Store) NewMeal(sub model.Submission) model.Meal {
	return model.FromSubmission(s.NewID(), sub)
}

// Flush blocks until every append made so far has been written, returning
// the write error if the last attempt failed.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close rejects further appends, writes any pending snapshot and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mutateMu.Lock()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.mutateMu.Unlock()

	return s.writer.stop(ctx)
}

func (s *Store) snapshot() ([]model.Meal, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meals := make([]model.Meal, len(s.meals))
	copy(meals, s.meals)
	return meals, s.version
}

func cloneMeals(in []model.Meal) []model.Meal {
	out := make([]model.Meal, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
