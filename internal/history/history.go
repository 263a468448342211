// Package history keeps the saved run summaries of each user as a capped,
// newest-first list stored as one JSON value per user key.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/atmx/sim-engine/internal/model"
	"github.com/atmx/sim-engine/internal/store"
)

// MaxEntries caps each user's list; older entries are evicted on save.
const MaxEntries = 50

// ErrStorageUnavailable wraps every persistence failure, including an
// open circuit breaker. Callers may retry.
var ErrStorageUnavailable = errors.New("history: storage unavailable")

// Options tunes the store. Zero values take defaults.
type Options struct {
	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout   time.Duration
	// FailureThreshold is the consecutive failure count that opens the breaker.
	FailureThreshold uint32
	Logger           *slog.Logger
}

// Store reads and writes history lists through a KV.
//
// Save is a read-modify-write of the whole list, so writes to the same key
// are serialized with a per-key mutex. Different keys proceed in parallel.
type Store struct {
	kv     store.KV
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// New creates a history store over kv.
func New(kv store.KV, opts Options) *Store {
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger

	threshold := opts.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "history-kv",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Store{
		kv:     kv,
		cb:     cb,
		logger: logger,
		locks:  make(map[string]*keyLock),
	}
}

// Key returns the storage key for a user's history.
func Key(userID string) string {
	return "history:" + userID
}

// List returns the user's entries, newest first. A user with no saved
// history gets an empty list.
func (s *Store) List(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	return s.load(ctx, Key(userID))
}

// Save prepends entry to the user's list, evicting the oldest entries
// beyond MaxEntries, and returns the list as stored.
func (s *Store) Save(ctx context.Context, userID string, entry model.HistoryEntry) ([]model.HistoryEntry, error) {
	key := Key(userID)
	unlock := s.lock(key)
	defer unlock()

	entries, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	entries = append([]model.HistoryEntry{entry}, entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("history: encode: %w", err)
	}
	if _, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.kv.Set(ctx, key, string(data))
	}); err != nil {
		return nil, s.unavailable("save", key, err)
	}

	s.logger.Info("history saved", "key", key, "entry", entry.ID, "entries", len(entries))
	return entries, nil
}

// Clear removes the user's history.
func (s *Store) Clear(ctx context.Context, userID string) error {
	key := Key(userID)
	unlock := s.lock(key)
	defer unlock()

	if _, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.kv.Remove(ctx, key)
	}); err != nil {
		return s.unavailable("clear", key, err)
	}
	s.logger.Info("history cleared", "key", key)
	return nil
}

func (s *Store) load(ctx context.Context, key string) ([]model.HistoryEntry, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		v, ok, err := s.kv.Get(ctx, key)
		if err != nil || !ok {
			return "", err
		}
		return v, nil
	})
	if err != nil {
		return nil, s.unavailable("load", key, err)
	}

	raw := res.(string)
	if raw == "" {
		return []model.HistoryEntry{}, nil
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, s.unavailable("decode", key, err)
	}
	return entries, nil
}

func (s *Store) unavailable(op, key string, err error) error {
	s.logger.Error("history storage failure", "op", op, "key", key, "error", err)
	return fmt.Errorf("%w: %s %s: %w", ErrStorageUnavailable, op, key, err)
}

// lock acquires the mutex for key and returns its release func. Entries
// are dropped from the map once no goroutine holds or waits on them.
func (s *Store) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}
