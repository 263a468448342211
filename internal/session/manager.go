package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/market"
	"github.com/atmx/sim-engine/internal/metrics"
	"github.com/atmx/sim-engine/internal/model"
	"github.com/atmx/sim-engine/internal/report"
	"github.com/atmx/sim-engine/internal/sim"
)

// ErrSessionNotFound is returned for an unknown or swept session id.
var ErrSessionNotFound = errors.New("session: not found")

// Session is one user's simulation run. Its mutex serializes every call
// into the Simulation; different sessions never share state.
type Session struct {
	ID     string
	UserID string

	mu     sync.Mutex
	sim    *sim.Simulation
	report *report.Report // built once, when the run completes
}

// Manager owns the live sessions and sweeps idle ones.
type Manager struct {
	logger      *slog.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	lastUsed map[string]time.Time

	cron *cron.Cron
}

// NewManager creates a manager. Sessions unused for idleTimeout are
// removed by Sweep.
func NewManager(idleTimeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		lastUsed:    make(map[string]time.Time),
	}
}

// Create starts a Configured session. A nil source trades the synthetic
// instrument catalog.
func (m *Manager) Create(userID string, cfg model.SimulationConfig, source market.Source) (*Session, error) {
	if source == nil {
		source = market.NewSynthetic(instrument.Catalog())
	}
	s, err := sim.New(cfg, source)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: uuid.New().String(), UserID: userID, sim: s}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.lastUsed[sess.ID] = m.now()
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	m.logger.Info("session created",
		"session", sess.ID,
		"user", userID,
		"steps", s.Config().TotalSteps,
		"cadence", string(s.Config().Cadence),
		"initial_cash", s.Config().InitialCash.String(),
	)
	return sess, nil
}

// Get returns a session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.lastUsed[id] = m.now()
	return sess, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and
// returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var removed []string
	for id, at := range m.lastUsed {
		if at.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.lastUsed, id)
			removed = append(removed, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if len(removed) > 0 {
		metrics.SessionsSwept.Add(float64(len(removed)))
		m.logger.Info("idle sessions swept", "removed", len(removed), "remaining", n)
	}
	return len(removed)
}

// StartSweeper runs Sweep on a cron schedule such as "@every 5m".
func (m *Manager) StartSweeper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.Sweep() }); err != nil {
		return fmt.Errorf("session sweeper schedule %q: %w", schedule, err)
	}
	m.cron = c
	c.Start()
	m.logger.Info("session sweeper started", "schedule", schedule, "idle_timeout", m.idleTimeout.String())
	return nil
}

// StopSweeper stops the cron scheduler and waits for a running sweep.
func (m *Manager) StopSweeper(ctx context.Context) {
	if m.cron == nil {
		return
	}
	select {
	case <-m.cron.Stop().Done():
	case <-ctx.Done():
	}
}
