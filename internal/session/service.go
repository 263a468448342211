// Package session provides the HTTP handlers that drive simulation runs:
// creating sessions, advancing steps, placing orders, reporting, and
// saving results to history.
//
// All monetary values use shopspring/decimal, never float64.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/sim-engine/internal/history"
	"github.com/atmx/sim-engine/internal/instrument"
	"github.com/atmx/sim-engine/internal/ledger"
	"github.com/atmx/sim-engine/internal/market"
	"github.com/atmx/sim-engine/internal/metrics"
	"github.com/atmx/sim-engine/internal/model"
	"github.com/atmx/sim-engine/internal/report"
	"github.com/atmx/sim-engine/internal/sim"
)

var (
	// ErrNotCompleted is returned when a report is requested before the
	// run reaches its terminal step.
	ErrNotCompleted = errors.New("session: simulation not completed")

	errBadRequest = errors.New("session: bad request")
)

const (
	dateLayout   = "2006-01-02"
	recentTrades = 10
)

// Service handles simulation sessions over HTTP.
type Service struct {
	sessions *Manager
	history  *history.Store
	reports  *report.Builder
	hub      *Hub // optional WebSocket hub for event broadcasts
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a session service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(sessions *Manager, hist *history.Store, reports *report.Builder, hub *Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: sessions,
		history:  hist,
		reports:  reports,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes registers the API under r, normally mounted at /api/v1.
func (s *Service) Routes(r chi.Router) {
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	r.Get("/instruments", s.ListInstruments)

	r.Post("/simulations", s.CreateSimulation)
	r.Route("/simulations/{id}", func(r chi.Router) {
		r.Get("/", s.GetSimulation)
		r.Post("/advance", s.Advance)
		r.Post("/orders", s.PlaceOrder)
		r.Get("/report", s.GetReport)
		r.Post("/history", s.SaveHistory)
	})

	r.Get("/users/{userID}/history", s.ListHistory)
	r.Delete("/users/{userID}/history", s.ClearHistory)
}

// --- Request/Response types ---

// CreateRequest is the JSON body for POST /simulations. Quotes, when
// present, is the per-step price table (index 0 is step 1); otherwise the
// run trades the synthetic instrument catalog.
type CreateRequest struct {
	UserID      string           `json:"user_id"`
	StartDate   string           `json:"start_date"`         // 2006-01-02
	EndDate     string           `json:"end_date,omitempty"` // 2006-01-02
	Cadence     model.Cadence    `json:"cadence,omitempty"`
	InitialCash decimal.Decimal  `json:"initial_cash"`
	Difficulty  model.Difficulty `json:"difficulty,omitempty"`
	TotalSteps  int              `json:"total_steps,omitempty"`
	Quotes      [][]model.Quote  `json:"quotes,omitempty"`
}

// OrderRequest is the JSON body for POST /simulations/{id}/orders.
type OrderRequest struct {
	Side     string `json:"side"` // "BUY" or "SELL"
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// View is the JSON state of a session.
type View struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id,omitempty"`
	State      sim.State           `json:"state"`
	Step       int                 `json:"step"`
	TotalSteps int                 `json:"total_steps"`
	Date       string              `json:"date,omitempty"`
	Cash       decimal.Decimal     `json:"cash"`
	Valuation  decimal.Decimal     `json:"valuation"`
	Holdings   []ledger.Position   `json:"holdings"`
	Quotes     []model.Quote       `json:"quotes"`
	Recent     []model.Transaction `json:"recent_transactions"`
}

// OrderResponse is returned from a filled order.
type OrderResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Cash        decimal.Decimal   `json:"cash"`
	Valuation   decimal.Decimal   `json:"valuation"`
}

// SaveHistoryResponse is returned from POST /simulations/{id}/history.
type SaveHistoryResponse struct {
	Entry   model.HistoryEntry `json:"entry"`
	Entries int                `json:"entries"`
}

// --- HTTP Handlers ---

// ListInstruments handles GET /api/v1/instruments
func (s *Service) ListInstruments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, instrument.Catalog())
}

// CreateSimulation handles POST /api/v1/simulations
func (s *Service) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg, err := req.config()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	var source market.Source
	if len(req.Quotes) > 0 {
		source = market.NewTable(req.Quotes)
	}

	sess, err := s.sessions.Create(strings.TrimSpace(req.UserID), cfg, source)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	sess.mu.Lock()
	view := viewOf(sess)
	sess.mu.Unlock()

	s.publish(Event{Type: EventSessionCreated, SessionID: sess.ID})
	writeJSON(w, http.StatusCreated, view)
}

func (req CreateRequest) config() (model.SimulationConfig, error) {
	cfg := model.SimulationConfig{
		Cadence:     model.Cadence(strings.ToLower(string(req.Cadence))),
		InitialCash: req.InitialCash,
		Difficulty:  model.Difficulty(strings.ToLower(string(req.Difficulty))),
		TotalSteps:  req.TotalSteps,
	}
	var err error
	if cfg.StartDate, err = time.Parse(dateLayout, req.StartDate); err != nil {
		return cfg, fmt.Errorf("%w: start_date must be YYYY-MM-DD", errBadRequest)
	}
	if req.EndDate != "" {
		if cfg.EndDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
			return cfg, fmt.Errorf("%w: end_date must be YYYY-MM-DD", errBadRequest)
		}
	}
	if cfg.TotalSteps == 0 && cfg.EndDate.IsZero() && len(req.Quotes) > 0 {
		cfg.TotalSteps = len(req.Quotes)
	}
	return cfg, nil
}

// GetSimulation handles GET /api/v1/simulations/{id}
func (s *Service) GetSimulation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	view := viewOf(sess)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

// Advance handles POST /api/v1/simulations/{id}/advance
// Moves to the next step; advancing past the last step completes the run.
func (s *Service) Advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := sess.sim.Advance(); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	if sess.sim.Done() {
		rep := s.buildReport(sess)
		s.logger.Info("simulation completed",
			"session", sess.ID,
			"grade", rep.Grade.Letter,
			"return_pct", rep.Overview.ReturnPct,
			"final_value", rep.Overview.FinalValue.String(),
		)
		s.publish(Event{Type: EventCompleted, SessionID: sess.ID, Grade: rep.Grade.Letter})
	} else {
		metrics.StepsAdvanced.Inc()
		s.publish(Event{
			Type:      EventStepAdvanced,
			SessionID: sess.ID,
			Step:      sess.sim.Step(),
			Date:      sess.sim.Date().Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// PlaceOrder handles POST /api/v1/simulations/{id}/orders
// Fills at the current step's price or rejects without changing state.
func (s *Service) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	side := model.Side(strings.ToUpper(strings.TrimSpace(req.Side)))
	if side != model.Buy && side != model.Sell {
		writeError(w, "side must be BUY or SELL", http.StatusBadRequest)
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// Serialize orders within the session.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	tx, err := sess.sim.Order(side, req.Symbol, req.Quantity)
	metrics.OrderLatency.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())
	metrics.OrdersTotal.WithLabelValues(string(side), outcome(err)).Inc()
	if err != nil {
		s.logger.Info("order rejected",
			"session", sess.ID,
			"side", string(side),
			"symbol", req.Symbol,
			"qty", req.Quantity,
			"err", err,
		)
		writeError(w, err.Error(), statusFor(err))
		return
	}

	resp := OrderResponse{
		Transaction: tx,
		Cash:        sess.sim.Cash(),
		Valuation:   sess.sim.Valuation(),
	}

	s.logger.Info("order filled",
		"session", sess.ID,
		"tx", tx.ID,
		"side", string(tx.Side),
		"symbol", tx.Symbol,
		"qty", tx.Quantity,
		"price", tx.Price.String(),
		"total", tx.TotalAmount.String(),
		"step", tx.Step,
	)

	s.publish(Event{
		Type:      EventOrderFilled,
		SessionID: sess.ID,
		Step:      tx.Step,
		Side:      string(tx.Side),
		Symbol:    tx.Symbol,
		Quantity:  tx.Quantity,
		Price:     tx.Price.String(),
	})
	writeJSON(w, http.StatusOK, resp)
}

// GetReport handles GET /api/v1/simulations/{id}/report
// Only available once the run is Completed.
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	rep, err := s.reportFor(sess)
	sess.mu.Unlock()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// SaveHistory handles POST /api/v1/simulations/{id}/history
// Appends the completed run's summary to the session user's history.
func (s *Service) SaveHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.UserID == "" {
		writeError(w, "session has no user_id", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	rep, err := s.reportFor(sess)
	sess.mu.Unlock()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	entry := history.EntryFromReport(rep, s.now())
	entries, err := s.history.Save(r.Context(), sess.UserID, entry)
	metrics.HistoryOps.WithLabelValues("save", result(err)).Inc()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.publish(Event{Type: EventHistorySaved, SessionID: sess.ID, Grade: entry.Grade})
	writeJSON(w, http.StatusCreated, SaveHistoryResponse{Entry: entry, Entries: len(entries)})
}

// ListHistory handles GET /api/v1/users/{userID}/history
func (s *Service) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context(), chi.URLParam(r, "userID"))
	metrics.HistoryOps.WithLabelValues("list", result(err)).Inc()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ClearHistory handles DELETE /api/v1/users/{userID}/history
func (s *Service) ClearHistory(w http.ResponseWriter, r *http.Request) {
	err := s.history.Clear(r.Context(), chi.URLParam(r, "userID"))
	metrics.HistoryOps.WithLabelValues("clear", result(err)).Inc()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func (s *Service) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// reportFor returns the session's report. Caller holds sess.mu.
func (s *Service) reportFor(sess *Session) (report.Report, error) {
	if !sess.sim.Done() {
		return report.Report{}, ErrNotCompleted
	}
	return s.buildReport(sess), nil
}

// buildReport builds the report once and caches it. Caller holds sess.mu.
func (s *Service) buildReport(sess *Session) report.Report {
	if sess.report == nil {
		rep := s.reports.Build(sess.sim.Snapshot())
		sess.report = &rep
		metrics.ReportsGenerated.WithLabelValues(rep.Grade.Letter).Inc()
	}
	return *sess.report
}

func (s *Service) publish(ev Event) {
	if s.hub != nil {
		s.hub.Publish(ev)
	}
}

// viewOf snapshots a session. Caller holds sess.mu.
func viewOf(sess *Session) View {
	sm := sess.sim
	v := View{
		ID:         sess.ID,
		UserID:     sess.UserID,
		State:      sm.State(),
		Step:       sm.StepsPlayed(),
		TotalSteps: sm.Config().TotalSteps,
		Cash:       sm.Cash(),
		Valuation:  sm.Valuation(),
		Holdings:   sm.Positions(),
		Quotes:     sm.Quotes(),
		Recent:     sm.Recent(recentTrades),
	}
	if !sm.Date().IsZero() {
		v.Date = sm.Date().Format(dateLayout)
	}
	return v
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest),
		errors.Is(err, sim.ErrInvalidConfig),
		errors.Is(err, ledger.ErrInvalidOrder),
		errors.Is(err, instrument.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, sim.ErrUnknownSymbol),
		errors.Is(err, sim.ErrNotStarted),
		errors.Is(err, sim.ErrSimulationFinished),
		errors.Is(err, ErrNotCompleted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// outcome is the order metric label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "filled"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, sim.ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, sim.ErrNotStarted), errors.Is(err, sim.ErrSimulationFinished):
		return "not_running"
	}
	return "invalid"
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
