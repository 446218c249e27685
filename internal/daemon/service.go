// Package daemon provides the background watcher that polls the finance
// API and serves the latest snapshot over HTTP and SSE.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/model"
	"github.com/theirongolddev/finboard/internal/pipeline"
)

// DefaultAddr is the status listener used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8788"

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventDelta       = "balance_delta"
	EventBudgetAlert = "budget_alert"
)

// Poller loads the pages the watcher summarizes. *pipeline.Loader
// satisfies it.
type Poller interface {
	Overview(ctx context.Context) (pipeline.OverviewPage, error)
	Forecast(ctx context.Context) (pipeline.ForecastPage, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	APIURL       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Log          zerolog.Logger
}

// Snapshot is a compact financial state for status/event payloads.
type Snapshot struct {
	At             time.Time       `json:"at"`
	Balance        decimal.Decimal `json:"balance"`
	Income         decimal.Decimal `json:"income"`
	Expenses       decimal.Decimal `json:"expenses"`
	PendingNet     decimal.Decimal `json:"pending_net"`
	BurnRate       decimal.Decimal `json:"burn_rate"`
	RunwayMonths   decimal.Decimal `json:"runway_months"`
	BudgetUsage    decimal.Decimal `json:"budget_usage_pct"`
	BudgetWarning  int             `json:"budget_warning"`
	BudgetDanger   int             `json:"budget_danger"`
	DangerBudgets  []string        `json:"danger_budgets,omitempty"`
	ForecastEnd    decimal.Decimal `json:"forecast_end"`
	ForecastLowest decimal.Decimal `json:"forecast_lowest"`
	ForecastGrowth string          `json:"forecast_growth"`
	Issues         int             `json:"issues"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Balance     decimal.Decimal `json:"balance"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	ForecastEnd decimal.Decimal `json:"forecast_end"`
}

func (d Delta) isZero() bool {
	return d.Balance.IsZero() &&
		d.Income.IsZero() &&
		d.Expenses.IsZero() &&
		d.ForecastEnd.IsZero()
}

// Event is emitted whenever the snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	// Budgets lists categories that newly crossed into danger.
	Budgets []string `json:"budgets,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	APIURL          string    `json:"api_url"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	poller Poller
	log    zerolog.Logger
	router *chi.Mux

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service that polls p.
func New(cfg Config, p Poller) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Service{
		cfg:       cfg,
		poller:    p,
		log:       cfg.Log.With().Str("component", "daemon").Logger(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.router }

func (s *Service) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts the HTTP endpoints and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce loads the overview and forecast together. A failed poll keeps
// the previous snapshot and records the error.
func (s *Service) pollOnce(ctx context.Context) {
	var (
		overview pipeline.OverviewPage
		forecast pipeline.ForecastPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview, err = s.poller.Overview(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.poller.Forecast(gctx)
		return err
	})

	now := time.Now()
	if err := g.Wait(); err != nil {
		msg := err.Error()
		if errors.Is(err, api.ErrUnauthorized) {
			msg = "not signed in: run finboard login"
		}
		s.mu.Lock()
		s.lastError = msg
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("poll failed")
		return
	}

	snap := snapshotFrom(overview, forecast, now)

	var events []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		events = append(events, Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap})
	} else {
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			s.nextEventID++
			events = append(events, Event{ID: s.nextEventID, Type: EventDelta, Timestamp: now, Snapshot: snap, Delta: delta})
		}
		if crossed := newlyDanger(prev, snap); len(crossed) > 0 {
			s.nextEventID++
			events = append(events, Event{ID: s.nextEventID, Type: EventBudgetAlert, Timestamp: now, Snapshot: snap, Budgets: crossed})
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.log.Info().Int64("id", ev.ID).Str("type", ev.Type).Msg("event")
		s.publishEvent(ev)
	}
}

func snapshotFrom(o pipeline.OverviewPage, f pipeline.ForecastPage, at time.Time) Snapshot {
	done := o.Summary.Completed
	var danger []string
	for _, it := range o.Budget.Items {
		if it.Tier() == model.TierDanger {
			danger = append(danger, it.Category)
		}
	}
	return Snapshot{
		At:             at,
		Balance:        done.NetAmount,
		Income:         done.TotalIncome,
		Expenses:       done.TotalExpenses,
		PendingNet:     o.Summary.Pending.NetAmount,
		BurnRate:       done.BurnRate,
		RunwayMonths:   done.Runway,
		BudgetUsage:    o.Budget.UsagePercent(),
		BudgetWarning:  o.Budget.CountTier(model.TierWarning),
		BudgetDanger:   len(danger),
		DangerBudgets:  danger,
		ForecastEnd:    f.Forecast.EndBalance(),
		ForecastLowest: f.Forecast.LowestBalance(),
		ForecastGrowth: f.Forecast.GrowthLabel(),
		Issues:         len(o.Issues) + len(f.Issues),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Balance:     curr.Balance.Sub(prev.Balance),
		Income:      curr.Income.Sub(prev.Income),
		Expenses:    curr.Expenses.Sub(prev.Expenses),
		ForecastEnd: curr.ForecastEnd.Sub(prev.ForecastEnd),
	}
}

// newlyDanger returns categories in danger now that were not before.
func newlyDanger(prev, curr Snapshot) []string {
	var out []string
	for _, c := range curr.DangerBudgets {
		if !slices.Contains(prev.DangerBudgets, c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		APIURL:          s.cfg.APIURL,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
