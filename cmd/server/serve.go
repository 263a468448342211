package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/atmx/sim-engine/internal/config"
	"github.com/atmx/sim-engine/internal/history"
	"github.com/atmx/sim-engine/internal/metrics"
	"github.com/atmx/sim-engine/internal/report"
	"github.com/atmx/sim-engine/internal/session"
	"github.com/atmx/sim-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation HTTP service",
	Long: `Serve the simulation API on $PORT. History is kept in PostgreSQL when
DATABASE_URL is set (with an optional Redis read-through cache from
REDIS_URL) and in memory otherwise.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	kv, cleanup, err := openKV(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	hist := history.New(kv, history.Options{
		BreakerTimeout: cfg.BreakerTimeout,
		Logger:         logger,
	})
	reports := report.NewBuilder(nil, cfg.DisplayCurrency)

	// --- Sessions ---
	sessions := session.NewManager(cfg.Session.IdleTimeout, logger)
	if err := sessions.StartSweeper(cfg.Session.SweepSchedule); err != nil {
		return err
	}

	// --- WebSocket hub ---
	hub := session.NewHub(logger)
	go hub.Run(ctx)

	svc := session.NewService(sessions, hist, reports, hub, logger)
	limiter := session.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"sim-engine","sessions":%d}`, sessions.Len())
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Route("/api/v1", svc.Routes)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("sim-engine listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down sim-engine...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	sessions.StopSweeper(shutdownCtx)
	logger.Info("sim-engine stopped")
	return nil
}

// openKV picks the history backend: PostgreSQL (optionally behind Redis)
// when DATABASE_URL is set, otherwise an in-memory map.
func openKV(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.KV, func(), error) {
	var cleanup []func()
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store (history will not persist)")
		return store.NewMemoryKV(), closeAll, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	cleanup = append(cleanup, pool.Close)

	pg := store.NewPostgresKV(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	var kv store.KV = pg
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })

		cached := store.NewCachedKV(pg, rdb, cfg.Redis.CacheTTL)
		if err := cached.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, reads will fall back to PostgreSQL", "err", err)
		}
		kv = cached
		logger.Info("Redis cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}
	return kv, closeAll, nil
}
