package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/session-auth/internal/cache"
	"github.com/pribylovaa/session-auth/internal/config"
	authhttp "github.com/pribylovaa/session-auth/internal/http"
	"github.com/pribylovaa/session-auth/internal/metrics"
	"github.com/pribylovaa/session-auth/internal/password"
	logctx "github.com/pribylovaa/session-auth/internal/pkg/log"
	"github.com/pribylovaa/session-auth/internal/service"
	"github.com/pribylovaa/session-auth/internal/startup"
	"github.com/pribylovaa/session-auth/internal/storage"
	"github.com/pribylovaa/session-auth/internal/storage/mongo"
	"github.com/pribylovaa/session-auth/internal/storage/postgres"
	"github.com/pribylovaa/session-auth/internal/token"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Хранилище: до успешного подключения запросы не принимаются.
	gate := startup.New(startup.Options{
		Attempts:       cfg.DB.ConnectAttempts,
		Delay:          cfg.DB.RetryDelay,
		AttemptTimeout: cfg.DB.ConnectTimeout,
		Logger:         log,
	})

	var str storage.Storage
	err := gate.Run(rootCtx, "user_store", func(ctx context.Context) error {
		s, err := openStorage(ctx, cfg.DB)
		if err != nil {
			return err
		}
		str = s
		return nil
	})
	if err != nil {
		log.Error("storage_unavailable", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()

	sessions, err := openCache(rootCtx, cfg.Cache)
	if err != nil {
		log.Error("cache_init_failed", slog.String("err", err.Error()))
		str.Close()
		os.Exit(1)
	}
	defer func() {
		if cerr := sessions.Close(); cerr != nil {
			log.Warn("cache_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("cache_initialized", slog.String("backend", cfg.Cache.Backend))

	tokens, err := token.New(cfg.Auth)
	if err != nil {
		log.Error("token_manager_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	hasher, err := password.New(cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("password_hasher_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	srvc := service.New(str, sessions, tokens, hasher)
	srvc.SetMetrics(m)
	log.Info("service_initialized")

	apiHandler := authhttp.NewRouter(srvc, tokens, authhttp.Options{
		Logger:        log,
		Timeout:       cfg.Timeouts.Service,
		BasePath:      cfg.HTTP.BasePath,
		SecureCookies: cfg.IsProduction(),
		Metrics:       m,
	})

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/healthz", healthz(
		func() bool { return ready.Load() && gate.Ready() },
		readinessChecks(str, sessions)...,
	))

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// pinger — зависимость, доступность которой входит в readiness.
type pinger interface {
	Ping(ctx context.Context) error
}

// readinessChecks: хранилище проверяется всегда, кэш только если он внешний (Redis).
func readinessChecks(str pinger, sessions cache.SessionCache) []pinger {
	checks := []pinger{str}
	if p, ok := sessions.(pinger); ok {
		checks = append(checks, p)
	}

	return checks
}

// healthz отвечает 200, пока сервис готов и все зависимости отвечают на Ping.
func healthz(ready func() bool, checks ...pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		for _, c := range checks {
			if err := c.Ping(r.Context()); err != nil {
				logctx.From(r.Context()).Warn("readiness_check_failed", slog.String("err", err.Error()))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// openStorage подключается к хранилищу, выбранному по схеме DATABASE_URL.
func openStorage(ctx context.Context, db config.DBConfig) (storage.Storage, error) {
	driver, err := db.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverMongo:
		st, err := mongo.New(ctx, db.URL, db.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		st, err := postgres.New(ctx, db.URL)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// openCache создаёт кэш сессий выбранного бэкенда.
func openCache(ctx context.Context, c config.CacheConfig) (cache.SessionCache, error) {
	switch c.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedis(ctx, c.RedisURL, c.Prefix)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case config.CacheMemory, "":
		return cache.NewMemory(c.Shards), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", c.Backend)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
