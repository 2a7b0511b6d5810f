package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/memstore"
	"bookswap/internal/ownership"
	"bookswap/internal/platform/logging"
	"bookswap/internal/platform/metrics"
	"bookswap/internal/platform/pgtx"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

func main() {
	loadEnvFiles()

	cfg, err := loadConfig(nil)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("invalid logging configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, closeStorage, err := openStorage(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer closeStorage()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(ctx, cfg, st, reg, m),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": cfg.Addr, "storage": cfg.StorageDriver}).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// storage is everything the handlers need, backed by Postgres or memory.
type storage struct {
	uow        exchange.UnitOfWork
	exchanges  exchange.Repository
	collection ownership.CollectionRepository
	books      catalog.Repository
	ping       func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg Config, m *metrics.Metrics) (storage, func(), error) {
	switch cfg.StorageDriver {
	case storageMemory:
		store := memstore.New()
		if cfg.SeedFile != "" {
			data, err := memstore.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return storage{}, nil, err
			}
			if err := store.Seed(data); err != nil {
				return storage{}, nil, err
			}
			log.WithField("seed_file", cfg.SeedFile).Info("memory store seeded")
		}
		return memoryStorage(store), func() {}, nil

	default:
		pool, err := openDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return storage{}, nil, err
		}
		runner := pgtx.NewRunner(pool,
			pgtx.WithMaxRetries(cfg.TxMaxRetries),
			pgtx.WithRetryObserver(func(error) { m.ObserveTxRetry() }),
		)
		return storage{
			uow:        exchange.NewPostgresUnitOfWork(runner),
			exchanges:  exchange.NewPostgresRepo(pool, cfg.DBTimeout),
			collection: ownership.NewPostgresRepo(pool, cfg.DBTimeout),
			books:      catalog.NewPostgresRepo(pool, cfg.DBTimeout),
			ping:       pool.Ping,
		}, pool.Close, nil
	}
}

func memoryStorage(store *memstore.Store) storage {
	return storage{
		uow:        store,
		exchanges:  store,
		collection: store,
		books:      store,
		ping:       store.Ping,
	}
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", redactDSN(dsn), err)
	}
	log.Info("database connection OK")
	return pool, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
