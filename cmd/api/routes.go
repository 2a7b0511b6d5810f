package main

import (
	"context"
	"net/http"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/httpx"
	"bookswap/internal/ownership"
	"bookswap/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newRouter(ctx context.Context, cfg Config, st storage, reg *prometheus.Registry, m *metrics.Metrics) http.Handler {
	catalogService := catalog.NewService(st.books)
	exchangeService := exchange.NewService(st.uow, st.exchanges, catalogService)
	coordinator := exchange.NewCoordinator(st.uow, m)
	collectionService := ownership.NewService(st.collection, catalogService)

	auth := httpx.AuthMiddleware(cfg.JWTSecret)
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := st.ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	router.HandleFunc("GET /v1/catalog/books/{isbn}", catalog.NewHTTPHandler(catalogService).GetByISBN)
	exchange.NewHTTPHandler(exchangeService, coordinator).Register(router, auth)
	ownership.NewHTTPHandler(collectionService).Register(router, auth)

	rateLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(m),
		httpx.RecoveryMiddleware,
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		rateLimiter.Middleware,
	)
}
