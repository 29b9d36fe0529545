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

	"github.com/bencan1a/RedditRanger/detector/cachestore"
	"github.com/bencan1a/RedditRanger/detector/classifier"
	"github.com/bencan1a/RedditRanger/detector/countstore"
	"github.com/bencan1a/RedditRanger/detector/engine"
	"github.com/bencan1a/RedditRanger/detector/textanalyzer"
	"github.com/bencan1a/RedditRanger/models"
	"github.com/bencan1a/RedditRanger/ratelimit"
	"github.com/bencan1a/RedditRanger/util/cliutil"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"
)

// ResultCacheTTL is how long a computed analysis is considered fresh and
// served without re-scoring.
const ResultCacheTTL = time.Hour

type Config struct {
	Logger          *slog.Logger
	Bind            string
	MetricsListen   string
	DatabaseURL     string
	MaxDBConns      int
	RedisURL        string
	ModelCacheDir   string
	RateLimitBurst  int
	RateLimitRefill float64
	CacheTTL        time.Duration
}

type Server struct {
	cfg    Config
	logger *slog.Logger
	echo   *echo.Echo
	httpd  *http.Server

	db         *gorm.DB
	scorer     *engine.AccountScorer
	classifier *classifier.Classifier
	analyzer   *textanalyzer.Analyzer
	limiter    *ratelimit.Limiter
	counts     countstore.CountStore
	cache      cachestore.ResultCache
}

func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = ResultCacheTTL
	}

	db, err := cliutil.SetupDatabase(cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("running database migration: %w", err)
	}

	var counts countstore.CountStore
	var cache cachestore.ResultCache
	if cfg.RedisURL != "" {
		counts, err = countstore.NewRedisCountStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting redis countstore: %w", err)
		}
		cache, err = cachestore.NewRedisResultCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting redis result cache: %w", err)
		}
	} else {
		counts = countstore.NewMemCountStore()
		cache = cachestore.NewMemResultCache(10_000, cfg.CacheTTL)
	}

	clsf := classifier.New(classifier.Config{
		CacheDir: cfg.ModelCacheDir,
		Logger:   logger.With("system", "classifier"),
	})

	srv := &Server{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		scorer:     engine.NewAccountScorer(logger.With("system", "scorer"), clsf),
		classifier: clsf,
		analyzer:   textanalyzer.NewAnalyzer(),
		limiter:    ratelimit.NewLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
		counts:     counts,
		cache:      cache,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M"))
	e.HTTPErrorHandler = srv.errorHandler

	e.GET("/health", srv.handleHealth)
	e.POST("/api/v1/analyze", srv.handleAnalyze)
	e.POST("/api/v1/feedback", srv.handleFeedback)
	e.GET("/api/v1/stats", srv.handleStats)

	srv.echo = e
	srv.httpd = &http.Server{
		Handler:        e,
		Addr:           cfg.Bind,
		WriteTimeout:   15 * time.Second,
		ReadTimeout:    15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return srv, nil
}

// RunUntilSignal serves the API and the metrics listener until SIGINT or
// SIGTERM, then shuts down gracefully.
func (srv *Server) RunUntilSignal() error {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv.logger.Info("metrics listening", "addr", srv.cfg.MetricsListen)
		if err := http.ListenAndServe(srv.cfg.MetricsListen, mux); err != nil {
			srv.logger.Error("metrics listener failed", "err", err)
			os.Exit(1)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("api listening", "addr", srv.cfg.Bind)
		errCh <- srv.httpd.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-quit:
		srv.logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.httpd.Shutdown(ctx)
	}
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal server error"
	var httpError *echo.HTTPError
	if errors.As(err, &httpError) {
		code = httpError.Code
		if s, ok := httpError.Message.(string); ok {
			msg = s
		}
	}
	if code >= 500 {
		srv.logger.Warn("request failed", "path", c.Path(), "err", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]any{"error": msg})
	}
}
