package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/signals"
	"github.com/localrank/localrank/server/internal/alerts"
	"github.com/localrank/localrank/server/internal/api"
	"github.com/localrank/localrank/server/internal/config"
	"github.com/localrank/localrank/server/internal/publish"
	"github.com/localrank/localrank/server/internal/receiver"
	"github.com/localrank/localrank/server/internal/session"
	"github.com/localrank/localrank/server/internal/store"
	"github.com/localrank/localrank/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the web UI static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "err", err)
	}

	slog.Info("localrank-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	sc := cfg.Server

	slog.Info("config loaded",
		"http_port", sc.HTTPPort,
		"auth_mode", sc.Auth.Mode,
		"snapshot_ttl", sc.Snapshot.TTL,
		"data_source", sc.DataSource.Type,
		"kafka", sc.Kafka.Enabled(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Snapshot store with background TTL eviction.
	st := store.New(sc.Snapshot.TTL)
	go st.Run(ctx)

	alertEngine := alerts.New(sc.Alerts)

	var pub receiver.Publisher
	if sc.Kafka.Enabled() {
		kp := publish.NewKafkaPublisher(sc.Kafka.Brokers, sc.Kafka.Topic)
		defer kp.Close()
		pub = kp
		slog.Info("publishing snapshots to kafka", "brokers", sc.Kafka.Brokers, "topic", sc.Kafka.Topic)
	}

	// On-demand scoring behind POST /api/v1/score.
	src, err := signals.New(sc.DataSource)
	if err != nil {
		slog.Error("failed to build data source", "err", err)
		os.Exit(1)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	sessions := session.NewManager(score.NewCalculator(src, sc.Scoring.FetchTimeout), sc.Scoring.SessionTTL)
	go sessions.Run(ctx)

	limiter := api.NewIPRateLimiter(sc.Scoring.RateLimit, sc.Scoring.Burst)
	go limiter.Run(ctx, 10*time.Minute)

	apiHandler := api.New(st, alertEngine, sessions, limiter)

	hub := ws.New(apiHandler, ws.DefaultInterval, originChecker(sc.CORS.AllowedOrigins))
	go hub.Run(ctx)

	ingest := receiver.New(st, alertEngine, pub)
	handler := newRouter(sc, routes{
		api:    apiHandler,
		ingest: ingest,
		hub:    hub,
		uiDir:  *uiDir,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("localrank-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	ingest.Wait()
}
