package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"assessment-engine/internal/api"
	"assessment-engine/internal/backend"
	"assessment-engine/internal/catalog"
	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/database"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/observability"
	"assessment-engine/internal/engine/checkpoint"
	"assessment-engine/internal/engine/matching"
	"assessment-engine/internal/engine/scoring"
	"assessment-engine/internal/engine/session"
	"assessment-engine/pkg/registry"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assessment engine...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// Postgres only backs the career catalog, which has an embedded fallback.
	// A dead database degrades the catalog instead of blocking startup.
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Warn("postgres unavailable, career catalog will use embedded profiles", zap.Error(err))
		pg = nil
	} else {
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	reg := loadRegistry(cfg.Engine.Scoring.AnswerMapPath, zapLog)

	checkpointStore := checkpoint.NewStore(
		redis.GetClient(),
		&checkpoint.Config{
			Purpose:         cfg.Engine.Checkpoint.Purpose,
			FreshnessWindow: cfg.Engine.Checkpoint.FreshnessWindow,
		},
		log,
	)

	scorer := scoring.NewEngine(
		&scoring.Config{MaxScaleValue: cfg.Engine.Scoring.MaxScaleValue},
		reg,
		log,
	)

	matcher := matching.NewEngine(
		&matching.Config{
			InterestWeight:    cfg.Engine.Matching.InterestWeight,
			PersonalityWeight: cfg.Engine.Matching.PersonalityWeight,
			ScoreThreshold:    cfg.Engine.Matching.ScoreThreshold,
			WeightThreshold:   cfg.Engine.Matching.WeightThreshold,
			MaxReasons:        cfg.Engine.Matching.MaxReasons,
			TopN:              cfg.Engine.Matching.TopN,
		},
		log,
	)

	var profileCatalog *catalog.Store
	if pg != nil {
		profileCatalog = catalog.NewStore(pg.GetDB(), reg.Profiles, log)
	} else {
		profileCatalog = catalog.NewStore(nil, reg.Profiles, log)
	}

	backendClient := backend.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		time.Duration(cfg.Backend.Timeout)*time.Millisecond,
		log,
	)

	sessionConfig := &session.Config{
		PageSize:        cfg.Engine.Session.PageSize,
		ProcessingDelay: cfg.Engine.Session.ProcessingDelay,
	}

	server := api.NewServer(func(identity string) *session.Machine {
		return session.NewMachine(identity, backendClient, checkpointStore, scorer, matcher, profileCatalog, obs, sessionConfig, log)
	}, cfg.Server.Token, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.Handler(),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			status := "ready"
			code := http.StatusOK
			if err := redis.Ping(r.Context()); err != nil {
				status = "not ready"
				code = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, finalizing sessions...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Flush in-progress answers before the process dies so users can resume.
	server.FinalizeAll(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Assessment engine stopped gracefully")
}

// loadRegistry reads the registry override from disk when configured, falling
// back to the embedded document.
func loadRegistry(path string, zapLog *zap.Logger) *registry.Registry {
	if path == "" {
		return registry.Default()
	}
	reg, err := registry.Load(path)
	if err != nil {
		zapLog.Warn("registry override unusable, using embedded document",
			zap.String("path", path),
			zap.Error(err),
		)
		return registry.Default()
	}
	zapLog.Info("registry loaded", zap.String("path", path))
	return reg
}
