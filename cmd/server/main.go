package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"company_analyzer/internal/app/config"
	"company_analyzer/internal/app/di"
	"company_analyzer/internal/app/router"
	"company_analyzer/internal/feature/analysis/adapters"
	analysishandler "company_analyzer/internal/feature/analysis/transport/handler"
	"company_analyzer/internal/feature/analysis/usecase"
	"company_analyzer/internal/platform/db"
	"company_analyzer/internal/platform/http/handler"
	"company_analyzer/internal/platform/logging"
	infraredis "company_analyzer/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logging.Setup(logging.LoadConfigFromEnv())

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// db
	gdb, err := db.Open(db.LoadConfigFromEnv(), &adapters.AnalysisModel{})
	if err != nil {
		return err
	}

	// Redis
	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfigFromEnv(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(rcfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository / Usecase / Handler
	repo := di.NewAnalysisRepository(gdb, rdb)
	collab, err := di.NewCollaborators(ctx, cfg)
	if err != nil {
		return err
	}
	uc := usecase.NewAnalysisUsecase(repo, collab)
	analysisH := analysishandler.NewAnalysisHandler(uc)

	checkers := map[string]handler.Checker{"database": handler.DBChecker(gdb)}
	if rdb != nil {
		checkers["redis"] = handler.RedisChecker(rdb)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.NewRouter(analysisH, checkers, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "provider", cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
