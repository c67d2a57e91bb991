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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"shop-api/internal/api"
	"shop-api/internal/auth"
	"shop-api/internal/config"
	"shop-api/internal/logging"
	"shop-api/internal/ratelimit"
	"shop-api/internal/store"
	"shop-api/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.NewConfig()

	cmd := &cobra.Command{
		Use:           "shop-api",
		Short:         "Demo users/products/orders API backed by a JSON snapshot file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "HTTP listen port")
	flags.StringVar(&cfg.DataPath, "data", cfg.DataPath, "snapshot file path")
	flags.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address for login rate limiting (empty disables)")
	flags.IntVar(&cfg.LoginRateLimit, "login-rate-limit", cfg.LoginRateLimit, "login attempts allowed per window per client")
	flags.DurationVar(&cfg.LoginRateWindow, "login-rate-window", cfg.LoginRateWindow, "login rate limit window")
	flags.IntVar(&cfg.SaveAttempts, "save-attempts", cfg.SaveAttempts, "snapshot write attempts before a mutation fails")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or text")
	flags.StringSliceVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "allowed CORS origins")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.Info("Starting shop API", "port", cfg.HTTPPort, "data", cfg.DataPath)

	st, err := store.Open(store.NewFileGateway(cfg.DataPath, cfg.SaveAttempts))
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var limiter ratelimit.Limiter = ratelimit.Nop{}
	if cfg.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.LoginRateLimit, cfg.LoginRateWindow)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
	}

	handler := api.NewHandler(st, auth.NewService(st), limiter)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.Routes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           corsHandler.Handler(telemetry.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
