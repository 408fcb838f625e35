package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gatherly/server/internal/api"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/config"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/media"
	"github.com/gatherly/server/internal/metrics"
	"github.com/gatherly/server/internal/realtime"
	"github.com/gatherly/server/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatherly HTTP server",
	Long: `Start the Gatherly HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to PostgreSQL with bounded retries
- Start the websocket broadcast hub
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gatherly server")

	metrics.Init(Version, GitCommit, BuildDate)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	pool, err := postgres.Connect(connectCtx, cfg.Database, logger)
	connectCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	uploads, err := media.NewDiskStore(cfg.Uploads.Dir, "/uploads")
	if err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}

	hub := realtime.NewHub(logger)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	usersService := users.NewService(postgres.NewUserRepository(pool), cfg.Auth.BcryptCost, logger)
	eventsService := events.NewService(postgres.NewEventRepository(pool), hub, logger)
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	handler := api.NewRouter(api.Deps{
		Config:   cfg,
		Logger:   logger,
		Users:    usersService,
		Events:   eventsService,
		Tokens:   tokens,
		Media:    uploads,
		Realtime: hub,
		DB:       pool,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
