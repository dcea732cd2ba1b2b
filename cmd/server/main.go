package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iudanet/ristopoint/internal/config"
	"github.com/iudanet/ristopoint/internal/datastore"
	"github.com/iudanet/ristopoint/internal/server"
	"github.com/iudanet/ristopoint/internal/server/auth"
	"github.com/iudanet/ristopoint/internal/server/handlers"
	"github.com/iudanet/ristopoint/internal/server/ratelimit"
	"github.com/iudanet/ristopoint/internal/server/session"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ristopoint server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("ristopoint server starting",
		"version", Version,
		"addr", cfg.Server.Addr(),
		"data_file", cfg.Paths.DataFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cred, err := auth.LoadCredentials(auth.Config{
		Login:          cfg.Admin.Login,
		Salt:           cfg.Admin.PasswordSalt,
		Hash:           cfg.Admin.PasswordHash,
		LegacyPassword: cfg.Admin.Password,
		FilePath:       cfg.Paths.AuthFile,
	}, logger)
	if err != nil {
		return fmt.Errorf("load admin credentials: %w", err)
	}

	store := datastore.NewStore(cfg.Paths.DataFile, logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("load site data: %w", err)
	}

	sessions := session.NewStore(cfg.Session.TTL, logger)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Lockout)

	admin := handlers.NewAdminHandler(logger, cred, limiter, sessions, store,
		cfg.Paths.UploadsDir, cfg.Upload.MaxBytes)
	public := handlers.NewPublicHandler(logger, store)
	static := server.NewStatic(logger, cfg.Paths.WebDir, cfg.Paths.UploadsDir)

	router := server.NewRouter(logger, admin, public, static)
	srv := server.New(cfg.Server.Addr(), router, logger)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("ristopoint server stopped")
	return nil
}

// newLogger строит slog.Logger из конфигурации логирования.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func printVersion() {
	fmt.Printf("RistoPoint Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
