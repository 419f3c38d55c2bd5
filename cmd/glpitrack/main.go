// Command glpitrack runs the ticket tracking server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glpitrack/glpitrack/internal/api"
	"github.com/glpitrack/glpitrack/internal/config"
	"github.com/glpitrack/glpitrack/internal/database"
	"github.com/glpitrack/glpitrack/internal/glpi"
	"github.com/glpitrack/glpitrack/internal/repository"
	"github.com/glpitrack/glpitrack/internal/scheduler"
	"github.com/glpitrack/glpitrack/internal/service"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "glpitrack",
		Short:        "GLPI ticket tracking server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	configs := repository.NewGLPIConfigRepository(db)
	tickets := repository.NewTrackedTicketRepository(db)
	columns := repository.NewKanbanColumnRepository(db)
	reminders := repository.NewReminderRepository(db)

	client := glpi.NewClient(glpi.WithLogger(logger))
	auth := service.NewAuthService(users, cfg.JWTSecret)
	tracker := service.NewTrackerService(client, configs)

	sched := scheduler.New(reminders,
		scheduler.WithLogger(logger),
		scheduler.WithCronSpec(cfg.ReminderCron),
	)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	server := api.NewServer(auth, tracker, configs, tickets, columns, reminders, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
