package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	v1 "community-service/internal/api/v1"
	"community-service/internal/config"
	"community-service/internal/repository"
	"community-service/pkg/database"
	"community-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Applies pending migrations, ensures the bootstrap admin and starts the HTTP API with its websocket feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.SyncLoggers()
		logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := database.ConnectDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.SystemLogger.Info("Database connected")

		if err := repository.Migrate(database.URL(cfg, cfg.DBName)); err != nil {
			return err
		}
		if cfg.AdminUsername != "" {
			if _, err := repository.CreateAdminUser(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
				return err
			}
		}

		rdb, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
			logger.SystemLogger.Info("Redis connected", zap.String("addr", cfg.RedisAddr()))
		}

		deps, err := config.NewDependencies(cfg, db, rdb)
		if err != nil {
			return err
		}
		go deps.Hub.Run(ctx)

		app := v1.NewApp(deps)
		errCh := make(chan error, 1)
		go func() {
			logger.SystemLogger.Info("Application ready", zap.String("addr", cfg.Addr()))
			errCh <- app.Listen(cfg.Addr())
		}()

		select {
		case err := <-errCh:
			logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
			return err
		case <-ctx.Done():
		}

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.ErrorLogger.Error("Shutdown failed", zap.Error(err))
			return err
		}
		logger.SystemLogger.Info("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
