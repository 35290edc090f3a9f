// @title        SecureDoc Account Service
// @version      1.0
// @description  Account registration and email verification.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/api"
	"github.com/securedoc/account-service/internal/api/handler"
	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
	"github.com/securedoc/account-service/internal/core/service"
	"github.com/securedoc/account-service/internal/infrastructure/config"
	mongostore "github.com/securedoc/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/securedoc/account-service/internal/infrastructure/db/redis"
	"github.com/securedoc/account-service/internal/infrastructure/db/sqlstore"
	"github.com/securedoc/account-service/internal/infrastructure/mail"
	"github.com/securedoc/account-service/internal/infrastructure/queue"
	"github.com/securedoc/account-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "account-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store connected")

	if err := service.SeedRoles(ctx, store, log); err != nil {
		return err
	}

	health := map[string]handler.Pinger{"store": store}

	var dedup ports.NotificationDedup
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, notification dedup disabled")
		} else {
			defer closeRedis(rdb, log)
			dedup = redisstore.NewNotificationDedup(rdb, 0)
			health["redis"] = redisstore.Pinger{Client: rdb}
		}
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	emails := service.NewEmailNotificationHandler(notifier, dedup, cfg.Accounts.AppHost, cfg.Mail.Timeout, log)
	dispatcher := queue.NewDispatcher(cfg.Accounts.Workers, log, emails)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	accounts := service.NewAccountService(store, dispatcher, log,
		service.WithConfirmationTTL(cfg.Accounts.ConfirmationTTL),
	)

	e := api.NewRouter(api.Dependencies{
		Accounts:       accounts,
		Health:         health,
		JWTSecret:      cfg.JWTSecret,
		AnonymousActor: domain.ActorID(cfg.AnonymousActor),
		Log:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		store := mongostore.NewStore(client, db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.WithoutCancel(ctx))
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.SQL.DSN})
		if err != nil {
			return nil, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	}
}

func newNotifier(cfg *config.Config, log zerolog.Logger) (ports.Notifier, error) {
	if cfg.Mail.Driver != "smtp" {
		return mail.NewLogNotifier(log), nil
	}
	notifier, err := mail.NewSMTPNotifier(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  cfg.Mail.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return notifier, nil
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
}
