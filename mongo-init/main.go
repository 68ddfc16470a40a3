package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akshat0107/market-sentiment-tracker/backend/internal/bootstrap"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/config"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/logger"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/mongodb"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/schema"
)

const maxRetryDelay = 30 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type dialFunc func(ctx context.Context) (pinger, error)

func main() {
	log := logger.New("mongo-init")

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("load .env", slog.Any("err", err))
		os.Exit(1)
	}

	cfg, err := config.LoadBootstrap()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("bootstrap failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Bootstrap) error {
	dial := func(ctx context.Context) (pinger, error) {
		return mongodb.New(ctx, cfg.URI, cfg.Database, cfg.ConnectTimeout, log)
	}

	conn, err := connect(ctx, log, cfg, dial)
	if err != nil {
		return err
	}
	client := conn.(*mongodb.Client)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			log.Warn("close mongodb", slog.Any("err", err))
		}
	}()

	log.Info("connected to mongodb", slog.String("database", client.Database()))

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	layout := schema.MarketData()
	layout.Database = cfg.Database

	_, err = bootstrap.New(client, layout, log).Run(runCtx)
	return err
}

// connect dials and pings up to cfg.ConnectAttempts times, doubling the delay
// between attempts up to maxRetryDelay.
func connect(ctx context.Context, log *slog.Logger, cfg *config.Bootstrap, dial dialFunc) (pinger, error) {
	retryDelay := cfg.RetryDelay
	var lastErr error

	for i := 0; i < cfg.ConnectAttempts; i++ {
		conn, err := dial(ctx)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
			err = conn.Ping(pingCtx)
			cancel()
			if err == nil {
				return conn, nil
			}
			_ = conn.Close(context.Background())
		}
		lastErr = err

		if i+1 == cfg.ConnectAttempts {
			break
		}

		log.Warn("mongodb not reachable, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", cfg.ConnectAttempts),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}

	return nil, lastErr
}
