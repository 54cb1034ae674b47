package main

import (
	"context"
	"errors"
	"innkeep/config"
	"innkeep/di"
	"innkeep/shared/logger"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := di.InitializeWorker()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return worker.Scheduler.Run(ctx) })
	group.Go(func() error { return worker.Payments.Run(ctx) })

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Worker stopped with error")
	}

	if err := worker.Kafka.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Kafka writers")
	}

	if err := worker.Postgres.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Postgres connections")
	}

	log.Info().Msg("Worker shut down")
}
