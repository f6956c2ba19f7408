package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/config"
	"github.com/pressdeck/editorial-chat/internal/db"
	"github.com/pressdeck/editorial-chat/internal/httpapi"
	"github.com/pressdeck/editorial-chat/internal/realtime"
	"github.com/pressdeck/editorial-chat/internal/store/rabbitmq"
	"github.com/pressdeck/editorial-chat/internal/store/redisstore"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rds := redisstore.New(rdb)

	reg := realtime.NewRegistry()
	reg.Register("hub", func(ctx context.Context) (realtime.Broker, error) {
		_ = ctx
		return realtime.NewHub(), nil
	})
	reg.Register("redis", func(ctx context.Context) (realtime.Broker, error) {
		_ = ctx
		b, err := realtime.NewRedisBroker(rdb)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	broker, err := reg.Get(context.Background(), cfg.RealtimeBackend)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.RealtimeBackend).Msg("realtime backend")
	}

	var rabbit *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		rabbit, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			// notifications are optional; chat works without the queue
			log.Warn().Err(err).Msg("rabbit unavailable, notifications disabled")
			rabbit = nil
		} else {
			defer rabbit.Close()
		}
	}

	router := httpapi.NewRouter(gdb, cfg, broker, rds, rabbit)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("realtime", cfg.RealtimeBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
