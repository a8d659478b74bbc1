package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	"github.com/flowsend/notify-service/internal/api/handlers/notification"
	"github.com/flowsend/notify-service/internal/api/router"
	"github.com/flowsend/notify-service/internal/api/server"
	"github.com/flowsend/notify-service/internal/config"
	notifmsg "github.com/flowsend/notify-service/internal/kafka/handlers/notification"
	"github.com/flowsend/notify-service/internal/kafka/queue"
	"github.com/flowsend/notify-service/internal/model"
	notifrepo "github.com/flowsend/notify-service/internal/repository/notification"
	notifsvc "github.com/flowsend/notify-service/internal/service/notification"
	"github.com/flowsend/notify-service/internal/worker"
	"github.com/flowsend/notify-service/migrations"
	"github.com/flowsend/notify-service/pkg/email"
	"github.com/flowsend/notify-service/pkg/push"
	"github.com/flowsend/notify-service/pkg/sms"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to set goose dialect")
	}
	if err := goose.Up(db.Master, "."); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	repo := notifrepo.NewRepository(db)

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	notifiers := map[model.Channel]notifsvc.Notifier{
		model.ChannelEmail: email.NewClient(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
		),
		model.ChannelSMS:  sms.NewClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.Sender),
		model.ChannelPush: push.NewClient(cfg.Push.GatewayURL, cfg.Push.APIKey),
	}

	service := notifsvc.NewService(repo, notifiers, rdb)

	// The async transport is optional: with no brokers (or an unusable
	// transport config) the service degrades to inline dispatch instead
	// of refusing to start.
	var q *queue.DispatchQueue
	if cfg.Kafka.Enabled() {
		if cfg.Kafka.GroupID == "" || cfg.Kafka.Topics.Dispatch == "" ||
			cfg.Kafka.Topics.Retry == "" || cfg.Kafka.Topics.DeadLetter == "" {
			zlog.Logger.Error().Msg("incomplete kafka configuration, falling back to inline dispatch")
		} else {
			q = queue.NewDispatchQueue(
				cfg.Kafka.Brokers,
				cfg.Kafka.GroupID,
				cfg.Kafka.Topics.Dispatch,
				cfg.Kafka.Topics.Retry,
				cfg.Kafka.Topics.DeadLetter,
			)
		}
	}

	if q != nil {
		service.SetDispatcher(notifsvc.NewAsyncDispatcher(q))

		messageHandler := notifmsg.NewHandler(service, q, cfg.Delivery.MaxAttempts, cfg.Delivery.BaseDelay)
		dispatcher := worker.NewDispatcher(q.DispatchConsumer, q.RetryConsumer, messageHandler)

		go dispatcher.Run(ctx, cfg.Retry)

		zlog.Logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("async dispatch enabled")
	} else {
		service.SetDispatcher(notifsvc.NewInlineDispatcher(service, cfg.Delivery.MaxAttempts))

		zlog.Logger.Info().Msg("running in degraded mode, notifications are processed inline")
	}

	notifHandler := notification.NewHandler(service, val, cfg)

	r := router.New(notifHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if q != nil {
		if err := q.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close dispatch queue")
		}
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}

	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msgf("failed to close slave DB %d", i)
		}
	}
}
