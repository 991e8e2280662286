// Command guidanced runs the guidance-office backend: OTP verification,
// counselor authentication, and the guarded admin API, over Redis or
// Postgres document storage.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	guidancedesk "github.com/campuskit/guidancedesk"
	"github.com/campuskit/guidancedesk/docstore"
	"github.com/campuskit/guidancedesk/httpapi"
	"github.com/campuskit/guidancedesk/internal/logging"
	"github.com/campuskit/guidancedesk/mail"
	"github.com/campuskit/guidancedesk/records"
	"github.com/campuskit/guidancedesk/sweep"
)

func main() {
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log logging.Logger) error {
	cfg, err := guidancedesk.FromEnv()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sender := mail.NewSMTPSender(
		cfg.Mail.Host,
		cfg.Mail.Port,
		cfg.Mail.Username,
		cfg.Mail.Password,
		cfg.Mail.From,
	)

	engine, err := guidancedesk.New().
		WithConfig(cfg).
		WithStore(store).
		WithMailer(sender).
		WithAuditSink(guidancedesk.NewJSONWriterSink(os.Stdout)).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}

	recordsSvc := records.NewService(store, cfg.Store.PatientCollection, cfg.Store.AppointmentCollection)

	sweeper := sweep.New(
		store,
		cfg.Sweep.Interval,
		log,
		[]string{cfg.Store.OTPCollection, cfg.Store.SessionCollection},
		sweep.WithOnRemoved(func(n int) {
			engine.Metrics().Add(guidancedesk.MetricSweepRemoved, uint64(n))
		}),
	)
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.NewServer(engine, recordsSvc, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.ListenAddr, "backend", string(cfg.Store.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg guidancedesk.Config) (docstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case guidancedesk.BackendPostgres:
		store, err := docstore.OpenPostgres(cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		return docstore.NewRedisStore(client, cfg.Store.KeyPrefix), func() { _ = client.Close() }, nil
	}
}
