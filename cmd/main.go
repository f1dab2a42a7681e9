package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/checkout"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/config"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/coupon"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
	h "github.com/AhmedMaher123384/pet-hub-sub001/internal/http"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/session"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}
	defer store.Close()
	log.Info().Str("backend", cfg.Storage.Backend).Msg("storage ready")

	client, err := remote.New(cfg.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	bus := events.NewBus()
	if cfg.KafkaEnabled() {
		sink := events.NewKafkaSink(events.NewWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), cfg.InstanceID, 256)
		defer sink.Close()
		unsubscribe := bus.SubscribeAll(sink.Handle)
		defer unsubscribe()
		go sink.Run(ctx)

		relay := events.NewRelay(events.NewReader(cfg.KafkaTopic, cfg.KafkaGroup, cfg.KafkaBrokers...), bus, cfg.InstanceID)
		defer relay.Close()
		go relay.Run(ctx)

		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka event fan-out enabled")
	}

	carts := cart.NewService(store, client, bus)
	coupons := coupon.NewService(store, client, bus)
	checkouts := checkout.NewService(store, carts, coupons, client, checkout.DefaultProcessors(cfg.PaymentDelay))

	sessions := session.NewManager(cfg.SessionIdle, cfg.SessionSweep, func(ctx context.Context, id string) {
		bus.DropSession(id)
		// redis and mongo expire entries by TTL; postgres purges them in the background
		if cfg.Storage.Backend == storage.BackendMemory || cfg.Storage.Backend == "" {
			if err := store.DeleteSession(ctx, id); err != nil {
				log.Warn().Err(err).Str("session", id).Msg("failed to delete expired session")
			}
		}
	})
	defer sessions.Close()

	server := h.NewServer(h.Deps{
		Store:          store,
		Backend:        client,
		Carts:          carts,
		Coupons:        coupons,
		Checkouts:      checkouts,
		Sessions:       sessions,
		Bus:            bus,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     otelhttp.NewHandler(server.Routes(), "storefront-gateway"),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no WriteTimeout: the event stream is long-lived
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.Backend.BaseURL).Msg("storefront gateway starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	// request contexts derive from ctx, so this also ends open event streams
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
