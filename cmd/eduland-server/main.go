package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/eduland/eduland-server/internal/api"
	"github.com/eduland/eduland-server/internal/config"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/events/subscribers"
	"github.com/eduland/eduland-server/internal/gameserver"
	"github.com/eduland/eduland-server/internal/monitoring"
	"github.com/eduland/eduland-server/internal/store"
	"github.com/eduland/eduland-server/internal/store/memory"
	"github.com/eduland/eduland-server/internal/store/mongostore"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment overlay, merges config.<env>.yaml")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}
	setupLogging(*logLevel, cfg.Server.LogFormat)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server shutdown complete")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.FromPath(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	bus := events.NewEventBus()
	bus.Subscribe(subscribers.NewLoggerSubscriber("event_logger", log.Logger, zerolog.InfoLevel))

	var hub *api.Hub
	if cfg.Realtime.Enabled {
		hub = api.NewHub(cfg.Realtime.SendBuffer, log.Logger)
		bus.Subscribe(hub)
	}

	game := gameserver.NewServer(gameserver.Deps{
		Store:    st,
		Catalog:  cat,
		Bus:      bus,
		Settings: gameserver.SettingsFromConfig(),
		Logger:   log.Logger,
	})

	monitor := monitoring.New(monitoring.Options{Logger: log.Logger})
	monitor.Register("idempotency_entries", game.Idempotency.Len)
	monitor.Register("event_subscribers", bus.GetSubscriberCount)
	if hub != nil {
		monitor.Register("ws_connections", hub.Connections)
	}

	httpServer := api.NewServer(api.Options{
		Address:        fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		DisableReqLogs: !cfg.Server.RequestLogging,
		Game:           game,
		Hub:            hub,
		Monitor:        monitor,
		Logger:         log.Logger,
	})

	grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.GRPC.Host, cfg.Server.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}
	health := newHealthServer(cfg.Server.GRPC.EnableReflection)

	log.Info().
		Str("http", cfg.Server.HTTP.Host).
		Int("http_port", cfg.Server.HTTP.Port).
		Str("grpc", lis.Addr().String()).
		Str("store", cfg.Store.Backend).
		Bool("realtime", hub != nil).
		Msg("Starting Eduland server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error { return health.serve(lis) })
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return watchReloads(gctx, game) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Received shutdown signal")

		// Give load balancers time to see NOT_SERVING
		health.drain()
		time.Sleep(time.Duration(cfg.Server.GracefulShutdownDelay) * time.Second)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		health.stop()
		return httpServer.Stop(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "mongo":
		st, err := mongostore.Connect(ctx, cfg.Mongo, log.Logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := memory.New(memory.Options{SnapshotFile: cfg.SnapshotFile, Logger: log.Logger})
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		return st, nil
	}
}

func setupLogging(level, format string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if format == "json" || os.Getenv("APP_ENV") == "production" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
