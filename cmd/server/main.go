package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"givepool/internal/assets"
	"givepool/internal/badges"
	"givepool/internal/funding/handler"
	"givepool/internal/funding/leaderboard"
	"givepool/internal/funding/service"
	"givepool/internal/funding/store/allowlist"
	"givepool/internal/funding/store/arena"
	"givepool/internal/funding/store/ledger"
	"givepool/internal/funding/store/roles"
	"givepool/internal/platform/config"
	"givepool/internal/platform/httpserver"
	"givepool/internal/platform/logger"
	"givepool/internal/platform/metrics"
	"givepool/internal/platform/middleware"
	platformredis "givepool/internal/platform/redis"
	"givepool/internal/projection"
	id "givepool/pkg/domain"
	"givepool/pkg/platform/events"
	"givepool/pkg/platform/events/publisher"
	"givepool/pkg/platform/events/sink"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		projectArena service.ProjectArena
		globalLedger service.GlobalLedger
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		projectArena = arena.NewPostgres(db)
		globalLedger = ledger.NewPostgres(pool)
		log.Info("using postgres stores")
	} else {
		projectArena = arena.NewInMemory()
		globalLedger = ledger.NewInMemory()
		log.Info("using in-memory stores")
	}
	roleStore := roles.NewInMemory()
	assetAllowlist := allowlist.NewInMemory()

	// Event pipeline: in-memory log, optional Kafka fan-out, optional async buffer.
	publisherOpts := []publisher.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := sink.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		publisherOpts = append(publisherOpts, publisher.WithSink(kafkaSink))
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.EventBuffer > 0 {
		publisherOpts = append(publisherOpts, publisher.WithAsyncBuffer(cfg.EventBuffer))
	}
	eventLog := publisher.NewPublisher(events.NewInMemoryStore(), publisherOpts...)
	defer eventLog.Close()

	// Optional Redis-backed leaderboard cache.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	registryOpts := []service.RegistryOption{service.WithRegistryLogger(log)}
	if redisClient != nil {
		defer redisClient.Close()
		registryOpts = append(registryOpts, service.WithLeaderboardCache(leaderboard.NewCache(redisClient.Client, log)))
		log.Info("leaderboard cache enabled")
	}

	catalog := projection.NewCatalog()
	badgeService := badges.NewService(badges.NoopIssuer{}, eventLog, log)
	registryOpts = append(registryOpts,
		service.WithProjection(catalog),
		service.WithBadges(badgeService),
	)

	registry := service.NewRegistry(projectArena, globalLedger, roleStore, assetAllowlist, eventLog, registryOpts...)
	escrow := service.NewEscrow(projectArena, assets.NewNativeVault(), assetAllowlist, eventLog,
		service.WithEscrowLogger(log),
		service.WithEscrowProjection(catalog),
	)
	registry.BindEscrow(escrow)
	escrow.BindRegistry(registry)

	if err := bootstrap(ctx, cfg, registry, log); err != nil {
		return err
	}

	h := handler.New(registry, escrow, catalog, badgeService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(metrics.Instrument)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(middleware.NewHMACValidator(cfg.JWTSigningKey), log))
		h.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting givepool", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// bootstrap grants the configured operator the platform-admin role and seeds
// the initial fee settings.
func bootstrap(ctx context.Context, cfg config.Config, registry *service.Registry, log *slog.Logger) error {
	if cfg.OperatorAccount == "" {
		log.Warn("no operator account configured; settings endpoints need a platform admin")
		return nil
	}
	parsed, err := uuid.Parse(cfg.OperatorAccount)
	if err != nil {
		return err
	}
	operator := id.AccountID(parsed)
	if err := registry.Bootstrap(ctx, operator); err != nil {
		return err
	}
	log.Info("operator bootstrapped", "account", operator.String())

	if cfg.TreasuryAccount != "" {
		treasury, err := uuid.Parse(cfg.TreasuryAccount)
		if err != nil {
			return err
		}
		if err := registry.SetTreasury(ctx, operator, id.AccountID(treasury)); err != nil {
			return err
		}
	}
	if cfg.FeeBasisPoints > 0 {
		if err := registry.SetFee(ctx, operator, cfg.FeeBasisPoints); err != nil {
			return err
		}
	}
	return nil
}
