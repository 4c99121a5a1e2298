package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-crm/meridian-crm/cmd/meridian/cli"
	"github.com/meridian-crm/meridian-crm/internal/app"
	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/clients"
	"github.com/meridian-crm/meridian-crm/internal/contracts"
	"github.com/meridian-crm/meridian-crm/internal/events"
	"github.com/meridian-crm/meridian-crm/internal/observability"
	"github.com/meridian-crm/meridian-crm/internal/platform/cache"
	"github.com/meridian-crm/meridian-crm/internal/platform/crypto"
	"github.com/meridian-crm/meridian-crm/internal/platform/db"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/users"
	"github.com/meridian-crm/meridian-crm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	hasher := auth.NewHasher(cfg.BcryptCost)

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		seedFlags := flag.NewFlagSet("seed", flag.ExitOnError)
		adminEmail := seedFlags.String("admin-email", "", "email for the bootstrap management account")
		adminPassword := seedFlags.String("admin-password", "", "password for the bootstrap management account")
		adminName := seedFlags.String("admin-name", "", "full name for the bootstrap management account")
		_ = seedFlags.Parse(os.Args[2:])
		err := cli.Seed(ctx, rbac.NewRepository(pool), users.NewRepository(pool), hasher, cli.SeedOptions{
			AdminEmail:    *adminEmail,
			AdminPassword: *adminPassword,
			AdminName:     *adminName,
		})
		if err != nil {
			logger.Error("seed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("seed complete")
		return
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	fieldCipher, err := crypto.NewAESGCM(cfg.FieldKey)
	if err != nil {
		logger.Error("init field cipher", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	catalog := rbac.NewCatalog(rbac.NewRepository(pool))
	if err := catalog.SeedDefaults(ctx); err != nil {
		logger.Error("reconcile permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	guard := rbac.NewGuard(metrics)
	rbacHandler := rbac.NewHandler(logger, catalog, guard)

	tokenCodec := auth.NewTokenCodec(cfg.TokenSecret, cfg.TokenTTL)
	revocationList := auth.NewRevocationList(redisClient)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, hasher, tokenCodec, revocationList, catalog, metrics)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, guard, catalog, hasher, jobsClient)
	usersHandler := users.NewHandler(logger, usersService)

	clientsRepo := clients.NewRepository(pool, fieldCipher)
	clientsService := clients.NewService(clientsRepo, guard)
	clientsHandler := clients.NewHandler(logger, clientsService)

	contractsRepo := contracts.NewRepository(pool)
	contractsService := contracts.NewService(contractsRepo, guard)
	contractsHandler := contracts.NewHandler(logger, contractsService)

	eventsRepo := events.NewRepository(pool)
	eventsService := events.NewService(eventsRepo, guard)
	eventsHandler := events.NewHandler(logger, eventsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		RBACHandler:      rbacHandler,
		UsersHandler:     usersHandler,
		ClientsHandler:   clientsHandler,
		ContractsHandler: contractsHandler,
		EventsHandler:    eventsHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
		Pool:             pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
