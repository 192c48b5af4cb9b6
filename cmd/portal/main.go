package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/portal-agile/portal-agile/internal/app"
	"github.com/portal-agile/portal-agile/internal/bootstrap"
	"github.com/portal-agile/portal-agile/internal/menu"
	"github.com/portal-agile/portal-agile/internal/platform/db"
	"github.com/portal-agile/portal-agile/internal/rbac"
	"github.com/portal-agile/portal-agile/internal/roles"
	"github.com/portal-agile/portal-agile/internal/shared"
	"github.com/portal-agile/portal-agile/internal/tenant"
	"github.com/portal-agile/portal-agile/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tenantRepo := tenant.NewRepository(dbpool)
	auditLogger := shared.NewAuditLogger(dbpool)

	grantStore := rbac.NewPGStore(dbpool)
	userRepo := users.NewRepository(dbpool)
	resolver := rbac.NewResolver(grantStore, userRepo)
	engine := rbac.NewEngine(grantStore, userRepo, auditLogger, logger)
	claims := rbac.NewClaimsProjector(resolver)
	authorize := rbac.Middleware{Resolver: resolver, Logger: logger}

	if cfg.Bootstrap {
		seeder := bootstrap.NewSeeder(dbpool, tenantRepo, engine, logger, cfg.SuperadminEmail, cfg.SuperadminPassword)
		if err := seeder.Run(ctx); err != nil {
			logger.Error("bootstrap", slog.Any("error", err))
			os.Exit(1)
		}
	}

	userService := users.NewService(userRepo)
	usersHandler := users.NewHandler(logger, userService, engine, authorize)

	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo)
	rolesHandler := roles.NewHandler(logger, roleService, engine, authorize)

	permissionsHandler := rbac.NewPermissionsHandler(logger, grantStore, resolver, claims, authorize)

	menuRepo := menu.NewRepository(dbpool)
	menuCache := menu.NewCache(redisClient, cfg.MenuCacheTTL)
	projector := menu.NewProjector(menuRepo, resolver, menuCache)
	menuHandler := menu.NewHandler(logger, projector)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Tenants:            tenantRepo,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		MenuHandler:        menuHandler,
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
