package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/assurtech/autocover/internal/core"
	transporthttp "github.com/assurtech/autocover/internal/http"
	"github.com/assurtech/autocover/internal/http/handlers"
	"github.com/assurtech/autocover/internal/http/health"
	"github.com/assurtech/autocover/internal/jobs"
	"github.com/assurtech/autocover/internal/middleware"
	"github.com/assurtech/autocover/internal/platform/config"
	"github.com/assurtech/autocover/internal/platform/logging"
	"github.com/assurtech/autocover/internal/store/dynamo"
	"github.com/assurtech/autocover/internal/store/mongo"
)

// repos bundles the storage interfaces so the rest of main is
// backend-agnostic.
type repos struct {
	vehicles core.VehicleRepo
	drivers  core.DriverRepo
	policies core.PolicyRepo
	refs     core.ReferenceRepo
	pinger   health.Pinger
	close    func(context.Context) error
}

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildRepos(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", "db_type", cfg.DBType, "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(shutdownCtx); err != nil {
			log.Warn("storage close failed", "err", err)
		}
	}()

	// Core wiring: validators and calculator share the repo-backed ports.
	tariffs := core.ReferenceTariffs{Refs: store.refs}
	calculator := core.NewPremiumCalculator(tariffs)

	vehicleValidator := core.NewVehicleValidator(store.vehicles, store.refs)
	driverValidator := core.NewDriverValidator(store.drivers)
	policyValidator := core.NewPolicyValidator(store.policies, store.vehicles, store.drivers, store.refs)

	vehicleSvc := core.NewVehicleService(store.vehicles, vehicleValidator)
	driverSvc := core.NewDriverService(store.drivers, driverValidator)
	policySvc := core.NewPolicyService(store.policies, store.vehicles, store.drivers, policyValidator, calculator)

	// HTTP surface
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	limiter.StartWithContext(ctx)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Middlewares: []func(http.Handler) http.Handler{
			chimw.RequestID,
			chimw.RealIP,
			chimw.Recoverer,
			chimw.Timeout(time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second),
			middleware.SecurityHeaders,
			middleware.CORS(cfg.AllowedOrigins),
			middleware.LimitRequestBody(middleware.MaxBodySize),
			middleware.TenantAuth(cfg.TenantAPIKeys),
			limiter.Middleware,
		},
		Mounts: []handlers.Mountable{
			health.New(log, store.pinger, 2*time.Second),
			handlers.NewVehicleHandler(vehicleSvc, log),
			handlers.NewDriverHandler(driverSvc, log),
			handlers.NewPolicyHandler(policySvc, log),
			handlers.NewBonusMalusHandler(log),
			handlers.NewReferenceHandler(store.refs, log),
		},
	})

	// Renewal worker
	renewal := jobs.NewRenewalWorker(
		store.policies, store.vehicles, store.drivers, store.refs, calculator,
		time.Duration(cfg.RenewalIntervalSec)*time.Second,
		cfg.RenewalBatchSize,
		log,
	)
	go renewal.Start(ctx)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", addr, "env", cfg.Env, "db_type", cfg.DBType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
}

func buildRepos(ctx context.Context, cfg *config.Config, log *slog.Logger) (repos, error) {
	switch cfg.DBType {
	case "mongo":
		client, err := mongo.NewClient(cfg)
		if err != nil {
			return repos{}, err
		}
		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			return repos{}, fmt.Errorf("ensure indexes: %w", err)
		}
		opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
		return repos{
			vehicles: mongo.NewVehicleRepo(client.DB, opTimeout),
			drivers:  mongo.NewDriverRepo(client.DB, opTimeout),
			policies: mongo.NewPolicyRepo(client.DB, opTimeout),
			refs:     mongo.NewReferenceRepo(client.DB, opTimeout),
			pinger:   client,
			close:    client.Close,
		}, nil

	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return repos{}, err
		}
		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			return repos{}, fmt.Errorf("ensure tables: %w", err)
		}
		return repos{
			vehicles: dynamo.NewVehicleRepo(client.DB),
			drivers:  dynamo.NewDriverRepo(client.DB),
			policies: dynamo.NewPolicyRepo(client.DB),
			refs:     dynamo.NewReferenceRepo(client.DB),
			pinger:   client,
			close:    func(context.Context) error { return nil },
		}, nil

	default:
		return repos{}, fmt.Errorf("unknown DB_TYPE %q", cfg.DBType)
	}
}
