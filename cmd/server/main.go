// main wires the registry service: configuration, storage, domain services,
// and the HTTP transport. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"afya/internal/cug"
	"afya/internal/platform/config"
	"afya/internal/platform/httpserver"
	"afya/internal/platform/logger"
	refmemory "afya/internal/reference/store/memory"
	refpostgres "afya/internal/reference/store/postgres"
	"afya/internal/storage"
	workermetrics "afya/internal/worker/metrics"
	workermemory "afya/internal/worker/store/memory"
	workerpostgres "afya/internal/worker/store/postgres"

	refservice "afya/internal/reference/service"
	httptransport "afya/internal/transport/http"
	workerservice "afya/internal/worker/service"
	"afya/pkg/platform/tx"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, cleanup, err := buildServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	router := httptransport.NewRouter(log,
		httptransport.NewReferenceHandler(services.reference, cfg.TrigramThreshold),
		httptransport.NewWorkerHandler(services.workers, services.reference),
		httptransport.NewCUGHandler(services.cug),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting registry service", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type services struct {
	reference *refservice.Service
	workers   *workerservice.Service
	cug       *cug.Processor
}

// buildServices assembles the service graph. With a database URL configured
// everything runs on PostgreSQL; without one the in-memory stores serve,
// which is enough for local development and demos.
func buildServices(ctx context.Context, cfg config.Server, log *slog.Logger) (services, func(), error) {
	m := workermetrics.New()

	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, using in-memory stores")
		regionTypes := refmemory.NewRegionTypeStore()
		regions := refmemory.NewRegionStore(regionTypes)
		specialties := refmemory.NewSpecialtyStore()
		facilities := refmemory.NewFacilityStore()
		facilityTypes := refmemory.NewFacilityTypeStore()
		registrations := refmemory.NewRegistrationStore()
		payrolls := refmemory.NewPayrollStore()

		reference := refservice.New(regions, regionTypes, specialties, facilities, facilityTypes, registrations,
			refservice.WithLogger(log))

		workerStore := workermemory.New()
		workers := workerservice.New(workerStore, workerStore, specialties,
			workerservice.WithLogger(log),
			workerservice.WithMetrics(m),
			workerservice.WithVerifier(workerservice.NewMCTVerifier(registrations, payrolls)),
		)
		processor := cug.New(workerStore, workerStore, cug.WithLogger(log), cug.WithMetrics(m))
		return services{reference: reference, workers: workers, cug: processor}, func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return services{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return services{}, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return services{}, nil, err
	}

	regions := refpostgres.NewRegionStore(db)
	regionTypes := refpostgres.NewRegionTypeStore(db)
	specialties := refpostgres.NewSpecialtyStore(db)
	facilities := refpostgres.NewFacilityStore(db)
	facilityTypes := refpostgres.NewFacilityTypeStore(db)
	registrations := refpostgres.NewRegistrationStore(db)
	payrolls := refpostgres.NewPayrollStore(db)

	reference := refservice.New(regions, regionTypes, specialties, facilities, facilityTypes, registrations,
		refservice.WithLogger(log))

	runner := tx.NewRunner(db)
	workerStore := workerpostgres.New(db)
	workers := workerservice.New(workerStore, runner, specialties,
		workerservice.WithLogger(log),
		workerservice.WithMetrics(m),
		workerservice.WithVerifier(workerservice.NewMCTVerifier(registrations, payrolls)),
	)
	processor := cug.New(workerStore, runner, cug.WithLogger(log), cug.WithMetrics(m))

	cleanup := func() { _ = db.Close() }
	return services{reference: reference, workers: workers, cug: processor}, cleanup, nil
}
