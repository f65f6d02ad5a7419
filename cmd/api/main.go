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

	"github.com/Crestline-Fitness/gym-manager-api/internal/adapters/httpapi"
	memattendancerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/attendancerepo"
	memidempotency "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/idempotency"
	mempersonrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/personrepo"
	memplanrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/profilerepo"
	memrequestrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/requestrepo"
	memsessionrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/sessionrepo"
	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	pgattendancerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/attendancerepo"
	pgidempotency "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/idempotency"
	pgpersonrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/personrepo"
	pgplanrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/planrepo"
	pgprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/profilerepo"
	pgrequestrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/requestrepo"
	pgsessionrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres/sessionrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/attendance"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/dashboard"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/memberships"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/plans"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/requests"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/sessions"
	"github.com/Crestline-Fitness/gym-manager-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/Crestline-Fitness/gym-manager-api/internal/platform/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/platform/config"
	attendancerepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
	idempotencyport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/idempotency"
	personrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	planrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
	profilerepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
	requestrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/requestrepo"
	sessionrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

func main() {
	// .env is optional: local convenience only, real deployments set env vars.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := getenv("PORT", "8080")

	// Auth configuration:
	// - Production: require JWT_* env vars and enforce bearer auth
	// - Local dev: set AUTH_MODE=dev and pass X-Debug-Person / X-Debug-Role
	authMode := getenv("AUTH_MODE", "jwt")
	var authMW func(http.Handler) http.Handler
	switch authMode {
	case "dev":
		authMW = httpapi.NewDevAuthMiddleware()
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			slog.Error("invalid auth config", "err", err)
			os.Exit(1)
		}
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(jwtCfg))
	}

	clk := platformclock.NewSystemClock()

	storageBackend := getenv("STORAGE_BACKEND", "memory")
	var (
		personRepo     personrepoport.Repository
		profileRepo    profilerepoport.Repository
		planRepo       planrepoport.Repository
		requestRepo    requestrepoport.Repository
		attendanceRepo attendancerepoport.Repository
		sessionRepo    sessionrepoport.Repository
		idemStore      idempotencyport.Store
		cleanup        func()
	)

	switch storageBackend {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{})
		if err != nil {
			slog.Error("invalid postgres config", "err", err)
			os.Exit(1)
		}
		cleanup = pool.Close

		personRepo = pgpersonrepo.NewRepo(pool)
		profileRepo = pgprofilerepo.NewRepo(pool)
		planRepo = pgplanrepo.NewRepo(pool)
		requestRepo = pgrequestrepo.NewRepo(pool)
		attendanceRepo = pgattendancerepo.NewRepo(pool)
		sessionRepo = pgsessionrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		persons := mempersonrepo.NewRepo()
		profiles := memprofilerepo.NewRepo()
		personRepo = persons
		profileRepo = profiles
		planRepo = memplanrepo.NewRepo()
		requestRepo = memrequestrepo.NewRepo(persons, profiles)
		attendanceRepo = memattendancerepo.NewRepo()
		sessionRepo = memsessionrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}

	if cleanup != nil {
		defer cleanup()
	}

	requestsSvc := requests.NewService(requestRepo, clk)
	membershipsSvc := memberships.NewService(personRepo, profileRepo, planRepo, attendanceRepo, clk)
	plansSvc := plans.NewService(planRepo, profileRepo, clk)
	sessionsSvc := sessions.NewService(sessionRepo, profileRepo, clk)
	attendanceSvc := attendance.NewService(attendanceRepo, profileRepo, clk)
	dashboardSvc := dashboard.NewService(personRepo, profileRepo, attendanceRepo, sessionRepo, clk)

	api := httpapi.NewServer(requestsSvc, membershipsSvc, plansSvc, sessionsSvc, attendanceSvc, dashboardSvc, idemStore, clk)
	handler := httpapi.NewRouter(api, authMW)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("api listening", "port", port, "storage", storageBackend, "auth", authMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
