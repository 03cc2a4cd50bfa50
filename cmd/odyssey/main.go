package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-hr/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-hr/internal/app"
	"github.com/odyssey-erp/odyssey-hr/internal/observability"
	"github.com/odyssey-erp/odyssey-hr/internal/payroll"
	"github.com/odyssey-erp/odyssey-hr/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-hr/internal/platform/db"
	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/profiles"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
	"github.com/odyssey-erp/odyssey-hr/jobs"
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

	// A missing policy is a deployment defect; refuse to start.
	registry, err := app.Policies()
	if err != nil {
		logger.Error("policy registry", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, permission cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	rbacService := newRBACService(dbpool, redisClient, cfg, logger)

	if len(os.Args) > 1 {
		os.Exit(runCommand(ctx, cfg, registry, rbacService, os.Args[1:]))
	}

	metrics := observability.NewMetrics()
	authorizer := policy.NewAuthorizer(registry, metrics, logger)
	auditLogger := shared.NewAuditLogger(dbpool)

	redisOpts := cfg.AsynqRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	payrollService := payroll.NewService(payroll.NewRepository(dbpool), auditLogger, jobClient, logger).
		WithIdempotency(shared.NewIdempotencyStore(dbpool))
	profilesService := profiles.NewService(profiles.NewRepository(dbpool), auditLogger, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbac.Middleware{Loader: rbacService, Logger: logger},
		PermissionsHandler: rbac.NewPermissionsHandler(logger),
		PayrollHandler:     payroll.NewHandler(logger, payrollService, authorizer),
		ProfilesHandler:    profiles.NewHandler(logger, profilesService, authorizer),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.Any("policies", registry.Types()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newRBACService(pool *pgxpool.Pool, redisClient *redis.Client, cfg *app.Config, logger *slog.Logger) *rbac.Service {
	var permCache *rbac.PermissionCache
	if redisClient != nil {
		permCache = rbac.NewPermissionCache(redisClient, cfg.PermissionCacheTTL)
	}
	return rbac.NewService(rbac.NewRepository(pool), permCache, logger)
}

func runCommand(ctx context.Context, cfg *app.Config, registry *policy.Registry, loader cli.PrincipalLoader, args []string) int {
	switch {
	case len(args) >= 2 && args[0] == "authz" && args[1] == "check":
		authzCLI, err := cli.NewAuthzCLI(loader, registry)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitError
		}
		opts, err := cli.ParseCheckFlags(args[2:], os.Stderr)
		if err != nil {
			return cli.ExitError
		}
		return authzCLI.CheckCommand(ctx, opts)
	case len(args) >= 2 && args[0] == "authz" && args[1] == "policies":
		authzCLI, err := cli.NewAuthzCLI(loader, registry)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitError
		}
		return authzCLI.PoliciesCommand(os.Stdout)
	case len(args) >= 2 && args[0] == "jobs" && args[1] == "stats":
		jobsCLI, err := cli.NewJobsCLI(cfg.AsynqRedis())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitError
		}
		defer jobsCLI.Close() //nolint:errcheck
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return cli.ExitError
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return cli.ExitAllowed
	case len(args) >= 2 && args[0] == "jobs" && args[1] == "resend":
		payload, err := cli.ParseResendFlags(args[2:], os.Stderr)
		if err != nil {
			return cli.ExitError
		}
		jobsCLI, err := cli.NewJobsCLI(cfg.AsynqRedis())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitError
		}
		defer jobsCLI.Close() //nolint:errcheck
		info, err := jobsCLI.TriggerPayslipIssued(ctx, payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs resend: %v\n", err)
			return cli.ExitError
		}
		fmt.Printf("enqueued %s on %s\n", info.ID, info.Queue)
		return cli.ExitAllowed
	default:
		fmt.Fprintln(os.Stderr, "usage: odyssey [authz check --user ID --action ACTION --resource TYPE [--owner ID] [--json] | authz policies | jobs stats | jobs resend --payslip ID --employee ID --period YYYY-MM]")
		return cli.ExitError
	}
}
