package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/volunteerdesk/internal/assignment"
	"github.com/kazz187/volunteerdesk/internal/auth"
	"github.com/kazz187/volunteerdesk/internal/config"
	"github.com/kazz187/volunteerdesk/internal/content"
	contentrepo "github.com/kazz187/volunteerdesk/internal/content/repositoryimpl"
	"github.com/kazz187/volunteerdesk/internal/eventbus"
	"github.com/kazz187/volunteerdesk/internal/orchestrator"
	"github.com/kazz187/volunteerdesk/internal/pushnotification"
	pushsubrepo "github.com/kazz187/volunteerdesk/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/volunteerdesk/internal/task"
	"github.com/kazz187/volunteerdesk/internal/volunteer"
	volunteerrepo "github.com/kazz187/volunteerdesk/internal/volunteer/repositoryimpl"
	"github.com/kazz187/volunteerdesk/internal/workload"
	"github.com/kazz187/volunteerdesk/pkg/clog"
	"github.com/kazz187/volunteerdesk/pkg/panicerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"

	server "github.com/kazz187/volunteerdesk/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	if err := run(env); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(env *config.Env) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store, closer, err := openStorage(ctx, &env.StorageEnv)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	contentRepo := contentrepo.NewYAMLRepository(store)
	volunteerRepo := volunteerrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup domain services
	manager := task.NewManager(contentRepo, volunteerRepo, bus)
	aggregator := workload.NewAggregator(volunteerRepo, manager)
	engine, err := assignment.NewEngine(contentRepo, volunteerRepo, aggregator, manager, assignment.Config{
		SkillMatchWeight:        env.SkillMatchWeight,
		AvailabilityWeight:      env.AvailabilityWeight,
		WorkloadWeight:          env.WorkloadWeight,
		MaxWorkloadPerVolunteer: env.MaxWorkloadPerVolunteer,
		MinRequiredSkillMatch:   env.MinRequiredSkillMatch,
	})
	if err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}

	// Setup push notification
	pushSender := pushnotification.NewSender(&env.VAPIDEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, contentRepo, pushSender)

	srv := server.NewServer(
		env,
		auth.NewIssuer(env.JWTSecret),
		content.NewServer(contentRepo),
		volunteer.NewServer(volunteerRepo),
		task.NewServer(manager),
		workload.NewServer(aggregator),
		assignment.NewServer(engine),
		pushnotification.NewServer(&env.VAPIDEnv, pushSubRepo, pushSender),
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}))
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		<-ctx.Done()
		slog.Info("shutting down server")
		// Give active connections time to finish after stream contexts are cancelled.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}))
	p.Go(panicerr.SafeContext(pushDispatcher.Run))
	if env.AutoAssignOnCreate {
		p.Go(panicerr.SafeContext(orchestrator.New(bus, engine).Run))
	}
	if env.ConfigFile != "" {
		watcher := engine.ConfigFileWatcher(env.ConfigFile)
		if err := watcher.Load(ctx); err != nil {
			return fmt.Errorf("load scoring config: %w", err)
		}
		p.Go(panicerr.SafeContext(watcher.Run))
	}

	err = p.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, io.Closer, error) {
	switch env.Type {
	case "s3":
		s, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, nopCloser{}, nil
	case "sqlite":
		s, err := storage.NewSQLiteStorage(env.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		return s, s, nil
	case "memory":
		return storage.NewMemoryStorage(), nopCloser{}, nil
	default:
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return s, nopCloser{}, nil
	}
}
