package cli

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-client/internal/app"
	"quiz-client/internal/config"
	"quiz-client/internal/credentials"
	"quiz-client/internal/infra/file"
	"quiz-client/internal/infra/memory"
	pgarchive "quiz-client/internal/infra/postgres"
	rediscreds "quiz-client/internal/infra/redis"
	transport "quiz-client/internal/transport/http"
)

// runtime holds the process-wide dependencies one command needs. They are
// built once and passed into each controller.
type runtime struct {
	cfg    config.Config
	log    *zap.Logger
	store  *credentials.Store
	client *transport.Client
	prompt *prompter
	out    io.Writer

	archive app.ResultsArchive
	closers []func()
}

func newRuntime(cmd *cobra.Command, opts *rootOptions) (*runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.server != "" {
		cfg.API.BaseURL = opts.server
	}

	rt := &runtime{
		cfg:    cfg,
		log:    setupLogger(cfg.Log.Level, cfg.Log.Env),
		prompt: newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:    cmd.OutOrStdout(),
	}
	rt.closers = append(rt.closers, func() { _ = rt.log.Sync() })

	backend, err := rt.credentialBackend()
	if err != nil {
		rt.Close()
		return nil, err
	}
	secret, err := rt.credentialSecret()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store, err = credentials.NewStore(backend, secret)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.client = transport.NewClient(cfg.API.BaseURL, rt.store,
		transport.WithTimeout(config.TTLDuration(cfg.API.Timeout, 0)),
		transport.WithLogger(rt.log.Named("api")),
	)
	return rt, nil
}

func (rt *runtime) credentialBackend() (credentials.Backend, error) {
	switch rt.cfg.Credentials.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     rt.cfg.Redis.Addr,
			Password: rt.cfg.Redis.Password,
			DB:       rt.cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		ttl := config.TTLDuration(rt.cfg.Redis.TTL, 0)
		return rediscreds.NewCredentialBackend(client, rt.cfg.Credentials.Profile, ttl), nil
	case config.BackendMemory:
		return memory.NewCredentialBackend(), nil
	default:
		return file.NewCredentialBackend(rt.cfg.Credentials.Path), nil
	}
}

// credentialSecret prefers the configured secret. Otherwise a memory backend
// gets a throwaway key and the others a key file next to the credentials.
func (rt *runtime) credentialSecret() ([]byte, error) {
	if rt.cfg.Credentials.Secret != "" {
		return []byte(rt.cfg.Credentials.Secret), nil
	}
	if rt.cfg.Credentials.Backend == config.BackendMemory {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		return secret, nil
	}
	return credentials.LoadOrCreateKeyFile(filepath.Join(filepath.Dir(rt.cfg.Credentials.Path), "credentials.key"))
}

// resultsArchive connects lazily; only the results, play and history commands
// touch the archive.
func (rt *runtime) resultsArchive(ctx context.Context) (app.ResultsArchive, error) {
	if rt.archive != nil {
		return rt.archive, nil
	}
	switch rt.cfg.Archive.Backend {
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, rt.cfg, rt.log); err != nil {
			return nil, err
		}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.Connect(connectCtx, rt.cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.archive = pgarchive.NewResultsArchive(pool)
	case config.BackendMemory:
		rt.archive = memory.NewResultsArchive()
	default:
		rt.archive = file.NewResultsArchive(rt.cfg.Archive.Path)
	}
	return rt.archive, nil
}

func (rt *runtime) authController() *app.AuthController {
	return app.NewAuthController(rt.client, rt.store, rt.log.Named("auth"))
}

func (rt *runtime) homeController() *app.HomeController {
	return app.NewHomeController(rt.client, rt.store, rt.log.Named("home"))
}

// Close releases connections in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}
