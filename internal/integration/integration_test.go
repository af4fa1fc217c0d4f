package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-client/internal/app"
	"quiz-client/internal/credentials"
	"quiz-client/internal/fakeapi"
	pgarchive "quiz-client/internal/infra/postgres"
	pgmigrations "quiz-client/internal/infra/postgres/migrations"
	infraredis "quiz-client/internal/infra/redis"
	"quiz-client/internal/state"
	transport "quiz-client/internal/transport/http"
)

func TestQuizRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateArchive(t, ctx, pgURL)
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	archive := pgarchive.NewResultsArchive(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	store, err := credentials.NewStore(infraredis.NewCredentialBackend(redisClient, "it", time.Hour), []byte("integration-secret-0123"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	api := fakeapi.New()
	server := httptest.NewServer(api.Handler())
	defer server.Close()
	client := transport.NewClient(server.URL+"/api/", store)

	auth := app.NewAuthController(client, store, nil)
	defer auth.Close()
	auth.Register("alice", "secret1")
	auth.Wait()
	if _, ok := state.Value(auth.RegisterState().Get()); !ok {
		t.Fatalf("register: %+v", auth.RegisterState().Get())
	}
	if name, _ := store.Username(ctx); name != "alice" {
		t.Fatalf("stored username = %q", name)
	}

	home := app.NewHomeController(client, store, nil)
	defer home.Close()
	category := 1
	home.StartQuiz(&category)
	home.Wait()
	started, ok := state.Value(home.StartedState().Get())
	if !ok {
		t.Fatalf("start: %+v", home.StartedState().Get())
	}

	session := app.NewQuizSession(client, nil)
	defer session.Close()
	if err := session.Init(started.QuizID); err != nil {
		t.Fatalf("init: %v", err)
	}
	for session.Wait(); session.Phase() != app.PhaseComplete; session.Wait() {
		switch session.Phase() {
		case app.PhaseQuestionReady:
			answerID, _ := api.CorrectAnswer(started.QuizID)
			if !session.SubmitAnswer(answerID) {
				t.Fatalf("submit refused")
			}
		case app.PhaseAnswerShown:
			session.DismissAnswer()
		default:
			t.Fatalf("unexpected phase %s", session.Phase())
		}
	}

	results := app.NewResultsController(client, archive, nil)
	defer results.Close()
	results.LoadResults(started.QuizID)
	results.Wait()
	r, ok := state.Value(results.ResultsState().Get())
	if !ok || r.Score != started.QuestionCount {
		t.Fatalf("results = %+v", results.ResultsState().Get())
	}

	history, err := archive.List(ctx, 10)
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(history) != 1 || history[0].Results.QuizID != started.QuizID {
		t.Fatalf("archive = %+v", history)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateArchive(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
