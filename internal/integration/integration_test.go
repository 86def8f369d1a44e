package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

	"quest-service/internal/app"
	"quest-service/internal/domain"
	"quest-service/internal/infra/postgres"
	pgmigrations "quest-service/internal/infra/postgres/migrations"
	infraredis "quest-service/internal/infra/redis"
)

func TestScoredPlayEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := postgres.NewQuestStore(pool)
	results := postgres.NewResultStore(db)
	cache := infraredis.NewContentCache(redisClient, store, 5*time.Minute)
	admin := app.NewAdminService(store, cache, clock, nil)
	play := app.NewPlayService(infraredis.NewSessionStore(redisClient, 5*time.Minute), store, cache, results, app.PlayConfig{Now: clock}, nil)

	quest, err := admin.CreateQuest(ctx, app.NewQuest{
		Title:      "Arithmetic",
		ActiveFrom: now.Add(-time.Hour),
		ActiveTo:   now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := admin.GetContent(ctx, quest.ID, true); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("expected no content yet, got %v", err)
	}
	if _, err := admin.SaveContent(ctx, quest.ID, sampleContent()); err != nil {
		t.Fatalf("save content: %v", err)
	}

	session, err := play.Start(ctx, app.StartRequest{QuestID: quest.ID, PlayerID: "p1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Mode() != domain.ModeScored {
		t.Fatalf("expected scored mode, got %s", session.Mode())
	}
	if err := session.SelectOption("q1", 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.ToggleOption("q2", 0, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := session.ToggleOption("q2", 2, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	res, err := play.Submit(session.ID())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 3 || res.Total != 3 {
		t.Fatalf("expected 3/3, got %d/%d", res.Score, res.Total)
	}

	n, err := results.CountAttempts(ctx, quest.ID, "p1")
	if err != nil || n != 1 {
		t.Fatalf("expected one recorded attempt, got %d (%v)", n, err)
	}
	attempts, err := results.Attempts(ctx, quest.ID)
	if err != nil || len(attempts) != 1 || !attempts[0].Result.Correct["q2"] {
		t.Fatalf("unexpected attempts %+v (%v)", attempts, err)
	}

	again, err := play.Start(ctx, app.StartRequest{QuestID: quest.ID, PlayerID: "p1"})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.Mode() != domain.ModePractice {
		t.Fatalf("expected practice once the attempt is used, got %s", again.Mode())
	}

	if err := admin.DeleteQuest(ctx, quest.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetContent(ctx, quest.ID); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("expected content cascaded away, got %v", err)
	}
}

func TestWindowCheckConstraint(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	err = postgres.NewQuestStore(pool).CreateQuest(ctx, domain.Quest{ID: "bad", Title: "Bad", ActiveFrom: from, ActiveTo: from.Add(-time.Hour)})
	if err == nil {
		t.Fatalf("expected inverted window to be rejected by the schema")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quest", "POSTGRES_PASSWORD": "questpass", "POSTGRES_DB": "questdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://quest:questpass@%s:%s/questdb?sslmode=disable", host, port.Port())
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

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleContent() domain.QuestContent {
	c := domain.EmptyContent()
	c.Questions = []domain.Question{
		{
			ID: "q1", Type: domain.SingleChoice, Text: "What is 2 + 2?",
			Options: []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}, {ID: "o3", Text: "5"}},
			Correct: domain.SingleKey{Index: "1"},
			Points:  1,
		},
		{
			ID: "q2", Type: domain.MultipleChoice, Text: "Pick the primes",
			Options: []domain.Option{{ID: "a", Text: "2"}, {ID: "b", Text: "4"}, {ID: "c", Text: "5"}},
			Correct: domain.MultiKey{Indexes: []string{"0", "2"}},
			Points:  2,
		},
	}
	return c
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
