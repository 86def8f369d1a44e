package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quest-service/internal/app"
	"quest-service/internal/config"
	"quest-service/internal/infra/memory"
	"quest-service/internal/infra/postgres"
	infraredis "quest-service/internal/infra/redis"
	"quest-service/internal/logger"
	transport "quest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type contentCache interface {
	app.ContentRepository
	app.ContentInvalidator
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		store   app.QuestStore     = memory.NewQuestStore()
		results app.ResultRecorder = memory.NewResultStore()
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewQuestStore(pool)

		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()
		results = postgres.NewResultStore(db)
	} else {
		log.Warn("postgres url not configured, quests are kept in memory")
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var cache contentCache
	var sessions app.SessionRepository
	if redisClient != nil {
		cache = infraredis.NewContentCache(redisClient, store, contentTTL)
		redisSessions := infraredis.NewSessionStore(redisClient, redisTTL)
		keepAliveCtx, stopKeepAlive := context.WithCancel(ctx)
		defer stopKeepAlive()
		go redisSessions.KeepAlive(keepAliveCtx, log)
		sessions = redisSessions
	} else {
		cache = memory.NewContentCache(store, contentTTL)
		sessions = memory.NewSessionStore()
	}

	admin := app.NewAdminService(store, cache, nil, log)
	play := app.NewPlayService(sessions, store, cache, results, app.PlayConfig{
		TickInterval:  config.TTLDuration(cfg.Session.Tick, time.Second),
		RecordTimeout: config.TTLDuration(cfg.Session.RecordTimeout, 5*time.Second),
	}, log)

	router := transport.NewRouter(transport.RouterConfig{
		QuestHandler: transport.NewQuestHandler(admin, nil),
		WSHandler:    transport.NewWSHandler(play, log),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       log,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quest service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
