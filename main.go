package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/database"
	"github.com/tuma-app/tuma/backend/internal/oidc"
	"github.com/tuma-app/tuma/backend/internal/server"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/internal/storage"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"github.com/tuma-app/tuma/backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		sessions.SetBlacklistClient(rdb)
		defer func() { _ = rdb.Close() }()
	}

	var (
		repos  server.Repos
		client *mongo.Client
		sess   *sessions.Service
	)
	if cfg.MongoDB.URI != "" {
		client, err = database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db := client.Database(cfg.MongoDB.Database)
		repos = server.MongoRepos(db)
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
		if rdb == nil {
			sess = sessions.NewService(sessions.NewMongoRepository(db.Collection(database.Sessions)))
		}
	} else {
		repos = server.MemoryRepos()
	}
	switch {
	case rdb != nil:
		sess = sessions.NewService(sessions.NewRedisRepository(rdb, "session:"))
		logger.Infof("sessions stored in Redis")
	case sess == nil:
		sess = sessions.NewService(sessions.NewMemoryRepository())
		logger.Warnf("sessions kept in memory; users are signed out on restart")
	}

	var files storage.FileStore
	if cfg.MinIO.Endpoint != "" {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("file storage disabled: %v", err)
		} else {
			files = st
			logger.Infof("file storage enabled (bucket %s)", cfg.MinIO.Bucket)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	deps := server.Build(cfg, repos, sess, files, oidc.FromConfig(ctx, cfg.OIDC), rdb)
	if client != nil {
		deps.Ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.WithCORS(server.NewRouter(deps), cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s (env=%s)", srv.Addr, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// connectRedis returns nil when Redis is not configured or does not answer.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis unavailable at %s: %v", addr, err)
		_ = rdb.Close()
		return nil
	}
	logger.Infof("connected to Redis at %s", addr)
	return rdb
}
