package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	appcfg "github.com/karuha/puzzleboard-go/internal/config"
	"github.com/karuha/puzzleboard-go/internal/gamecat"
	"github.com/karuha/puzzleboard-go/internal/httpapi"
	"github.com/karuha/puzzleboard-go/internal/obslog"
	"github.com/karuha/puzzleboard-go/internal/service/record"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	catalog, err := gamecat.New(cfg.GamesDir)
	if err != nil {
		logger.Fatal("game catalog init failed", zap.Error(err))
	}

	var repo record.Repository
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres open failed", zap.Error(err))
		}
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pctx); err != nil {
			cancel()
			logger.Fatal("postgres ping failed", zap.Error(err))
		}
		cancel()
		repo = record.NewRepository(db)
		logger.Info("using postgres record repository")
	} else {
		repo = record.NewMemoryRepository()
		logger.Warn("DATABASE_URL not set, records are kept in memory only")
	}

	var locker record.Locker
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pctx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		locker = record.NewRedisLocker(rdb, cfg.IngestLockTTL)
		logger.Info("using redis ingest locker")
	} else {
		locker = record.NewMutexLocker()
		logger.Warn("REDIS_URL not set, ingest serialization is process-local")
	}

	svc := record.NewService(repo, locker, catalog, logger)
	api := httpapi.NewServer(svc, catalog, logger, cfg.RecentLimit)

	srv := &fasthttp.Server{
		Handler:      api.Handler,
		Name:         "puzzleboard",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.ShutdownWithContext(sctx)
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
