package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/internal/service/requirements"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/queue"
	"github.com/feichai0017/smart-sdlc/pkg/storage"
	"github.com/feichai0017/smart-sdlc/pkg/worker"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		panic(err)
	}

	logCfg := cfg.Log
	logCfg.OutputPaths = []string{"stdout", "logs/worker.log"}
	log, err := logger.New(logCfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, client, err := requirements.GetPipeline(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("Failed to create classification pipeline", logger.Error(err))
		os.Exit(1)
	}
	defer client.Close()

	store, err := storage.NewStorage(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("Failed to initialize storage", logger.Error(err))
		os.Exit(1)
	}

	q := queue.NewAsynqQueue(cfg.Redis)
	defer q.Close()

	jobs := requirements.NewJobService(pipeline, q, store, cfg.Storage.Retention, log)
	if err := jobs.CleanupStaged(ctx); err != nil {
		log.Warn("Staged upload cleanup failed", logger.Error(err))
	}

	w := worker.NewClassificationWorker(&worker.Config{
		Redis:       queue.RedisOpt(cfg.Redis),
		Concurrency: cfg.Redis.Concurrency,
	}, jobs, log)

	if err := w.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", cfg.Redis.Concurrency))

	<-ctx.Done()
	log.Info("Shutting down worker...")
	w.Stop()
	log.Info("Worker stopped")
}
