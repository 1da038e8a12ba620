package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/feichai0017/smart-sdlc/api/handlers"
	"github.com/feichai0017/smart-sdlc/api/routes"
	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/internal/service/assistant"
	"github.com/feichai0017/smart-sdlc/internal/service/requirements"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/queue"
	"github.com/feichai0017/smart-sdlc/pkg/storage"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		// the logger is configured from cfg, so this is all we can do
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, client, err := requirements.GetPipeline(ctx, cfg.LLM, log)
	if err != nil {
		log.Fatal("Failed to create classification pipeline", logger.Error(err))
	}
	defer client.Close()

	var jobs handlers.JobManager
	if cfg.Server.JobsEnabled {
		store, err := storage.NewStorage(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize storage", logger.Error(err))
		}
		q := queue.NewAsynqQueue(cfg.Redis)
		defer q.Close()
		if err := q.Ping(ctx); err != nil {
			log.Fatal("Failed to connect to redis", logger.Error(err))
		}
		jobs = requirements.NewJobService(pipeline, q, store, cfg.Storage.Retention, log)
	}

	h := handlers.NewHandlers(pipeline, assistant.NewService(client, log), jobs, cfg.Server.MaxUploadBytes, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, cfg.Server.CORSOrigins, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting",
			logger.String("addr", cfg.Server.Addr),
			logger.Bool("jobsEnabled", cfg.Server.JobsEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			stop()
		}
	}()

	var grpcServer *grpc.Server
	if cfg.Server.GRPCHealthAddr != "" {
		grpcServer = startHealthServer(cfg.Server.GRPCHealthAddr, log)
	}

	<-ctx.Done()
	log.Info("Shutting down server...")

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		os.Exit(1)
	}
}

// startHealthServer exposes the standard gRPC health service for orchestrators
// that probe over gRPC.
func startHealthServer(addr string, log logger.Logger) *grpc.Server {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("Failed to listen for gRPC health checks", logger.String("addr", addr), logger.Error(err))
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Info("gRPC health server starting", logger.String("addr", addr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC health server stopped", logger.Error(err))
		}
	}()
	return grpcServer
}
