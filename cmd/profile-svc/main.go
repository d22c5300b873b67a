package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"jamsocial/internal/config"
	"jamsocial/internal/di"
)

const serviceName = "jamsocial.profile"

func main() {
	cfg := config.LoadConfig()

	app, cleanup, err := di.InitializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:        app.Router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(loggingUnaryInterceptor(app.Log)))
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	if cfg.Server.GRPCReflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen on port %s: %v", cfg.Server.GRPCPort, err)
	}

	go func() {
		app.Log.Info("grpc health server starting", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			app.Log.Error("grpc server stopped", "error", err)
		}
	}()

	go func() {
		app.Log.Info("profile service starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("shutting down profile service")
	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		app.Log.Warn("server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	app.Log.Info("profile service stopped")
}

func loggingUnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc call failed", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		} else {
			logger.Debug("grpc call", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}
