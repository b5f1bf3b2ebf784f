package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
	"github.com/joseph-ayodele/estate-toolkit/internal/server"
)

func main() {
	// Messages and attributes only; the supervisor stamps time and level.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger, app.Options{Database: true, Vision: true, Quota: true})
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := repository.HealthCheck(ctx, deps.DB, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err, "dialect", deps.DB.Dialect)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}

	svc := server.NewEstateService(deps.Processor, deps.Calc, deps.Export, deps.Quota, logger)
	grpcServer, healthServer := server.NewGRPCServer(svc, logger)

	logger.Info("estated listening", "addr", addr, "model", deps.Vision.Name(), "ocr", cfg.OCR.Engine)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(server.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	logger.Info("estated stopped")
}
