package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/tmsflow/fleettrack/internal/pkg/config"
	"github.com/tmsflow/fleettrack/internal/pkg/health"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/middleware"
	"github.com/tmsflow/fleettrack/internal/pkg/server"
	ws "github.com/tmsflow/fleettrack/internal/pkg/websocket"
	"github.com/tmsflow/fleettrack/services/fleet/gateway"
	"github.com/tmsflow/fleettrack/services/fleet/handler"
	"github.com/tmsflow/fleettrack/services/fleet/repository"
	"github.com/tmsflow/fleettrack/services/fleet/usecase"
)

func main() {
	appName := "fleettrack"
	configs := config.InitConfig(".env")

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:    configs.Logger.Level,
		FilePath: configs.Logger.FilePath,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	// Initialize repository with the demo seed
	fleetRepo := repository.NewStore(repository.SeedOrders(time.Now()), repository.SeedDrivers())

	// Initialize gateways
	wsManager := ws.NewManager()
	mapGW := gateway.NewMapGW(wsManager)
	insightGW := gateway.NewInsightGW(configs.Insight, zapLogger)

	// Initialize usecase (owns the simulation engine)
	fleetUC := usecase.NewFleetUC(fleetRepo, insightGW, mapGW, configs)

	shutdownManager := server.NewShutdownManager(zapLogger)
	shutdownManager.Register(func(ctx context.Context) error {
		fleetUC.Close()
		return nil
	})

	// Initialize Echo router
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(zapLogger))

	health.RegisterHealthEndpoints(e, appName, configs.App.Version)

	fleetHandler := handler.NewHTTPHandler(fleetUC, wsManager)
	fleetHandler.RegisterRoutes(e)

	// Start server with graceful shutdown
	srv := server.NewGracefulServer(e, zapLogger, configs.Server.Port,
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	if err := srv.Start(); err != nil {
		zapLogger.Fatal("Failed to run server", logger.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := shutdownManager.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Component shutdown finished with errors", logger.Err(err))
	}
}
