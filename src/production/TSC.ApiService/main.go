package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/controllers"
	jwt "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/implementation/jwt"
	authMiddleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	tscbridge "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Bridge"
	container "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Container"
	tscgateway "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Gateway"
	implementation "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Implementation"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Cloud Server")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	// Create repositories
	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	sensorRepo := implementation.NewPostgresSensorRepository(db)
	readingRepo := implementation.NewPostgresReadingRepository(db)
	pairingRepo := implementation.NewPostgresPairingRepository(db)

	config := ctr.GetConfig()

	// Live fan-out gateway
	gateway := tscgateway.NewHub(config.Gateway, logger)

	// MQTT bridge between the broker, the store and the gateway
	bridge := tscbridge.New(config, deviceRepo, sensorRepo, readingRepo, pairingRepo, gateway, logger)
	if err := bridge.Start(ctx); err != nil {
		logger.FatalWithError(err, "Failed to start MQTT bridge")
	}
	ctr.AddCleanupFunc(func() error {
		bridge.Stop()
		return nil
	})

	// Initialize JWT service for token issuance and validation
	jwtService := jwt.NewService(jwt.Config{
		SecretKey:            config.Auth.JWTSecretKey,
		RefreshSecretKey:     config.Auth.JWTRefreshSecretKey,
		Issuer:               config.Auth.JWTIssuer,
		AccessTokenDuration:  config.Auth.AccessTokenDuration,
		RefreshTokenDuration: config.Auth.RefreshTokenDuration,
	})

	authMiddlewareInstance := authMiddleware.NewAuthMiddleware(jwtService)

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to get health checker")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	authController := controllers.NewAuthController(config.Auth, jwtService, logger)
	deviceController := controllers.NewDeviceController(deviceRepo, gateway, logger, authMiddlewareInstance)
	sensorController := controllers.NewSensorController(sensorRepo, bridge, logger, authMiddlewareInstance)
	readingController := controllers.NewReadingController(readingRepo, logger, authMiddlewareInstance)
	pairingController := controllers.NewPairingController(pairingRepo, deviceRepo, bridge, logger, authMiddlewareInstance)
	healthController := controllers.NewHealthController(healthChecker, bridge)

	authController.RegisterRoutes(router)
	deviceController.RegisterRoutes(router)
	sensorController.RegisterRoutes(router)
	readingController.RegisterRoutes(router)
	pairingController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	// Dashboard websocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		gateway.HandleWS(c.Writer, c.Request)
	})

	port := config.Server.Port

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Cloud server running... press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
