// File: staycal/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staycal/config"
	"staycal/cron"
	"staycal/database"
	identityRepo "staycal/database/repository/identity"
	slotRepo "staycal/database/repository/slot"
	"staycal/handlers"
	"staycal/middleware"
	"staycal/routes"
	"staycal/services/identity"
	"staycal/services/reservation"
	syncsvc "staycal/services/sync"
	"staycal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Repositories and sync channel, per deployment backend.
	var (
		slots    slotRepo.SlotRepository
		users    identityRepo.UserRepository
		syncCh   syncsvc.SyncChannel
		sessions identity.SessionStore
		retry    reservation.PublishRetryQueue
	)

	switch config.AppConfig.StoreBackend {
	case "memory":
		// Local single-process deployment: everything in-process,
		// occupancy persisted to the data file.
		memSlots, err := slotRepo.NewMemorySlotRepo(config.AppConfig.DataFile)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to load slot data: %v", err)
		}
		memUsers, err := identityRepo.NewMemoryUserRepo(config.AppConfig.DataFile + ".users")
		if err != nil {
			logger.Sugar().Fatalf("main: failed to load user data: %v", err)
		}
		slots = memSlots
		users = memUsers
		syncCh = syncsvc.NewHub()
	case "mongo":
		database.InitDB()
		utils.InitAuthCache()
		utils.InitSyncRedis()

		slots = slotRepo.NewMongoSlotRepo()
		users = identityRepo.NewMongoUserRepo()
		syncCh = syncsvc.NewRedisSyncChannel(utils.GetSyncClient(), config.AppConfig.SyncChannel)
		sessions = &utils.RedisSessionStore{Client: utils.GetAuthCacheClient()}
		retry = cron.NewTaskClient()

		cron.InitSyncWorker(syncCh, slots)
		utils.StartHealthMonitor([]*redis.Client{utils.GetAuthCacheClient(), utils.GetSyncClient()}, database.MongoClient)
	default:
		logger.Sugar().Fatalf("main: unknown STORE_BACKEND %q", config.AppConfig.StoreBackend)
	}

	// Services.
	identityService := &identity.DefaultIdentityService{
		Repo:     users,
		Sessions: sessions,
	}
	reservationService := &reservation.DefaultReservationService{
		Repo:     slots,
		Sync:     syncCh,
		Retry:    retry,
		Capacity: config.AppConfig.SlotCapacity,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Sessions: sessions,
		Auth:     handlers.NewAuthHandler(identityService),
		Calendar: handlers.NewCalendarHandler(reservationService),
		Stream:   handlers.NewStreamHandler(reservationService, syncCh),
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
