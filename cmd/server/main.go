package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studentportal/internal/admin"
	"studentportal/internal/attendance"
	"studentportal/internal/auth"
	"studentportal/internal/cache"
	"studentportal/internal/fees"
	"studentportal/internal/httpapi"
	"studentportal/internal/marks"
	"studentportal/internal/schedule"
	"studentportal/internal/shared"
	"studentportal/internal/store"
)

func main() {
	log.Println("INFO: Starting Student Portal Service...")

	// 1. Load Configuration
	if err := shared.LoadEnv(".env"); err != nil {
		log.Printf("WARN: No .env file loaded: %v", err)
	}
	config, err := shared.LoadServerConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := shared.ValidateServerConfig(config); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}
	shared.PrintConfig(config)

	// 2. Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			log.Printf("WARN: Error disconnecting from MongoDB: %v", err)
		}
	}()

	recordStore := store.New(db)

	// 3. Optional Redis cache; a nil cache degrades to always-miss
	var summaryCache *cache.Cache
	if config.Redis.Enabled {
		summaryCache = cache.New(config.Redis.Addr, config.Redis.TTL)
		defer summaryCache.Close()
	}

	// 4. Build Services
	svcs := httpapi.Services{
		Config:     config,
		Store:      recordStore,
		Cache:      summaryCache,
		Auth:       auth.NewService(db, config),
		Attendance: attendance.NewService(recordStore, summaryCache),
		Marks:      marks.NewService(recordStore, summaryCache, marks.DefaultScheme()),
		Fees:       fees.NewService(recordStore, summaryCache),
		Schedule:   schedule.NewService(recordStore),
		Admin:      admin.NewService(recordStore),
	}

	// 5. Configure Server
	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      httpapi.NewRouter(svcs),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: %s listening on port %s", config.ServiceName, config.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("WARN: Forced shutdown: %v", err)
	}

	log.Println("INFO: Student Portal Service stopped.")
}
