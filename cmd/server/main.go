package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freight-enquiry-importer/internal/config"
	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/dict"
	"freight-enquiry-importer/internal/export"
	"freight-enquiry-importer/internal/importer"
	"freight-enquiry-importer/internal/middleware"
	"freight-enquiry-importer/internal/repository"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn.Pool, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	runner := importer.NewRunner(conn, cfg.BatchSize)

	dictHandler := dict.NewHandler(
		repository.NewCountryRepository(conn.Pool),
		repository.NewPortRepository(conn.Pool),
		repository.NewSalesOfficeRepository(conn.Pool),
		repository.NewCategoryRepository(conn.Pool),
		repository.NewEnquiryRepository(conn.Pool),
		repository.NewImportLogRepository(conn.Pool),
	)

	exportService := export.NewService(repository.NewEnquiryRepository(conn.Pool), cfg.BatchSize)

	mux := http.NewServeMux()
	mux.Handle("POST /import/enquiries", importer.NewHTTPHandler(runner))
	mux.Handle("GET /export/enquiries", export.NewHTTPHandler(exportService))
	dictHandler.Register(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: corsHandler.Handler(middleware.LoggingMiddleware(mux)),
		// Tracker uploads can take a while to stream through the engine.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting import server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
