package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cimlab/wbemsim/internal/api"
	"github.com/cimlab/wbemsim/internal/config"
	"github.com/cimlab/wbemsim/internal/repository"
	"github.com/cimlab/wbemsim/internal/seed"
	"github.com/cimlab/wbemsim/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Initialize the repository and operation processor
	repo := repository.New(cfg.Repository.DefaultNamespace)
	proc := service.New(repo, service.Config{
		DefaultMaxObjectCount: cfg.Enumeration.DefaultMaxObjectCount,
		MaxOperationTimeout:   cfg.Enumeration.MaxOperationTimeout,
	}, logger)

	// Seed the repository if a model file is configured
	if cfg.Repository.SeedFile != "" {
		model, err := seed.Load(cfg.Repository.SeedFile)
		if err != nil {
			log.Fatalf("Failed to load seed file: %v", err)
		}
		if err := seed.Apply(model, proc, logger); err != nil {
			log.Fatalf("Failed to apply seed file: %v", err)
		}
	}

	// Create router
	router := api.NewRouter(proc, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting WBEM simulation server on http://%s", cfg.Server.Addr())
	log.Printf("Default namespace: %s", proc.DefaultNamespace())

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
