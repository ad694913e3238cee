package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jonathansantilli/freemad/internal/backend"
	"github.com/jonathansantilli/freemad/internal/config"
	"github.com/jonathansantilli/freemad/internal/hub"
	"github.com/jonathansantilli/freemad/internal/policy"
	"github.com/jonathansantilli/freemad/internal/session"
	"github.com/jonathansantilli/freemad/internal/store"
	"github.com/jonathansantilli/freemad/internal/transcripts"
	handler "github.com/jonathansantilli/freemad/internal/transport/http"
)

// backendAdapter bridges the concrete backend client to the handler's
// Backend interface.
type backendAdapter struct {
	*backend.Client
}

func (b backendAdapter) Subscribe(ctx context.Context, runID string) (session.EventSource, error) {
	return b.Client.Subscribe(ctx, runID)
}

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting dashboard server...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Backend: %s", cfg.BackendURL)
	log.Printf("Transcripts: %s", cfg.TranscriptsDir)
	log.Printf("Database: %s", cfg.DatabaseURL)

	// Initialize stores
	db, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	ts, err := transcripts.NewStore(cfg.TranscriptsDir)
	if err != nil {
		log.Fatalf("Failed to initialize transcripts store: %v", err)
	}

	// Initialize backend client
	be := backendAdapter{backend.NewClient(cfg.BackendURL)}

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize watcher hub and session manager
	watcherHub := hub.NewHub()
	go watcherHub.Run()

	manager := session.NewManager()

	// Initialize handler
	h := handler.NewHandler(cfg, ts, db, be, manager, policyEngine, watcherHub)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Dashboard API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down dashboard server...")

	manager.CloseAll()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Dashboard server stopped")
}
