package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jamsocial/internal/config"
	"jamsocial/internal/di"
)

func main() {
	cfg := config.LoadConfig()

	mediaServer, cleanup, err := di.InitializeMediaServer(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MediaServicePort),
		Handler:     mediaServer,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	}

	go func() {
		log.Printf("Media HTTP server starting on %s", server.Addr)
		log.Printf("Serving objects at %s/object/{sign,public}/{bucket}/{path}", cfg.Server.MediaBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Media server forced to shutdown: %v", err)
	}
	log.Println("Media server stopped")
}
