package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krira-ai/ragcore"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := ragcore.LoadConfig()
	corsOrigins := os.Getenv("RAGCORE_CORS_ORIGINS")

	svc, err := newService(cfg)
	if err != nil {
		slog.Error("creating service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	h := newHandler(svc)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /uploaddataset", h.handleUploadDataset)
	mux.HandleFunc("POST /embed", h.handleEmbed)
	mux.HandleFunc("GET /api/llm/models", h.handleListModels)
	mux.HandleFunc("POST /api/llm/test", h.handleTestLLM)
	mux.HandleFunc("POST /api/llm/evaluate", h.handleEvaluateLLM)
	mux.HandleFunc("POST /v1/chat", h.handleChat)

	// Middleware chain: recovery -> cors -> logging -> mux. Per-route
	// auth lives inside handleChat (Bearer token exchanged for a
	// Pipeline via the key-verification collaborator), not a global
	// static-key gate, since only /v1/chat is end-user authenticated.
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // evaluation and ingest responses can be long
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
