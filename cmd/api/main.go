package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pairforge-ai/pairforge/backend/internal/config"
	"github.com/pairforge-ai/pairforge/backend/internal/handler"
	"github.com/pairforge-ai/pairforge/backend/internal/knowledge"
	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.AI.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load model catalog: %v", err)
	}
	registry := ai.NewRegistry(catalog)
	log.Printf("model catalog loaded: %d model(s), default=%s", len(catalog.Models), catalog.Default)

	base, err := knowledge.LoadDir(cfg.Knowledge.Dir)
	if err != nil {
		log.Printf("warning: failed to load knowledge pack: %v", err)
		log.Println("continuing without knowledge contexts")
		base = knowledge.NewBase(nil)
	} else if base.Len() > 0 {
		log.Printf("knowledge pack loaded: %d context(s)", base.Len())
	} else {
		log.Println("no knowledge contexts configured")
	}

	prompts := prompt.NewMemoryStore(prompt.Seed())

	memory := chatservice.NewMemory(chatservice.MemoryConfig{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	defer memory.Close()

	manager := chatservice.NewManager(memory, registry, prompts, base, cfg.AI, cfg.Session)
	router := handler.NewRouter(manager, prompts, base)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("pairforge backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
