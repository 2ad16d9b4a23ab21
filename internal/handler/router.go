package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/pairforge-ai/pairforge/backend/internal/handler/chat"
	promptshandler "github.com/pairforge-ai/pairforge/backend/internal/handler/prompts"
	streamhandler "github.com/pairforge-ai/pairforge/backend/internal/handler/stream"
	wshandler "github.com/pairforge-ai/pairforge/backend/internal/handler/ws"
	"github.com/pairforge-ai/pairforge/backend/internal/knowledge"
	"github.com/pairforge-ai/pairforge/backend/internal/middleware"
	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(manager *chatservice.Manager, prompts prompt.Store, base *knowledge.Base) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	sessionHandler := chathandler.New(manager)
	catalogHandler := promptshandler.New(prompts, base)
	streamHandler := streamhandler.New(manager, prompts)
	wsHandler := wshandler.New(manager)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.RegisterRoutes(api)
		catalogHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
