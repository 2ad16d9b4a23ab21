package prompts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pairforge-ai/pairforge/backend/internal/knowledge"
	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	"github.com/pairforge-ai/pairforge/backend/pkg/utils"
)

// Handler serves the prompt catalog and knowledge context metadata the
// frontend uses to populate its pickers.
type Handler struct {
	prompts   prompt.Store
	knowledge *knowledge.Base
}

// New creates the catalog handler.
func New(prompts prompt.Store, base *knowledge.Base) *Handler {
	return &Handler{prompts: prompts, knowledge: base}
}

// RegisterRoutes mounts the catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/prompts", h.handleListPrompts)
	r.Get("/knowledge", h.handleListKnowledge)
}

func (h *Handler) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"prompts": h.prompts.List()})
}

func (h *Handler) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"contexts": h.knowledge.List()})
}
