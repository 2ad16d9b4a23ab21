package middleware

import (
	"net/http"

	"github.com/pairforge-ai/pairforge/backend/pkg/utils"
)

// CORS allows browser frontends served from another origin to call the
// API, including reading the chat key header off streaming responses.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+utils.HeaderChatKey)
		w.Header().Set("Access-Control-Expose-Headers", utils.HeaderChatKey)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
