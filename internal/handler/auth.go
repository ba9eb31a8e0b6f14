package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"
)

// RequireToken lets a request through to next only if it carries
// "Authorization: Bearer <token>". An empty token rejects every request.
func RequireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="bot"`)
			writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "missing or invalid API token", Code: "unauthorized"})
			return
		}
		next(w, r)
	}
}
