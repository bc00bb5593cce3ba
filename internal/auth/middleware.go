package auth

import (
	"net/http"
	"strings"

	"github.com/fdg312/mealplan-hub/internal/config"
	"github.com/fdg312/mealplan-hub/internal/userctx"
)

// Middleware — middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// ResolveUser attaches the caller's user id to the request context.
// A valid Bearer token always wins; without one the behavior depends on
// configuration: AUTH_REQUIRED rejects, otherwise the X-User-ID header
// (or "default") is accepted. The user id is opaque to everything
// downstream.
func (m *Middleware) ResolveUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader != "" {
			userID, err := m.authenticateHeader(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
			return
		}

		if m.config.AuthRequired {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			userID = "default"
		}
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	return m.service.VerifyJWT(parts[1])
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
