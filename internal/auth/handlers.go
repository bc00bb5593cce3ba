package auth

import (
	"encoding/json"
	"net/http"
)

// Handlers — HTTP-обработчики авторизации
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleDevAuth handles POST /v1/auth/dev — local dev token without an
// external identity provider. Disabled unless AUTH_MODE=dev.
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	if h.service.config.AuthMode != "dev" {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	var req DevAuthRequest
	// Body is optional; ignore decode errors and fall back to defaults.
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := h.service.SignInDev(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue dev token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
