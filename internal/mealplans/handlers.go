package mealplans

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/mealplan-hub/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate handles POST /v1/mealplans
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req CreateMealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	plan, err := h.service.Create(ctx, userID, req)
	if err != nil {
		writeServiceError(w, err, "Failed to create meal plan")
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

// HandleList handles GET /v1/mealplans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	plans, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list meal plans")
		return
	}

	writeJSON(w, http.StatusOK, ListMealPlansResponse{Plans: plans})
}

// HandleUpdate handles PATCH /v1/mealplans/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Meal plan not found")
		return
	}

	var req UpdateMealPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	plan, err := h.service.Update(ctx, planID, userID, req)
	if err != nil {
		writeServiceError(w, err, "Failed to update meal plan")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// HandleDelete handles DELETE /v1/mealplans/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Meal plan not found")
		return
	}

	if err := h.service.Delete(r.Context(), planID); err != nil {
		writeServiceError(w, err, "Failed to delete meal plan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep handles POST /v1/mealplans/sweep — administrative trigger
// for the expiry sweep, safe to call at any time.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.TriggerExpirySweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to run expiry sweep")
		return
	}

	writeJSON(w, http.StatusOK, SweepResponse{Updated: updated})
}

// writeServiceError maps service errors to the wire format.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidAnchor):
		writeError(w, http.StatusBadRequest, "invalid_anchor", err.Error())
	case errors.Is(err, ErrTooManyActivePlans):
		writeError(w, http.StatusConflict, "too_many_active_plans", err.Error())
	case errors.Is(err, ErrDateCollision):
		writeError(w, http.StatusConflict, "date_collision", err.Error())
	case errors.Is(err, ErrWindowConflict):
		writeError(w, http.StatusConflict, "window_conflict", err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Meal plan not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "Meal plan belongs to another user")
	case strings.HasPrefix(err.Error(), "validation failed: "):
		writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), "validation failed: "))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
