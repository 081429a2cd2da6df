package stats

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the stats module
type Handler struct {
	service *Service
}

// NewHandler creates a new stats handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the stats routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequireRoles(auth.RoleStationAdmin, auth.RoleNationalAdmin)).
		Get("/stations/{stationID}", h.GetStationStats)

	r.With(auth.RequireRoles(auth.RoleNationalAdmin)).
		Get("/national", h.GetNationalStats)

	return r
}

// GetStationStats returns the dashboard summary for one station
func (h *Handler) GetStationStats(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	// Station admins only see their own station
	user := auth.GetUser(r.Context())
	if user.Role == auth.RoleStationAdmin && user.StationID != stationID {
		writeError(w, errors.Forbidden("stats for another station"))
		return
	}

	stats, err := h.service.StationStats(r.Context(), stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetNationalStats returns the oversight summary across all stations
func (h *Handler) GetNationalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.NationalStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
