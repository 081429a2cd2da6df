package user

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the user module
type Handler struct {
	repo *Repository
}

// NewHandler creates a new user handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the user routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.GetMe)

	adminOnly := auth.RequireRoles(auth.RoleStationAdmin, auth.RoleNationalAdmin)
	r.With(adminOnly).Get("/", h.ListUsers)
	r.With(adminOnly).Get("/{userID}", h.GetUser)

	// Roles are keyed by the identity provider's user id so the admin
	// dashboard can promote accounts straight from the provider's listing.
	r.With(auth.RequireRoles(auth.RoleNationalAdmin)).
		Put("/external/{externalID}/role", h.UpdateRole)

	return r
}

// GetMe returns the calling user's account
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUser(r.Context())
	if caller == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	u, err := h.repo.GetByID(r.Context(), caller.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// ListUsers lists user accounts
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r.URL.Query())

	users, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  users,
		"total": total,
	})
}

// GetUser gets a user by internal ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// UpdateRole changes a user's role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	role := strings.ToLower(req.Role)
	if !validRole(role) {
		writeError(w, errors.BadRequest("invalid role"))
		return
	}

	if err := h.repo.UpdateRole(r.Context(), externalID, role); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.repo.GetByExternalID(r.Context(), externalID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func listFilterFromQuery(q url.Values) ListUsersFilter {
	filter := ListUsersFilter{
		Role:   q.Get("role"),
		Search: q.Get("search"),
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			filter.Offset = n
		}
	}
	return filter
}

func validRole(role string) bool {
	switch role {
	case auth.RoleCitizen, auth.RoleOfficer, auth.RoleStationAdmin, auth.RoleNationalAdmin:
		return true
	}
	return false
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
