package station

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the station module
type Handler struct {
	repo *Repository
}

// NewHandler creates a new station handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the station routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	adminOnly := auth.RequireRoles(auth.RoleStationAdmin, auth.RoleNationalAdmin)
	nationalOnly := auth.RequireRoles(auth.RoleNationalAdmin)

	// Station routes. The listing is open to every authenticated user so
	// citizens can pick a station when filing a report.
	r.Route("/stations", func(r chi.Router) {
		r.Get("/", h.ListStations)
		r.With(nationalOnly).Post("/", h.CreateStation)

		r.Route("/{stationID}", func(r chi.Router) {
			r.Get("/", h.GetStation)
			r.With(adminOnly).Put("/", h.UpdateStation)

			r.With(adminOnly).Route("/officers", func(r chi.Router) {
				r.Get("/", h.ListOfficers)
				r.Post("/", h.CreateOfficer)
			})

			r.With(adminOnly).Route("/teams", func(r chi.Router) {
				r.Get("/", h.ListTeams)
				r.Post("/", h.CreateTeam)
			})
		})
	})

	// Direct access by ID
	r.With(adminOnly).Route("/officers", func(r chi.Router) {
		r.Route("/{officerID}", func(r chi.Router) {
			r.Get("/", h.GetOfficer)
			r.Put("/", h.UpdateOfficer)
		})
	})

	r.With(adminOnly).Route("/teams", func(r chi.Router) {
		r.Route("/{teamID}", func(r chi.Router) {
			r.Get("/", h.GetTeam)
			r.Put("/", h.UpdateTeam)
		})
	})

	return r
}

// --- Station handlers ---

// ListStations lists all stations
func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	filter := ListStationsFilter{
		County: r.URL.Query().Get("county"),
		Search: r.URL.Query().Get("search"),
	}

	stations, total, err := h.repo.ListStations(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  stations,
		"total": total,
	})
}

// GetStation gets a station by ID
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	s, err := h.repo.GetStation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// CreateStation registers a new station
func (h *Handler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Code == "" || req.Name == "" || req.County == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"code":   "code is required",
			"name":   "name is required",
			"county": "county is required",
		}))
		return
	}

	now := time.Now()
	s := &Station{
		ID:        types.NewID(),
		Name:      req.Name,
		County:    req.County,
		Code:      req.Code,
		Location:  req.Location,
		Contact:   req.Contact,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.CreateStation(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s)
}

// UpdateStation updates a station
func (h *Handler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	user := auth.GetUser(r.Context())
	if user.Role == auth.RoleStationAdmin && user.StationID != id {
		writeError(w, errors.Forbidden("station belongs to another admin"))
		return
	}

	s, err := h.repo.GetStation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.County != nil {
		s.County = *req.County
	}
	if req.Location != nil {
		s.Location = *req.Location
	}
	if req.Contact != nil {
		s.Contact = *req.Contact
	}
	s.UpdatedAt = time.Now()

	if err := h.repo.UpdateStation(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// --- Officer handlers ---

// ListOfficers lists officers for a station
func (h *Handler) ListOfficers(w http.ResponseWriter, r *http.Request) {
	filter := ListOfficersFilter{
		Search: r.URL.Query().Get("search"),
	}

	if stationID := chi.URLParam(r, "stationID"); stationID != "" {
		id, err := types.ParseID(stationID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid station ID"))
			return
		}
		filter.StationID = &id
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := ParseOfficerStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Status = &status
	}

	officers, total, err := h.repo.ListOfficers(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  officers,
		"total": total,
	})
}

// GetOfficer gets an officer by ID
func (h *Handler) GetOfficer(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "officerID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid officer ID"))
		return
	}

	o, err := h.repo.GetOfficer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// CreateOfficer enrolls a new officer at a station
func (h *Handler) CreateOfficer(w http.ResponseWriter, r *http.Request) {
	var req CreateOfficerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	stationID := req.StationID
	if urlStationID := chi.URLParam(r, "stationID"); urlStationID != "" {
		id, err := types.ParseID(urlStationID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid station ID"))
			return
		}
		stationID = id
	}

	if stationID.IsZero() || req.UserID.IsZero() || req.BadgeNumber == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"station_id":   "station_id is required",
			"user_id":      "user_id is required",
			"badge_number": "badge_number is required",
		}))
		return
	}

	user := auth.GetUser(r.Context())
	if user.Role == auth.RoleStationAdmin && user.StationID != stationID {
		writeError(w, errors.Forbidden("cannot enroll officers at another station"))
		return
	}

	now := time.Now()
	o := &Officer{
		ID:          types.NewID(),
		UserID:      req.UserID,
		BadgeNumber: req.BadgeNumber,
		Rank:        req.Rank,
		StationID:   stationID,
		Department:  req.Department,
		Status:      OfficerStatusActive,
		JoinedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.CreateOfficer(r.Context(), o); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// UpdateOfficer updates an officer
func (h *Handler) UpdateOfficer(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "officerID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid officer ID"))
		return
	}

	o, err := h.repo.GetOfficer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateOfficerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Rank != nil {
		o.Rank = *req.Rank
	}
	if req.StationID != nil {
		o.StationID = *req.StationID
	}
	if req.Department != nil {
		o.Department = *req.Department
	}
	if req.Status != nil {
		status, err := ParseOfficerStatus(string(*req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		o.Status = status
	}
	o.UpdatedAt = time.Now()

	if err := h.repo.UpdateOfficer(r.Context(), o); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// --- Team handlers ---

// ListTeams lists teams for a station
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	filter := ListTeamsFilter{}

	if stationID := chi.URLParam(r, "stationID"); stationID != "" {
		id, err := types.ParseID(stationID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid station ID"))
			return
		}
		filter.StationID = &id
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := ParseTeamStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Status = &status
	}

	teams, total, err := h.repo.ListTeams(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  teams,
		"total": total,
	})
}

// GetTeam gets a team by ID
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid team ID"))
		return
	}

	t, err := h.repo.GetTeam(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// CreateTeam forms a new team at a station
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	stationID := req.StationID
	if urlStationID := chi.URLParam(r, "stationID"); urlStationID != "" {
		id, err := types.ParseID(urlStationID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid station ID"))
			return
		}
		stationID = id
	}

	if stationID.IsZero() || req.Name == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"station_id": "station_id is required",
			"name":       "name is required",
		}))
		return
	}

	user := auth.GetUser(r.Context())
	if user.Role == auth.RoleStationAdmin && user.StationID != stationID {
		writeError(w, errors.Forbidden("cannot form teams at another station"))
		return
	}

	now := time.Now()
	t := &Team{
		ID:            types.NewID(),
		Name:          req.Name,
		StationID:     stationID,
		LeadOfficerID: req.LeadOfficerID,
		Specialty:     req.Specialty,
		Status:        TeamStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.repo.CreateTeam(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// UpdateTeam updates a team
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid team ID"))
		return
	}

	t, err := h.repo.GetTeam(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.LeadOfficerID != nil {
		t.LeadOfficerID = req.LeadOfficerID
	}
	if req.Specialty != nil {
		t.Specialty = *req.Specialty
	}
	if req.Status != nil {
		status, err := ParseTeamStatus(string(*req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		t.Status = status
	}
	t.UpdatedAt = time.Now()

	if err := h.repo.UpdateTeam(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
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
