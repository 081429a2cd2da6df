package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/events"
	"github.com/crime-ease/platform/internal/shared/metrics"
	"github.com/crime-ease/platform/internal/shared/types"
)

// AssigneeRef identifies an assignee for audit messages and notifications.
// For teams, UserID is the lead officer's user.
type AssigneeRef struct {
	Name      string
	UserID    types.ID
	StationID types.ID
}

// Directory resolves officers, teams and stations from the identity module.
type Directory interface {
	OfficerRef(ctx context.Context, id types.ID) (*AssigneeRef, error)
	TeamRef(ctx context.Context, id types.ID) (*AssigneeRef, error)
	StationCode(ctx context.Context, id types.ID) (string, error)
}

// Handler provides HTTP handlers for the case module
type Handler struct {
	repo      domain.Repository
	directory Directory
	bus       events.EventBus
}

// NewHandler creates a new case handler
func NewHandler(repo domain.Repository, directory Directory, bus events.EventBus) *Handler {
	return &Handler{repo: repo, directory: directory, bus: bus}
}

// Routes registers the case routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCases)
	r.Post("/", h.CreateCase)

	// Citizens track their report by OB number
	r.Get("/ob/{obNumber}", h.GetCaseByOBNumber)

	r.Route("/{caseID}", func(r chi.Router) {
		r.Get("/", h.GetCase)

		r.With(auth.RequireRoles(auth.RoleOfficer, auth.RoleStationAdmin, auth.RoleNationalAdmin)).
			Post("/status", h.ChangeStatus)

		r.With(auth.RequireRoles(auth.RoleStationAdmin, auth.RoleNationalAdmin)).
			Post("/assign", h.AssignCase)

		r.Route("/updates", func(r chi.Router) {
			r.Get("/", h.GetUpdates)
			r.With(auth.RequireRoles(auth.RoleOfficer, auth.RoleStationAdmin, auth.RoleNationalAdmin)).
				Post("/", h.AddUpdate)
		})
	})

	return r
}

// --- Request types ---

type CreateCaseRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	IncidentType string  `json:"incident_type"`
	IncidentAt   string  `json:"incident_at,omitempty"`
	Location     string  `json:"location"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	StationID    string  `json:"station_id"`
	IsAnonymous  bool    `json:"is_anonymous"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type AssignCaseRequest struct {
	OfficerID string `json:"officer_id,omitempty"`
	TeamID    string `json:"team_id,omitempty"`
	Note      string `json:"note,omitempty"`
}

type AddUpdateRequest struct {
	Body       string `json:"body"`
	Type       string `json:"type,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

// --- Handlers ---

func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	stationID, err := types.ParseID(req.StationID)
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	var incidentAt time.Time
	if req.IncidentAt != "" {
		incidentAt, err = time.Parse(time.RFC3339, req.IncidentAt)
		if err != nil {
			writeError(w, errors.BadRequest("incident_at must be RFC3339"))
			return
		}
	}

	params := domain.NewCaseParams{
		Title:        req.Title,
		Description:  req.Description,
		IncidentType: req.IncidentType,
		IncidentAt:   incidentAt,
		Location:     types.NewLocation(req.Location, req.Lat, req.Lng),
		StationID:    stationID,
		IsAnonymous:  req.IsAnonymous,
	}
	if !req.IsAnonymous {
		reporterID := user.ID
		params.ReporterID = &reporterID
	}

	c, err := domain.NewCase(params)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Save(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	stationCode, err := h.directory.StationCode(r.Context(), c.StationID)
	if err != nil {
		stationCode = "unknown"
	}
	metrics.RecordCaseCreated(c.IncidentType, stationCode)

	h.publishEvents(r.Context(), c, user)
	writeJSON(w, http.StatusCreated, h.caseView(c, user))
}

func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	filter := domain.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Status = &status
	}

	if p := r.URL.Query().Get("priority"); p != "" {
		priority, err := domain.ParsePriority(p)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Priority = &priority
	}

	if t := r.URL.Query().Get("incident_type"); t != "" {
		filter.IncidentType = &t
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			filter.Offset = n
		}
	}

	// Scope the listing to what the caller may see
	switch user.Role {
	case auth.RoleCitizen:
		reporterID := user.ID
		filter.ReporterID = &reporterID
	case auth.RoleOfficer:
		if oid := r.URL.Query().Get("officer_id"); oid != "" {
			officerID, err := types.ParseID(oid)
			if err != nil {
				writeError(w, errors.BadRequest("invalid officer ID"))
				return
			}
			filter.AssignedOfficerID = &officerID
		} else if !user.StationID.IsZero() {
			stationID := user.StationID
			filter.StationID = &stationID
		}
	case auth.RoleStationAdmin:
		if user.StationID.IsZero() {
			writeError(w, errors.Forbidden("station admin has no station"))
			return
		}
		stationID := user.StationID
		filter.StationID = &stationID
	case auth.RoleNationalAdmin:
		if s := r.URL.Query().Get("station_id"); s != "" {
			stationID, err := types.ParseID(s)
			if err != nil {
				writeError(w, errors.BadRequest("invalid station ID"))
				return
			}
			filter.StationID = &stationID
		}
	default:
		writeError(w, errors.Forbidden("unknown role"))
		return
	}

	cases, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]any, 0, len(cases))
	for _, c := range cases {
		views = append(views, h.caseView(c, user))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  views,
		"total": len(views),
	})
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	user := auth.GetUser(r.Context())
	if !canViewCase(c, user) {
		writeError(w, errors.Forbidden("no access to this case"))
		return
	}

	writeJSON(w, http.StatusOK, h.caseView(c, user))
}

func (h *Handler) GetCaseByOBNumber(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByOBNumber(r.Context(), chi.URLParam(r, "obNumber"))
	if err != nil {
		writeError(w, err)
		return
	}

	user := auth.GetUser(r.Context())
	if !canViewCase(c, user) {
		writeError(w, errors.Forbidden("no access to this case"))
		return
	}

	writeJSON(w, http.StatusOK, h.caseView(c, user))
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	c, user := h.getCaseAndUser(w, r)
	if c == nil {
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	from := c.Status
	if err := c.TransitionTo(target, req.Note, user.ID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	if u := c.LastUpdate(); u != nil {
		if err := h.repo.AddUpdate(r.Context(), u); err != nil {
			writeError(w, err)
			return
		}
	}

	metrics.RecordCaseStatusChange(string(from), string(target))
	h.publishEvents(r.Context(), c, user)
	writeJSON(w, http.StatusOK, h.caseView(c, user))
}

func (h *Handler) AssignCase(w http.ResponseWriter, r *http.Request) {
	c, user := h.getCaseAndUser(w, r)
	if c == nil {
		return
	}

	// Station admins may only assign within their own station
	if user.Role == auth.RoleStationAdmin && user.StationID != c.StationID {
		writeError(w, errors.Forbidden("case belongs to another station"))
		return
	}

	var req AssignCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if (req.OfficerID == "") == (req.TeamID == "") {
		writeError(w, errors.BadRequest("exactly one of officer_id or team_id is required"))
		return
	}

	var assignment domain.Assignment
	var ref *AssigneeRef

	if req.OfficerID != "" {
		officerID, err := types.ParseID(req.OfficerID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid officer ID"))
			return
		}
		ref, err = h.directory.OfficerRef(r.Context(), officerID)
		if err != nil {
			writeError(w, err)
			return
		}
		assignment = domain.OfficerAssignment(officerID)
	} else {
		teamID, err := types.ParseID(req.TeamID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid team ID"))
			return
		}
		ref, err = h.directory.TeamRef(r.Context(), teamID)
		if err != nil {
			writeError(w, err)
			return
		}
		assignment = domain.TeamAssignment(teamID)
	}

	if ref.StationID != c.StationID {
		writeError(w, errors.BadRequest("assignee belongs to another station"))
		return
	}

	if err := c.Assign(assignment, ref.Name, ref.UserID, req.Note, user.ID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	if u := c.LastUpdate(); u != nil {
		if err := h.repo.AddUpdate(r.Context(), u); err != nil {
			writeError(w, err)
			return
		}
	}

	metrics.RecordCaseAssigned(string(assignment.Kind))
	h.publishEvents(r.Context(), c, user)
	writeJSON(w, http.StatusOK, h.caseView(c, user))
}

func (h *Handler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	user := auth.GetUser(r.Context())
	if !canViewCase(c, user) {
		writeError(w, errors.Forbidden("no access to this case"))
		return
	}

	includeInternal := user != nil && user.Role != auth.RoleCitizen
	updates, err := h.repo.GetUpdates(r.Context(), id, includeInternal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  updates,
		"total": len(updates),
	})
}

func (h *Handler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	c, user := h.getCaseAndUser(w, r)
	if c == nil {
		return
	}

	var req AddUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	updateType := domain.UpdateTypeNote
	if req.Type != "" {
		var err error
		updateType, err = domain.ParseUpdateType(req.Type)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	visibility := domain.VisibilityPublic
	if req.Visibility != "" {
		var err error
		visibility, err = domain.ParseVisibility(req.Visibility)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if err := c.AddUpdate(req.Body, updateType, visibility, user.ID); err != nil {
		writeError(w, err)
		return
	}

	// Persist the bumped updated_at before the audit row
	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	update := c.LastUpdate()
	if err := h.repo.AddUpdate(r.Context(), update); err != nil {
		writeError(w, err)
		return
	}

	h.publishEvents(r.Context(), c, user)
	writeJSON(w, http.StatusCreated, update)
}

// --- Helpers ---

// canViewCase enforces read access. Citizens see only cases they reported;
// everyone in a police role sees everything their listing scope returns.
func canViewCase(c *domain.Case, user *auth.User) bool {
	if user == nil {
		return false
	}
	if user.Role != auth.RoleCitizen {
		return true
	}
	return c.ReporterID != nil && *c.ReporterID == user.ID
}

// caseView hides internal handling details from citizens.
func (h *Handler) caseView(c *domain.Case, user *auth.User) any {
	if user != nil && user.Role != auth.RoleCitizen {
		return c
	}

	return map[string]any{
		"id":            c.ID,
		"ob_number":     c.OBNumber,
		"title":         c.Title,
		"description":   c.Description,
		"incident_type": c.IncidentType,
		"incident_at":   c.IncidentAt,
		"location":      c.Location,
		"station_id":    c.StationID,
		"status":        c.Status,
		"is_anonymous":  c.IsAnonymous,
		"created_at":    c.CreatedAt,
		"updated_at":    c.UpdatedAt,
	}
}

func (h *Handler) getCaseAndUser(w http.ResponseWriter, r *http.Request) (*domain.Case, *auth.User) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return nil, nil
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, nil
	}

	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return nil, nil
	}

	return c, user
}

func (h *Handler) publishEvents(ctx context.Context, c *domain.Case, user *auth.User) {
	if h.bus == nil {
		return
	}

	for _, e := range c.GetDomainEvents() {
		event := events.NewEvent(e.Type, "case", e.Data).WithActor(user.ID, user.Role)
		h.bus.Publish(ctx, event)
	}
}

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
