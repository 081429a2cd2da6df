package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// CaseStatus defines the status of a case
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in-progress"
	CaseStatusClosed     CaseStatus = "closed"
	CaseStatusArchived   CaseStatus = "archived"
)

// ParseStatus validates a raw status string
func ParseStatus(s string) (CaseStatus, error) {
	switch CaseStatus(s) {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed, CaseStatusArchived:
		return CaseStatus(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid status: %q", s))
}

// legalTransitions is the permitted edge set of the case state machine.
// Archived is terminal; a closed case may be reopened into in-progress.
var legalTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusOpen:       {CaseStatusInProgress, CaseStatusClosed},
	CaseStatusInProgress: {CaseStatusClosed},
	CaseStatusClosed:     {CaseStatusInProgress, CaseStatusArchived},
	CaseStatusArchived:   {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Priority defines case priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a raw priority string
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid priority: %q", s))
}

// Case is the aggregate root for case management
type Case struct {
	ID           types.ID       `json:"id"`
	OBNumber     string         `json:"ob_number"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	IncidentType string         `json:"incident_type"`
	IncidentAt   time.Time      `json:"incident_at"`
	Location     types.Location `json:"location"`
	StationID    types.ID       `json:"station_id"`
	Status       CaseStatus     `json:"status"`
	Priority     Priority       `json:"priority"`

	// Reporting
	ReporterID  *types.ID `json:"reporter_id,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`

	// Handling
	Assignment Assignment `json:"assignment"`

	// Audit trail (loaded on demand; appended by mutations)
	Updates []CaseUpdate `json:"updates,omitempty"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Domain events (not persisted, used for publishing)
	domainEvents []DomainEvent
}

// NewCaseParams carries the reporter's input for case creation.
type NewCaseParams struct {
	Title        string
	Description  string
	IncidentType string
	IncidentAt   time.Time
	Location     types.Location
	StationID    types.ID
	ReporterID   *types.ID
	IsAnonymous  bool
}

// NewCase creates a new case with validation. New cases start open with
// medium priority and an initial status_change entry in the audit trail.
func NewCase(p NewCaseParams) (*Case, error) {
	if p.Title == "" {
		return nil, errors.BadRequest("title is required")
	}
	if p.IncidentType == "" {
		return nil, errors.BadRequest("incident type is required")
	}
	if p.StationID.IsZero() {
		return nil, errors.BadRequest("station is required")
	}
	if p.IncidentAt.IsZero() {
		p.IncidentAt = time.Now()
	}

	now := time.Now()
	c := &Case{
		ID:           types.NewID(),
		OBNumber:     GenerateOBNumber(now),
		Title:        p.Title,
		Description:  p.Description,
		IncidentType: p.IncidentType,
		IncidentAt:   p.IncidentAt,
		Location:     p.Location,
		StationID:    p.StationID,
		Status:       CaseStatusOpen,
		Priority:     PriorityMedium,
		ReporterID:   p.ReporterID,
		IsAnonymous:  p.IsAnonymous,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var actor types.ID
	if p.ReporterID != nil {
		actor = *p.ReporterID
	}
	c.appendUpdate("Case opened and pending review", UpdateTypeStatusChange, VisibilityPublic, actor)

	c.addEvent("case.created", map[string]any{
		"case_id":    c.ID.String(),
		"ob_number":  c.OBNumber,
		"station_id": c.StationID.String(),
	})

	return c, nil
}

// TransitionTo moves the case along a legal status edge. Entering closed
// stamps closed_at; every other edge leaves closed_at untouched.
func (c *Case) TransitionTo(target CaseStatus, note string, actorID types.ID) error {
	if !c.Status.CanTransitionTo(target) {
		return errors.InvalidTransition(string(c.Status), string(target))
	}

	from := c.Status
	now := time.Now()
	c.Status = target
	c.UpdatedAt = now
	if target == CaseStatusClosed {
		c.ClosedAt = &now
	}

	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", from, target)
	}
	c.appendUpdate(note, UpdateTypeStatusChange, VisibilityPublic, actorID)

	c.addEvent("case.status_changed", map[string]any{
		"case_id":   c.ID.String(),
		"ob_number": c.OBNumber,
		"from":      string(from),
		"to":        string(target),
		"note":      note,
	})

	return nil
}

// Assign binds the case to an officer or team. The tagged Assignment value
// makes officer/team exclusivity structural. Assigning an open case
// auto-promotes it to in-progress; any other status is left as is.
// assigneeName and assigneeUserID are resolved by the caller for the audit
// message and the notification fan-out.
func (c *Case) Assign(a Assignment, assigneeName string, assigneeUserID types.ID, note string, actorID types.ID) error {
	if a.IsUnassigned() {
		return errors.BadRequest("assignee is required")
	}

	c.Assignment = a
	c.UpdatedAt = time.Now()

	promoted := false
	if c.Status == CaseStatusOpen {
		c.Status = CaseStatusInProgress
		promoted = true
	}

	msg := fmt.Sprintf("Case assigned to %s %s", a.Kind, assigneeName)
	if note != "" {
		msg = msg + ": " + note
	}
	c.appendUpdate(msg, UpdateTypeAssignmentChange, VisibilityInternal, actorID)

	c.addEvent("case.assigned", map[string]any{
		"case_id":          c.ID.String(),
		"ob_number":        c.OBNumber,
		"assignee_kind":    string(a.Kind),
		"assignee_id":      a.AssigneeID.String(),
		"assignee_user_id": assigneeUserID.String(),
		"assignee_name":    assigneeName,
		"promoted":         promoted,
	})

	return nil
}

// AddUpdate appends a free-text entry to the audit trail.
func (c *Case) AddUpdate(body string, updateType UpdateType, visibility Visibility, actorID types.ID) error {
	if body == "" {
		return errors.BadRequest("update text is required")
	}

	c.appendUpdate(body, updateType, visibility, actorID)
	c.UpdatedAt = time.Now()

	data := map[string]any{
		"case_id":      c.ID.String(),
		"ob_number":    c.OBNumber,
		"update_type":  string(updateType),
		"visibility":   string(visibility),
		"is_anonymous": c.IsAnonymous,
	}
	if c.ReporterID != nil {
		data["reporter_id"] = c.ReporterID.String()
	}
	c.addEvent("case.update_added", data)

	return nil
}

// LastUpdate returns the most recently appended audit entry.
func (c *Case) LastUpdate() *CaseUpdate {
	if len(c.Updates) == 0 {
		return nil
	}
	return &c.Updates[len(c.Updates)-1]
}

// GetDomainEvents returns and clears pending domain events
func (c *Case) GetDomainEvents() []DomainEvent {
	events := c.domainEvents
	c.domainEvents = nil
	return events
}

func (c *Case) appendUpdate(body string, updateType UpdateType, visibility Visibility, actorID types.ID) {
	c.Updates = append(c.Updates, CaseUpdate{
		ID:         types.NewID(),
		CaseID:     c.ID,
		Body:       body,
		Type:       updateType,
		Visibility: visibility,
		CreatedBy:  actorID,
		CreatedAt:  time.Now(),
	})
}

func (c *Case) addEvent(eventType string, data map[string]any) {
	c.domainEvents = append(c.domainEvents, DomainEvent{Type: eventType, Data: data})
}

// DomainEvent is a pending event raised by an aggregate mutation.
type DomainEvent struct {
	Type string
	Data map[string]any
}

// GenerateOBNumber produces an occurrence-book number in the form
// OB-<year>-<4 digits>. The suffix is random; uniqueness is enforced by the
// store's unique index, with callers retrying on collision.
func GenerateOBNumber(now time.Time) string {
	return fmt.Sprintf("OB-%d-%04d", now.Year(), rand.IntN(10000))
}

// RegenerateOBNumber replaces the OB number after a collision.
func (c *Case) RegenerateOBNumber() {
	c.OBNumber = GenerateOBNumber(time.Now())
}
