package domain

import (
	"fmt"
	"time"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// AssigneeKind tags an Assignment as officer or team
type AssigneeKind string

const (
	AssigneeOfficer AssigneeKind = "officer"
	AssigneeTeam    AssigneeKind = "team"
)

// Assignment binds a case to at most one assignee. The zero value means
// unassigned; a non-zero Kind always has exactly one AssigneeID, so a case
// can never point at an officer and a team at once.
type Assignment struct {
	Kind       AssigneeKind `json:"kind,omitempty"`
	AssigneeID types.ID     `json:"assignee_id,omitempty"`
}

// OfficerAssignment creates an assignment to a single officer
func OfficerAssignment(officerID types.ID) Assignment {
	return Assignment{Kind: AssigneeOfficer, AssigneeID: officerID}
}

// TeamAssignment creates an assignment to a team
func TeamAssignment(teamID types.ID) Assignment {
	return Assignment{Kind: AssigneeTeam, AssigneeID: teamID}
}

// IsUnassigned reports whether the case has no assignee.
func (a Assignment) IsUnassigned() bool {
	return a.Kind == "" || a.AssigneeID.IsZero()
}

// OfficerID returns the assigned officer id, if the assignee is an officer.
func (a Assignment) OfficerID() *types.ID {
	if a.Kind == AssigneeOfficer && !a.AssigneeID.IsZero() {
		id := a.AssigneeID
		return &id
	}
	return nil
}

// TeamID returns the assigned team id, if the assignee is a team.
func (a Assignment) TeamID() *types.ID {
	if a.Kind == AssigneeTeam && !a.AssigneeID.IsZero() {
		id := a.AssigneeID
		return &id
	}
	return nil
}

// UpdateType classifies audit-trail entries
type UpdateType string

const (
	UpdateTypeStatusChange     UpdateType = "status_change"
	UpdateTypeNote             UpdateType = "note"
	UpdateTypeEvidenceAdded    UpdateType = "evidence_added"
	UpdateTypeAssignmentChange UpdateType = "assignment_change"
)

// ParseUpdateType validates a raw update type string
func ParseUpdateType(s string) (UpdateType, error) {
	switch UpdateType(s) {
	case UpdateTypeStatusChange, UpdateTypeNote, UpdateTypeEvidenceAdded, UpdateTypeAssignmentChange:
		return UpdateType(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid update type: %q", s))
}

// Visibility controls who may read an audit-trail entry. Internal entries
// are never shown to the reporter.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityInternal Visibility = "internal"
)

// ParseVisibility validates a raw visibility string
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityInternal:
		return Visibility(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid visibility: %q", s))
}

// CaseUpdate is an append-only entry in a case's audit trail
type CaseUpdate struct {
	ID         types.ID   `json:"id"`
	CaseID     types.ID   `json:"case_id"`
	Body       string     `json:"body"`
	Type       UpdateType `json:"type"`
	Visibility Visibility `json:"visibility"`
	CreatedBy  types.ID   `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
