package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

func newTestCase(t *testing.T) *Case {
	t.Helper()

	reporter := types.NewID()
	c, err := NewCase(NewCaseParams{
		Title:        "Stolen bicycle",
		Description:  "Bicycle taken from outside the market",
		IncidentType: "theft",
		IncidentAt:   time.Now().Add(-2 * time.Hour),
		StationID:    types.NewID(),
		ReporterID:   &reporter,
	})
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	return c
}

func TestNewCase(t *testing.T) {
	c := newTestCase(t)

	if c.Status != CaseStatusOpen {
		t.Errorf("expected status open, got %s", c.Status)
	}
	if c.Priority != PriorityMedium {
		t.Errorf("expected medium priority, got %s", c.Priority)
	}
	if !c.Assignment.IsUnassigned() {
		t.Error("new case should be unassigned")
	}
	if c.ClosedAt != nil {
		t.Error("new case should have no closed_at")
	}
	if len(c.Updates) != 1 {
		t.Fatalf("expected 1 initial update, got %d", len(c.Updates))
	}
	if c.Updates[0].Type != UpdateTypeStatusChange || c.Updates[0].Visibility != VisibilityPublic {
		t.Errorf("unexpected initial update: %+v", c.Updates[0])
	}

	events := c.GetDomainEvents()
	if len(events) != 1 || events[0].Type != "case.created" {
		t.Fatalf("expected single case.created event, got %+v", events)
	}
	if len(c.GetDomainEvents()) != 0 {
		t.Error("GetDomainEvents should drain pending events")
	}
}

func TestNewCaseValidation(t *testing.T) {
	tests := []struct {
		name   string
		params NewCaseParams
	}{
		{"missing title", NewCaseParams{IncidentType: "theft", StationID: types.NewID()}},
		{"missing incident type", NewCaseParams{Title: "x", StationID: types.NewID()}},
		{"missing station", NewCaseParams{Title: "x", IncidentType: "theft"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCase(tt.params); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOBNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^OB-\d{4}-\d{4}$`)
	now := time.Now()

	for i := 0; i < 50; i++ {
		ob := GenerateOBNumber(now)
		if !pattern.MatchString(ob) {
			t.Fatalf("malformed OB number %q", ob)
		}
	}

	c := newTestCase(t)
	old := c.OBNumber
	c.RegenerateOBNumber()
	if !pattern.MatchString(c.OBNumber) {
		t.Errorf("malformed regenerated OB number %q", c.OBNumber)
	}
	_ = old // collisions are possible, equality is not asserted
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    CaseStatus
		to      CaseStatus
		allowed bool
	}{
		{CaseStatusOpen, CaseStatusInProgress, true},
		{CaseStatusOpen, CaseStatusClosed, true},
		{CaseStatusOpen, CaseStatusArchived, false},
		{CaseStatusInProgress, CaseStatusClosed, true},
		{CaseStatusInProgress, CaseStatusOpen, false},
		{CaseStatusInProgress, CaseStatusArchived, false},
		{CaseStatusClosed, CaseStatusInProgress, true},
		{CaseStatusClosed, CaseStatusArchived, true},
		{CaseStatusClosed, CaseStatusOpen, false},
		{CaseStatusArchived, CaseStatusOpen, false},
		{CaseStatusArchived, CaseStatusInProgress, false},
		{CaseStatusArchived, CaseStatusClosed, false},
		{CaseStatusOpen, CaseStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTransitionTo(t *testing.T) {
	c := newTestCase(t)
	actor := types.NewID()
	c.GetDomainEvents()

	if err := c.TransitionTo(CaseStatusInProgress, "investigation started", actor); err != nil {
		t.Fatalf("open -> in-progress: %v", err)
	}
	if c.Status != CaseStatusInProgress {
		t.Errorf("expected in-progress, got %s", c.Status)
	}

	events := c.GetDomainEvents()
	if len(events) != 1 || events[0].Type != "case.status_changed" {
		t.Fatalf("expected case.status_changed, got %+v", events)
	}
	if events[0].Data["from"] != "open" || events[0].Data["to"] != "in-progress" {
		t.Errorf("unexpected transition payload: %+v", events[0].Data)
	}

	last := c.LastUpdate()
	if last == nil || last.Body != "investigation started" {
		t.Errorf("expected note in audit trail, got %+v", last)
	}
}

func TestTransitionToIllegalEdge(t *testing.T) {
	c := newTestCase(t)

	err := c.TransitionTo(CaseStatusArchived, "", types.NewID())
	if err == nil {
		t.Fatal("expected error archiving an open case")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION, got %v", err)
	}
	if c.Status != CaseStatusOpen {
		t.Errorf("status must not change on a rejected transition, got %s", c.Status)
	}
}

func TestClosedAtStamping(t *testing.T) {
	c := newTestCase(t)
	actor := types.NewID()

	if err := c.TransitionTo(CaseStatusClosed, "", actor); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.ClosedAt == nil {
		t.Fatal("closed_at should be stamped on close")
	}
	closedAt := *c.ClosedAt

	// Reopening keeps the original closed_at as a record of the first closure
	if err := c.TransitionTo(CaseStatusInProgress, "new evidence", actor); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c.ClosedAt == nil || !c.ClosedAt.Equal(closedAt) {
		t.Error("closed_at should survive a reopen")
	}
}

func TestAssign(t *testing.T) {
	c := newTestCase(t)
	c.GetDomainEvents()

	officerID := types.NewID()
	officerUserID := types.NewID()
	admin := types.NewID()

	err := c.Assign(OfficerAssignment(officerID), "Cpl. Achieng", officerUserID, "", admin)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if c.Assignment.OfficerID() == nil || *c.Assignment.OfficerID() != officerID {
		t.Errorf("expected officer assignment, got %+v", c.Assignment)
	}
	if c.Assignment.TeamID() != nil {
		t.Error("officer assignment must not also carry a team")
	}
	if c.Status != CaseStatusInProgress {
		t.Errorf("assigning an open case should promote it to in-progress, got %s", c.Status)
	}

	events := c.GetDomainEvents()
	if len(events) != 1 || events[0].Type != "case.assigned" {
		t.Fatalf("expected case.assigned, got %+v", events)
	}
	if events[0].Data["promoted"] != true {
		t.Error("expected promoted=true in assignment event")
	}
	if events[0].Data["assignee_user_id"] != officerUserID.String() {
		t.Errorf("unexpected assignee_user_id: %v", events[0].Data["assignee_user_id"])
	}

	last := c.LastUpdate()
	if last == nil || last.Type != UpdateTypeAssignmentChange || last.Visibility != VisibilityInternal {
		t.Errorf("expected internal assignment_change entry, got %+v", last)
	}
}

func TestAssignDoesNotPromoteClosedCase(t *testing.T) {
	c := newTestCase(t)
	actor := types.NewID()

	if err := c.TransitionTo(CaseStatusClosed, "", actor); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Assign(TeamAssignment(types.NewID()), "Night Patrol", types.ID(""), "", actor); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if c.Status != CaseStatusClosed {
		t.Errorf("assignment must not change a closed case's status, got %s", c.Status)
	}
	if c.Assignment.TeamID() == nil {
		t.Error("expected team assignment")
	}
}

func TestAssignRequiresAssignee(t *testing.T) {
	c := newTestCase(t)

	if err := c.Assign(Assignment{}, "", types.ID(""), "", types.NewID()); err == nil {
		t.Error("expected error for empty assignment")
	}
}

func TestReassignReplacesAssignee(t *testing.T) {
	c := newTestCase(t)
	actor := types.NewID()

	if err := c.Assign(OfficerAssignment(types.NewID()), "Cpl. Achieng", types.NewID(), "", actor); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	teamID := types.NewID()
	if err := c.Assign(TeamAssignment(teamID), "Robbery Squad", types.NewID(), "handover", actor); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	if c.Assignment.OfficerID() != nil {
		t.Error("reassigning to a team must clear the officer")
	}
	if got := c.Assignment.TeamID(); got == nil || *got != teamID {
		t.Errorf("expected team %s, got %+v", teamID, c.Assignment)
	}
}

func TestAddUpdate(t *testing.T) {
	c := newTestCase(t)
	c.GetDomainEvents()
	officer := types.NewID()

	if err := c.AddUpdate("", UpdateTypeNote, VisibilityPublic, officer); err == nil {
		t.Error("expected error for empty update body")
	}

	if err := c.AddUpdate("Interviewed the shopkeeper", UpdateTypeNote, VisibilityInternal, officer); err != nil {
		t.Fatalf("AddUpdate: %v", err)
	}

	last := c.LastUpdate()
	if last == nil || last.Body != "Interviewed the shopkeeper" {
		t.Fatalf("unexpected last update: %+v", last)
	}
	if last.Visibility != VisibilityInternal || last.Type != UpdateTypeNote {
		t.Errorf("unexpected update attributes: %+v", last)
	}

	events := c.GetDomainEvents()
	if len(events) != 1 || events[0].Type != "case.update_added" {
		t.Fatalf("expected case.update_added, got %+v", events)
	}
	if events[0].Data["visibility"] != "internal" {
		t.Errorf("unexpected visibility in event: %v", events[0].Data["visibility"])
	}
	if events[0].Data["reporter_id"] != c.ReporterID.String() {
		t.Errorf("expected reporter_id in event, got %v", events[0].Data["reporter_id"])
	}
}

func TestAnonymousCaseOmitsReporterFromEvents(t *testing.T) {
	c, err := NewCase(NewCaseParams{
		Title:        "Noise complaint",
		IncidentType: "disturbance",
		StationID:    types.NewID(),
		IsAnonymous:  true,
	})
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	c.GetDomainEvents()

	if err := c.AddUpdate("Still ongoing", UpdateTypeNote, VisibilityPublic, types.ID("")); err != nil {
		t.Fatalf("AddUpdate: %v", err)
	}

	events := c.GetDomainEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, present := events[0].Data["reporter_id"]; present {
		t.Error("anonymous case must not carry reporter_id in events")
	}
	if events[0].Data["is_anonymous"] != true {
		t.Error("expected is_anonymous=true in event")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseStatus("in-progress"); err != nil {
		t.Errorf("ParseStatus: %v", err)
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := ParsePriority("high"); err != nil {
		t.Errorf("ParsePriority: %v", err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
	if _, err := ParseUpdateType("evidence_added"); err != nil {
		t.Errorf("ParseUpdateType: %v", err)
	}
	if _, err := ParseVisibility("internal"); err != nil {
		t.Errorf("ParseVisibility: %v", err)
	}
	if _, err := ParseVisibility("secret"); err == nil {
		t.Error("expected error for unknown visibility")
	}
}
