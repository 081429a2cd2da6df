package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/events"
	"github.com/crime-ease/platform/internal/shared/types"
)

type fakeRepo struct {
	domain.Repository

	byID map[types.ID]*domain.Case

	updateCalls     int
	updatedAtOnSave time.Time
	addedUpdates    []*domain.CaseUpdate
}

func (f *fakeRepo) FindByID(ctx context.Context, id types.ID) (*domain.Case, error) {
	return f.byID[id], nil
}

func (f *fakeRepo) Update(ctx context.Context, c *domain.Case) error {
	f.updateCalls++
	f.updatedAtOnSave = c.UpdatedAt
	return nil
}

func (f *fakeRepo) AddUpdate(ctx context.Context, u *domain.CaseUpdate) error {
	f.addedUpdates = append(f.addedUpdates, u)
	return nil
}

func officerRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	user := &auth.User{ID: types.NewID(), Role: auth.RoleOfficer}
	return req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, user))
}

func TestAddUpdatePersistsCaseTimestamp(t *testing.T) {
	c, err := domain.NewCase(domain.NewCaseParams{
		Title:        "Stolen bicycle",
		IncidentType: "theft",
		StationID:    types.NewID(),
		IsAnonymous:  true,
	})
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	c.GetDomainEvents()
	before := c.UpdatedAt

	repo := &fakeRepo{byID: map[types.ID]*domain.Case{c.ID: c}}
	h := NewHandler(repo, nil, events.NewMemoryBus(nil))

	req := officerRequest(http.MethodPost, "/"+c.ID.String()+"/updates",
		`{"body":"Interviewed the shopkeeper","visibility":"internal"}`)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.addedUpdates) != 1 {
		t.Fatalf("expected 1 audit row insert, got %d", len(repo.addedUpdates))
	}
	if repo.updateCalls != 1 {
		t.Fatalf("adding an update must persist the case's updated_at, got %d Update calls", repo.updateCalls)
	}
	if !repo.updatedAtOnSave.After(before) {
		t.Error("persisted updated_at was not bumped")
	}
	if repo.addedUpdates[0].Body != "Interviewed the shopkeeper" {
		t.Errorf("unexpected audit row: %+v", repo.addedUpdates[0])
	}
}

func TestAddUpdateRejectsEmptyBody(t *testing.T) {
	c, err := domain.NewCase(domain.NewCaseParams{
		Title:        "Noise complaint",
		IncidentType: "disturbance",
		StationID:    types.NewID(),
		IsAnonymous:  true,
	})
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}

	repo := &fakeRepo{byID: map[types.ID]*domain.Case{c.ID: c}}
	h := NewHandler(repo, nil, events.NewMemoryBus(nil))

	req := officerRequest(http.MethodPost, "/"+c.ID.String()+"/updates", `{"body":""}`)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if repo.updateCalls != 0 || len(repo.addedUpdates) != 0 {
		t.Error("a rejected update must not write anything")
	}
}
