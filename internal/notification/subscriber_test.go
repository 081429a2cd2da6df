package notification

import (
	"context"
	"testing"

	"github.com/crime-ease/platform/internal/shared/events"
	"github.com/crime-ease/platform/internal/shared/types"
)

type fakeStore struct {
	saved []*Notification
}

func (f *fakeStore) Save(ctx context.Context, n *Notification) error {
	f.saved = append(f.saved, n)
	return nil
}

func TestHandleCaseAssigned(t *testing.T) {
	store := &fakeStore{}
	sub := NewSubscriber(store, nil)

	assigneeUser := types.NewID()
	caseID := types.NewID()

	event := events.NewEvent("case.assigned", "case", map[string]any{
		"case_id":          caseID.String(),
		"ob_number":        "OB-2026-0042",
		"assignee_kind":    "officer",
		"assignee_user_id": assigneeUser.String(),
		"assignee_name":    "Cpl. Achieng",
		"promoted":         true,
	})

	if err := sub.HandleCaseAssigned(context.Background(), event); err != nil {
		t.Fatalf("HandleCaseAssigned: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.saved))
	}
	n := store.saved[0]
	if n.UserID != assigneeUser {
		t.Errorf("notification went to %s, want %s", n.UserID, assigneeUser)
	}
	if n.Type != TypeCaseAssigned {
		t.Errorf("expected case_assigned type, got %s", n.Type)
	}
	if n.CaseID == nil || *n.CaseID != caseID {
		t.Errorf("expected case_id %s, got %v", caseID, n.CaseID)
	}
	if n.Read {
		t.Error("new notification should be unread")
	}
}

func TestHandleCaseAssignedNoLeadOfficer(t *testing.T) {
	store := &fakeStore{}
	sub := NewSubscriber(store, nil)

	// Team assignment where the team has no lead officer
	event := events.NewEvent("case.assigned", "case", map[string]any{
		"case_id":          types.NewID().String(),
		"ob_number":        "OB-2026-0099",
		"assignee_kind":    "team",
		"assignee_user_id": "",
	})

	if err := sub.HandleCaseAssigned(context.Background(), event); err != nil {
		t.Fatalf("HandleCaseAssigned: %v", err)
	}
	if len(store.saved) != 0 {
		t.Errorf("expected no notification, got %d", len(store.saved))
	}
}

func TestHandleCaseUpdateAdded(t *testing.T) {
	reporter := types.NewID()

	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{
			"public update notifies reporter",
			map[string]any{
				"visibility":   "public",
				"is_anonymous": false,
				"reporter_id":  reporter.String(),
			},
			1,
		},
		{
			"internal update stays internal",
			map[string]any{
				"visibility":   "internal",
				"is_anonymous": false,
				"reporter_id":  reporter.String(),
			},
			0,
		},
		{
			"anonymous report has nobody to notify",
			map[string]any{
				"visibility":   "public",
				"is_anonymous": true,
			},
			0,
		},
		{
			"missing reporter",
			map[string]any{
				"visibility":   "public",
				"is_anonymous": false,
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			sub := NewSubscriber(store, nil)

			tt.data["case_id"] = types.NewID().String()
			tt.data["ob_number"] = "OB-2026-1234"
			event := events.NewEvent("case.update_added", "case", tt.data)

			if err := sub.HandleCaseUpdateAdded(context.Background(), event); err != nil {
				t.Fatalf("HandleCaseUpdateAdded: %v", err)
			}
			if len(store.saved) != tt.want {
				t.Fatalf("expected %d notifications, got %d", tt.want, len(store.saved))
			}
			if tt.want == 1 {
				if store.saved[0].UserID != reporter {
					t.Errorf("notification went to %s, want %s", store.saved[0].UserID, reporter)
				}
				if store.saved[0].Type != TypeCaseUpdate {
					t.Errorf("expected case_update type, got %s", store.saved[0].Type)
				}
			}
		})
	}
}

func TestRegisterRoutesEventsThroughBus(t *testing.T) {
	store := &fakeStore{}
	sub := NewSubscriber(store, nil)
	bus := events.NewMemoryBus(nil)
	ctx := context.Background()

	if err := sub.Register(ctx, bus); err != nil {
		t.Fatalf("Register: %v", err)
	}

	assignee := types.NewID()
	bus.Publish(ctx, events.NewEvent("case.assigned", "case", map[string]any{
		"case_id":          types.NewID().String(),
		"ob_number":        "OB-2026-0007",
		"assignee_user_id": assignee.String(),
	}))

	// Unrelated events are not delivered to the notification consumer
	bus.Publish(ctx, events.NewEvent("case.status_changed", "case", map[string]any{}))

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 notification from the bus, got %d", len(store.saved))
	}
	if store.saved[0].UserID != assignee {
		t.Errorf("notification went to %s, want %s", store.saved[0].UserID, assignee)
	}
}
