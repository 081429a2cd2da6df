package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/crime-ease/platform/internal/shared/types"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		eventType string
		pattern   string
		want      bool
	}{
		{"case.created", "case.created", true},
		{"case.created", "case.*", true},
		{"case.status_changed", "case.*", true},
		{"case.created", "*", true},
		{"case.created", ">", true},
		{"case.created", "user.*", false},
		{"case.created", "case.assigned", false},
		{"case.created", "case", false},
		{"case", "case.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.eventType+"_vs_"+tt.pattern, func(t *testing.T) {
			if got := matchesPattern(tt.eventType, tt.pattern); got != tt.want {
				t.Errorf("matchesPattern(%q, %q) = %v, want %v", tt.eventType, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMemoryBusDelivery(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()

	var got []string
	bus.Subscribe(ctx, "case.*", "recorder", func(ctx context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	bus.Publish(ctx, NewEvent("case.created", "case", nil))
	bus.Publish(ctx, NewEvent("case.assigned", "case", nil))
	bus.Publish(ctx, NewEvent("user.created", "identity", nil))

	if len(got) != 2 || got[0] != "case.created" || got[1] != "case.assigned" {
		t.Errorf("unexpected delivery: %v", got)
	}
}

func TestMemoryBusHandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()

	delivered := 0
	bus.Subscribe(ctx, "case.*", "failing", func(ctx context.Context, e Event) error {
		return fmt.Errorf("store down")
	})
	bus.Subscribe(ctx, "case.*", "healthy", func(ctx context.Context, e Event) error {
		delivered++
		return nil
	})

	if err := bus.Publish(ctx, NewEvent("case.created", "case", nil)); err != nil {
		t.Errorf("handler error leaked to publisher: %v", err)
	}
	if delivered != 1 {
		t.Errorf("a failing handler must not block other subscribers, delivered=%d", delivered)
	}
}

func TestEventAccessors(t *testing.T) {
	actor := types.NewID()
	e := NewEvent("case.assigned", "case", map[string]any{
		"ob_number": "OB-2026-0042",
		"promoted":  true,
		"count":     3,
	}).WithActor(actor, "station_admin")

	if e.String("ob_number") != "OB-2026-0042" {
		t.Errorf("String(ob_number) = %q", e.String("ob_number"))
	}
	if e.String("missing") != "" {
		t.Error("String on a missing key should be empty")
	}
	if e.String("promoted") != "" {
		t.Error("String on a non-string value should be empty")
	}
	if !e.Bool("promoted") {
		t.Error("Bool(promoted) should be true")
	}
	if e.Bool("count") {
		t.Error("Bool on a non-bool value should be false")
	}
	if e.ActorID != actor || e.ActorType != "station_admin" {
		t.Errorf("unexpected actor: %s/%s", e.ActorID, e.ActorType)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Error("NewEvent should stamp id and timestamp")
	}
}
