package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crime-ease/platform/internal/shared/events"
	"github.com/crime-ease/platform/internal/shared/metrics"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Store persists notifications created by the subscriber
type Store interface {
	Save(ctx context.Context, n *Notification) error
}

// Subscriber turns case events into in-app notifications. It runs off the
// event bus so a notification failure can never fail the case mutation
// that triggered it.
type Subscriber struct {
	store  Store
	logger *zap.Logger
}

// NewSubscriber creates a notification subscriber
func NewSubscriber(store Store, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{store: store, logger: logger}
}

// Register subscribes to the case events that produce notifications
func (s *Subscriber) Register(ctx context.Context, bus events.EventBus) error {
	if err := bus.Subscribe(ctx, "case.assigned", "notifications", s.HandleCaseAssigned); err != nil {
		return err
	}
	return bus.Subscribe(ctx, "case.update_added", "notifications", s.HandleCaseUpdateAdded)
}

// HandleCaseAssigned notifies the assigned officer's user account. For
// team assignments the team lead is notified.
func (s *Subscriber) HandleCaseAssigned(ctx context.Context, event events.Event) error {
	assigneeUserID := event.String("assignee_user_id")
	if assigneeUserID == "" {
		// Team without a lead officer; nobody to notify
		return nil
	}

	userID, err := types.ParseID(assigneeUserID)
	if err != nil {
		return fmt.Errorf("bad assignee_user_id in event: %w", err)
	}

	obNumber := event.String("ob_number")
	var caseID *types.ID
	if id, err := types.ParseID(event.String("case_id")); err == nil {
		caseID = &id
	}

	n := New(userID, TypeCaseAssigned,
		"New case assignment",
		fmt.Sprintf("You have been assigned to case %s", obNumber),
		caseID)

	if err := s.store.Save(ctx, n); err != nil {
		return err
	}

	metrics.RecordNotificationCreated(string(TypeCaseAssigned))
	s.logger.Info("assignment notification created",
		zap.String("user_id", userID.String()),
		zap.String("ob_number", obNumber))

	return nil
}

// HandleCaseUpdateAdded notifies the reporter about public progress on
// their case. Internal updates and anonymous reports produce nothing.
func (s *Subscriber) HandleCaseUpdateAdded(ctx context.Context, event events.Event) error {
	if event.String("visibility") != "public" {
		return nil
	}
	if event.Bool("is_anonymous") {
		return nil
	}

	reporterID := event.String("reporter_id")
	if reporterID == "" {
		return nil
	}

	userID, err := types.ParseID(reporterID)
	if err != nil {
		return fmt.Errorf("bad reporter_id in event: %w", err)
	}

	obNumber := event.String("ob_number")
	var caseID *types.ID
	if id, err := types.ParseID(event.String("case_id")); err == nil {
		caseID = &id
	}

	n := New(userID, TypeCaseUpdate,
		"Update on your case",
		fmt.Sprintf("There is a new update on case %s", obNumber),
		caseID)

	if err := s.store.Save(ctx, n); err != nil {
		return err
	}

	metrics.RecordNotificationCreated(string(TypeCaseUpdate))

	return nil
}
