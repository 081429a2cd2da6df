package notification

import (
	"time"

	"github.com/crime-ease/platform/internal/shared/types"
)

// NotificationType classifies in-app notifications
type NotificationType string

const (
	TypeCaseAssigned NotificationType = "case_assigned"
	TypeCaseUpdate   NotificationType = "case_update"
	TypeSystem       NotificationType = "system"
)

// Notification is an in-app notification for a single user
type Notification struct {
	ID     types.ID         `json:"id"`
	UserID types.ID         `json:"user_id"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Type   NotificationType `json:"type"`
	CaseID *types.ID        `json:"case_id,omitempty"`
	Read   bool             `json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

// New creates an unread notification
func New(userID types.ID, notifType NotificationType, title, body string, caseID *types.ID) *Notification {
	return &Notification{
		ID:        types.NewID(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      notifType,
		CaseID:    caseID,
		Read:      false,
		CreatedAt: time.Now(),
	}
}
