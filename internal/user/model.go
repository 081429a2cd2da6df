package user

import (
	"time"

	"github.com/crime-ease/platform/internal/shared/types"
)

// User represents a platform account. Accounts are sourced from the
// identity provider via webhooks; ExternalID is the provider's user id.
type User struct {
	ID         types.ID `json:"id"`
	ExternalID string   `json:"external_id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Phone      string   `json:"phone,omitempty"`
	Deleted    bool     `json:"deleted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateRoleRequest is the request to change a user's role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ListUsersFilter defines filters for listing users
type ListUsersFilter struct {
	Role   string `json:"role,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
