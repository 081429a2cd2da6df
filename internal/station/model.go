package station

import (
	"fmt"
	"time"

	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Station represents a police station
type Station struct {
	ID     types.ID `json:"id"`
	Name   string   `json:"name"`
	County string   `json:"county"`
	Code   string   `json:"code"`

	Location types.Location    `json:"location"`
	Contact  types.ContactInfo `json:"contact"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfficerStatus defines the duty status of an officer
type OfficerStatus string

const (
	OfficerStatusActive    OfficerStatus = "active"
	OfficerStatusInactive  OfficerStatus = "inactive"
	OfficerStatusSuspended OfficerStatus = "suspended"
)

// ParseOfficerStatus validates a duty status received over the wire
func ParseOfficerStatus(s string) (OfficerStatus, error) {
	switch OfficerStatus(s) {
	case OfficerStatusActive, OfficerStatusInactive, OfficerStatusSuspended:
		return OfficerStatus(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid officer status: %q", s))
}

// Officer represents a police officer attached to a station
type Officer struct {
	ID          types.ID `json:"id"`
	UserID      types.ID `json:"user_id"`
	BadgeNumber string   `json:"badge_number"`
	Rank        string   `json:"rank"`
	StationID   types.ID `json:"station_id"`
	Department  string   `json:"department"`

	Status   OfficerStatus `json:"status"`
	JoinedAt time.Time     `json:"joined_at"`

	// Resolved from the linked user record when loaded with user details
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamStatus defines whether a team is operational
type TeamStatus string

const (
	TeamStatusActive    TeamStatus = "active"
	TeamStatusDisbanded TeamStatus = "disbanded"
)

// ParseTeamStatus validates a team status received over the wire
func ParseTeamStatus(s string) (TeamStatus, error) {
	switch TeamStatus(s) {
	case TeamStatusActive, TeamStatusDisbanded:
		return TeamStatus(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("invalid team status: %q", s))
}

// Team represents a unit of officers within a station
type Team struct {
	ID            types.ID   `json:"id"`
	Name          string     `json:"name"`
	StationID     types.ID   `json:"station_id"`
	LeadOfficerID *types.ID  `json:"lead_officer_id,omitempty"`
	Specialty     string     `json:"specialty,omitempty"`
	Status        TeamStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateStationRequest is the request to register a station
type CreateStationRequest struct {
	Name     string            `json:"name" validate:"required,min=2,max=255"`
	County   string            `json:"county" validate:"required"`
	Code     string            `json:"code" validate:"required,min=2,max=50"`
	Location types.Location    `json:"location"`
	Contact  types.ContactInfo `json:"contact"`
}

// UpdateStationRequest is the request to update a station
type UpdateStationRequest struct {
	Name     *string            `json:"name,omitempty"`
	County   *string            `json:"county,omitempty"`
	Location *types.Location    `json:"location,omitempty"`
	Contact  *types.ContactInfo `json:"contact,omitempty"`
}

// CreateOfficerRequest is the request to enroll an officer
type CreateOfficerRequest struct {
	UserID      types.ID `json:"user_id" validate:"required"`
	BadgeNumber string   `json:"badge_number" validate:"required,min=1,max=50"`
	Rank        string   `json:"rank" validate:"required"`
	StationID   types.ID `json:"station_id" validate:"required"`
	Department  string   `json:"department"`
}

// UpdateOfficerRequest is the request to update an officer
type UpdateOfficerRequest struct {
	Rank       *string        `json:"rank,omitempty"`
	StationID  *types.ID      `json:"station_id,omitempty"`
	Department *string        `json:"department,omitempty"`
	Status     *OfficerStatus `json:"status,omitempty"`
}

// CreateTeamRequest is the request to form a team
type CreateTeamRequest struct {
	Name          string    `json:"name" validate:"required,min=2,max=255"`
	StationID     types.ID  `json:"station_id" validate:"required"`
	LeadOfficerID *types.ID `json:"lead_officer_id,omitempty"`
	Specialty     string    `json:"specialty,omitempty"`
}

// UpdateTeamRequest is the request to update a team
type UpdateTeamRequest struct {
	Name          *string     `json:"name,omitempty"`
	LeadOfficerID *types.ID   `json:"lead_officer_id,omitempty"`
	Specialty     *string     `json:"specialty,omitempty"`
	Status        *TeamStatus `json:"status,omitempty"`
}

// ListStationsFilter defines filters for listing stations
type ListStationsFilter struct {
	County string `json:"county,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListOfficersFilter defines filters for listing officers
type ListOfficersFilter struct {
	StationID *types.ID      `json:"station_id,omitempty"`
	Status    *OfficerStatus `json:"status,omitempty"`
	Search    string         `json:"search,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Offset    int            `json:"offset,omitempty"`
}

// ListTeamsFilter defines filters for listing teams
type ListTeamsFilter struct {
	StationID *types.ID   `json:"station_id,omitempty"`
	Status    *TeamStatus `json:"status,omitempty"`
	Limit     int         `json:"limit,omitempty"`
	Offset    int         `json:"offset,omitempty"`
}
