package domain

import (
	"context"

	"github.com/crime-ease/platform/internal/shared/types"
)

// ListFilter narrows case listings. Nil fields are ignored.
type ListFilter struct {
	StationID         *types.ID
	ReporterID        *types.ID
	AssignedOfficerID *types.ID
	AssignedTeamID    *types.ID
	Status            *CaseStatus
	Priority          *Priority
	IncidentType      *string
	Limit             int
	Offset            int
}

// StatusCounts holds per-status case totals for a scope.
type StatusCounts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
	Archived   int `json:"archived"`
}

// CountyCount is one row of the national per-county aggregate.
type CountyCount struct {
	County string `json:"county"`
	Total  int    `json:"total"`
}

// Repository defines the case persistence interface
type Repository interface {
	// Save persists a new case together with its initial audit entries.
	// Implementations retry with a fresh OB number on collision.
	Save(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	FindByID(ctx context.Context, id types.ID) (*Case, error)
	FindByOBNumber(ctx context.Context, obNumber string) (*Case, error)
	List(ctx context.Context, filter ListFilter) ([]*Case, error)

	AddUpdate(ctx context.Context, update *CaseUpdate) error
	GetUpdates(ctx context.Context, caseID types.ID, includeInternal bool) ([]CaseUpdate, error)

	// Aggregates for station and national dashboards. A nil stationID
	// scopes the count nationally.
	CountByStatus(ctx context.Context, stationID *types.ID) (*StatusCounts, error)
	CountByPriority(ctx context.Context, stationID *types.ID) (map[Priority]int, error)
	CountByCounty(ctx context.Context) ([]CountyCount, error)
	Recent(ctx context.Context, stationID *types.ID, limit int) ([]*Case, error)
}
