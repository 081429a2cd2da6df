package station

import (
	"context"

	caseapi "github.com/crime-ease/platform/internal/case/api"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Directory exposes station records to the case module for assignment
// resolution and notification fan-out.
type Directory struct {
	repo *Repository
}

// NewDirectory creates a directory backed by the station repository
func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// OfficerRef resolves an officer to a display name and linked user
func (d *Directory) OfficerRef(ctx context.Context, id types.ID) (*caseapi.AssigneeRef, error) {
	o, err := d.repo.GetOfficer(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != OfficerStatusActive {
		return nil, errors.BadRequest("officer is not on active duty")
	}

	return &caseapi.AssigneeRef{
		Name:      o.Name,
		UserID:    o.UserID,
		StationID: o.StationID,
	}, nil
}

// TeamRef resolves a team to its name and the lead officer's user. Teams
// without a lead have no user to notify; the zero UserID signals that.
func (d *Directory) TeamRef(ctx context.Context, id types.ID) (*caseapi.AssigneeRef, error) {
	t, err := d.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != TeamStatusActive {
		return nil, errors.BadRequest("team is not active")
	}

	ref := &caseapi.AssigneeRef{
		Name:      t.Name,
		StationID: t.StationID,
	}

	if t.LeadOfficerID != nil {
		lead, err := d.repo.GetOfficer(ctx, *t.LeadOfficerID)
		if err == nil {
			ref.UserID = lead.UserID
		}
	}

	return ref, nil
}

// StationCode resolves a station ID to its short code
func (d *Directory) StationCode(ctx context.Context, id types.ID) (string, error) {
	s, err := d.repo.GetStation(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Code, nil
}

var _ caseapi.Directory = (*Directory)(nil)
