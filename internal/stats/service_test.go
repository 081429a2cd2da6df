package stats

import (
	"context"
	"testing"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/types"
	"github.com/crime-ease/platform/internal/station"
)

type fakeOfficerCounter struct {
	counts map[station.OfficerStatus]int
}

func (f *fakeOfficerCounter) CountOfficersByStatus(ctx context.Context, stationID *types.ID) (map[station.OfficerStatus]int, error) {
	return f.counts, nil
}

type fakeCaseRepo struct {
	domain.Repository

	counts     domain.StatusCounts
	byPriority map[domain.Priority]int
	byCounty   []domain.CountyCount
	recent     []*domain.Case

	statusCalls int
	lastStation *types.ID
}

func (f *fakeCaseRepo) CountByStatus(ctx context.Context, stationID *types.ID) (*domain.StatusCounts, error) {
	f.statusCalls++
	f.lastStation = stationID
	counts := f.counts
	return &counts, nil
}

func (f *fakeCaseRepo) CountByPriority(ctx context.Context, stationID *types.ID) (map[domain.Priority]int, error) {
	return f.byPriority, nil
}

func (f *fakeCaseRepo) CountByCounty(ctx context.Context) ([]domain.CountyCount, error) {
	return f.byCounty, nil
}

func (f *fakeCaseRepo) Recent(ctx context.Context, stationID *types.ID, limit int) ([]*domain.Case, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func TestResolutionRate(t *testing.T) {
	tests := []struct {
		name   string
		closed int
		total  int
		want   int
	}{
		{"no cases", 0, 0, 0},
		{"none closed", 0, 10, 0},
		{"all closed", 10, 10, 100},
		{"half closed", 5, 10, 50},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"rounds half up", 1, 8, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolutionRate(tt.closed, tt.total); got != tt.want {
				t.Errorf("resolutionRate(%d, %d) = %d, want %d", tt.closed, tt.total, got, tt.want)
			}
		})
	}
}

func TestStationStats(t *testing.T) {
	repo := &fakeCaseRepo{
		counts: domain.StatusCounts{Total: 20, Open: 5, InProgress: 7, Closed: 6, Archived: 2},
		byPriority: map[domain.Priority]int{
			domain.PriorityHigh:   3,
			domain.PriorityMedium: 12,
			domain.PriorityLow:    5,
		},
	}
	officers := &fakeOfficerCounter{counts: map[station.OfficerStatus]int{
		station.OfficerStatusActive:   9,
		station.OfficerStatusInactive: 1,
	}}
	svc := NewService(repo, officers, nil)

	stationID := types.NewID()
	stats, err := svc.StationStats(context.Background(), stationID)
	if err != nil {
		t.Fatalf("StationStats: %v", err)
	}

	if stats.StationID != stationID {
		t.Errorf("expected station %s, got %s", stationID, stats.StationID)
	}
	if stats.Counts.Total != 20 {
		t.Errorf("expected total 20, got %d", stats.Counts.Total)
	}
	if stats.ResolutionRate != 30 {
		t.Errorf("expected resolution rate 30, got %d", stats.ResolutionRate)
	}
	if repo.lastStation == nil || *repo.lastStation != stationID {
		t.Error("station stats must scope counts to the station")
	}
	if stats.Officers[station.OfficerStatusActive] != 9 {
		t.Errorf("expected 9 active officers, got %d", stats.Officers[station.OfficerStatusActive])
	}
}

func TestNationalStats(t *testing.T) {
	repo := &fakeCaseRepo{
		counts:     domain.StatusCounts{Total: 3, Closed: 1},
		byPriority: map[domain.Priority]int{domain.PriorityMedium: 3},
		byCounty: []domain.CountyCount{
			{County: "Nairobi", Total: 2},
			{County: "Mombasa", Total: 1},
		},
	}
	svc := NewService(repo, &fakeOfficerCounter{}, nil)

	stats, err := svc.NationalStats(context.Background())
	if err != nil {
		t.Fatalf("NationalStats: %v", err)
	}

	if repo.lastStation != nil {
		t.Error("national stats must not be scoped to a station")
	}
	if stats.ResolutionRate != 33 {
		t.Errorf("expected resolution rate 33, got %d", stats.ResolutionRate)
	}
	if len(stats.ByCounty) != 2 || stats.ByCounty[0].County != "Nairobi" {
		t.Errorf("unexpected county breakdown: %+v", stats.ByCounty)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	if c.Get(context.Background(), "stats:national", &NationalStats{}) {
		t.Error("nil cache must always miss")
	}
	c.Set(context.Background(), "stats:national", &NationalStats{})
	c.Close()
}
