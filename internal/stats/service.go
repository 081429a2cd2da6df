package stats

import (
	"context"
	"math"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/types"
	"github.com/crime-ease/platform/internal/station"
)

// OfficerCounter is the slice of the station repository the dashboards need
type OfficerCounter interface {
	CountOfficersByStatus(ctx context.Context, stationID *types.ID) (map[station.OfficerStatus]int, error)
}

// StationStats is the dashboard summary for one station
type StationStats struct {
	StationID      types.ID                      `json:"station_id"`
	Counts         domain.StatusCounts           `json:"counts"`
	ByPriority     map[domain.Priority]int       `json:"by_priority"`
	Officers       map[station.OfficerStatus]int `json:"officers"`
	ResolutionRate int                           `json:"resolution_rate"`
	RecentCases    []*domain.Case                `json:"recent_cases"`
}

// NationalStats is the oversight summary across all stations
type NationalStats struct {
	Counts         domain.StatusCounts           `json:"counts"`
	ByPriority     map[domain.Priority]int       `json:"by_priority"`
	Officers       map[station.OfficerStatus]int `json:"officers"`
	ResolutionRate int                           `json:"resolution_rate"`
	ByCounty       []domain.CountyCount          `json:"by_county"`
	RecentCases    []*domain.Case                `json:"recent_cases"`
}

// Service computes dashboard statistics from the case repository
type Service struct {
	cases    domain.Repository
	officers OfficerCounter
	cache    *Cache
}

// NewService creates a stats service. cache may be nil.
func NewService(cases domain.Repository, officers OfficerCounter, cache *Cache) *Service {
	return &Service{cases: cases, officers: officers, cache: cache}
}

const recentCaseCount = 5

// StationStats computes the summary for a single station
func (s *Service) StationStats(ctx context.Context, stationID types.ID) (*StationStats, error) {
	cacheKey := "stats:station:" + stationID.String()
	cached := &StationStats{}
	if s.cache.Get(ctx, cacheKey, cached) {
		return cached, nil
	}

	counts, err := s.cases.CountByStatus(ctx, &stationID)
	if err != nil {
		return nil, err
	}

	byPriority, err := s.cases.CountByPriority(ctx, &stationID)
	if err != nil {
		return nil, err
	}

	officerCounts, err := s.officers.CountOfficersByStatus(ctx, &stationID)
	if err != nil {
		return nil, err
	}

	recent, err := s.cases.Recent(ctx, &stationID, recentCaseCount)
	if err != nil {
		return nil, err
	}

	stats := &StationStats{
		StationID:      stationID,
		Counts:         *counts,
		ByPriority:     byPriority,
		Officers:       officerCounts,
		ResolutionRate: resolutionRate(counts.Closed, counts.Total),
		RecentCases:    recent,
	}

	s.cache.Set(ctx, cacheKey, stats)
	return stats, nil
}

// NationalStats computes the summary across all stations. The per-county
// breakdown comes from one joined aggregate query.
func (s *Service) NationalStats(ctx context.Context) (*NationalStats, error) {
	cacheKey := "stats:national"
	cached := &NationalStats{}
	if s.cache.Get(ctx, cacheKey, cached) {
		return cached, nil
	}

	counts, err := s.cases.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}

	byPriority, err := s.cases.CountByPriority(ctx, nil)
	if err != nil {
		return nil, err
	}

	byCounty, err := s.cases.CountByCounty(ctx)
	if err != nil {
		return nil, err
	}

	officerCounts, err := s.officers.CountOfficersByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}

	recent, err := s.cases.Recent(ctx, nil, recentCaseCount)
	if err != nil {
		return nil, err
	}

	stats := &NationalStats{
		Counts:         *counts,
		ByPriority:     byPriority,
		Officers:       officerCounts,
		ResolutionRate: resolutionRate(counts.Closed, counts.Total),
		ByCounty:       byCounty,
		RecentCases:    recent,
	}

	s.cache.Set(ctx, cacheKey, stats)
	return stats, nil
}

// resolutionRate is the share of closed cases as a whole percentage.
// Zero cases means a rate of zero, not a division error.
func resolutionRate(closed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(closed) / float64(total) * 100))
}
