package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/repository"
)

const dashboardCacheKey = "dashboard:summary"

// DashboardService summarises lists and completion counts.
type DashboardService interface {
	Summary(ctx context.Context) (dto.DashboardResponse, error)
}

type dashboardService struct {
	lists      ActivityListService
	students   repository.StudentRepository
	activities repository.ActivityRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDashboardService builds the dashboard aggregator. The summary is cached briefly since
// it reads the denormalised student totals rather than recomputing them.
func NewDashboardService(lists ActivityListService, students repository.StudentRepository, activities repository.ActivityRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &dashboardService{
		lists:      lists,
		students:   students,
		activities: activities,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "dashboard_service").Logger(),
		now:        time.Now,
	}
}

func (s *dashboardService) Summary(ctx context.Context) (dto.DashboardResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, dashboardCacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	lists, err := s.lists.List(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	counts, err := s.students.CountByStatus(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	activityCount, err := s.activities.Count(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		Lists:            lists,
		CompleteStudents: counts[hours.StatusComplete],
		TotalActivities:  activityCount,
		GeneratedAt:      s.now().UTC(),
	}
	for _, count := range counts {
		response.TotalStudents += count
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}
