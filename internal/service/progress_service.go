package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/observability"
	"github.com/noah-isme/horas-api/internal/repository"
)

// ErrStudentNotFound indicates the student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ProgressService computes and caches students' standing against their activity list.
type ProgressService interface {
	Get(ctx context.Context, studentID uint) (dto.ProgressResponse, error)
	Refresh(ctx context.Context, studentID uint) (hours.Result, error)
	RefreshList(ctx context.Context, listID uint) (int, error)
	RefreshAll(ctx context.Context) (int, error)
}

type progressService struct {
	students   repository.StudentRepository
	lists      repository.ActivityListRepository
	activities repository.ActivityRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	publisher  ProgressPublisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewProgressService wires the progress aggregator with its stores. cache and publisher may be nil.
func NewProgressService(students repository.StudentRepository, lists repository.ActivityListRepository, activities repository.ActivityRepository, cache *redis.Client, ttl time.Duration, publisher ProgressPublisher, logger zerolog.Logger) ProgressService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &progressService{
		students:   students,
		lists:      lists,
		activities: activities,
		cache:      cache,
		cacheTTL:   ttl,
		publisher:  publisher,
		logger:     logger.With().Str("component", "progress_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/horas-api/internal/service/progress"),
		now:        time.Now,
	}
}

// progressCacheKey changes whenever the activity set or the list rules change, so a
// cached entry can never be served for a stale record set.
func progressCacheKey(student models.Student, list models.ActivityList) string {
	return fmt.Sprintf("progress:student:%d:v%d:list:%d:%s:%s",
		student.ID,
		student.ActivitiesVersion,
		list.ID,
		strconv.FormatFloat(list.TotalHoursRequired, 'f', -1, 64),
		strconv.FormatFloat(list.MaxHoursPerCategory, 'f', -1, 64),
	)
}

func (s *progressService) Get(ctx context.Context, studentID uint) (dto.ProgressResponse, error) {
	student, list, err := s.load(ctx, studentID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	cacheKey := progressCacheKey(student, list)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.Student = dto.NewStudentResponse(student)
				response.Student.ListTitle = list.Title
				observability.ProgressAggregations().WithLabelValues("cache").Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	result, err := s.aggregate(ctx, student, list)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	s.repair(ctx, student, result)
	student.TotalHours = result.ValidTotalHours
	student.Status = result.CompletionStatus

	response := dto.NewProgressResponse(student, list, result, s.now().UTC())
	s.store(ctx, cacheKey, response)

	return response, nil
}

func (s *progressService) Refresh(ctx context.Context, studentID uint) (hours.Result, error) {
	student, list, err := s.load(ctx, studentID)
	if err != nil {
		return hours.Result{}, err
	}
	return s.refresh(ctx, student, list)
}

func (s *progressService) RefreshList(ctx context.Context, listID uint) (int, error) {
	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrListNotFound
		}
		return 0, err
	}

	students, err := s.students.ListByList(ctx, listID)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, student := range students {
		if _, err := s.refresh(ctx, student, list); err != nil {
			return refreshed, fmt.Errorf("refresh student %d: %w", student.ID, err)
		}
		refreshed++
	}

	s.logger.Info().Uint("list_id", listID).Int("students", refreshed).Msg("list progress refreshed")
	return refreshed, nil
}

func (s *progressService) RefreshAll(ctx context.Context) (int, error) {
	lists, err := s.lists.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, list := range lists {
		count, err := s.RefreshList(ctx, list.ID)
		total += count
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *progressService) refresh(ctx context.Context, student models.Student, list models.ActivityList) (hours.Result, error) {
	result, err := s.aggregate(ctx, student, list)
	if err != nil {
		return hours.Result{}, err
	}

	if err := s.students.UpdateProgress(ctx, student.ID, result.ValidTotalHours, result.CompletionStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return hours.Result{}, ErrStudentNotFound
		}
		return hours.Result{}, err
	}

	previous := student.Status
	if previous == "" {
		previous = hours.StatusInProgress
	}

	s.emit(ctx, ProgressEventUpdated, student, list, result, previous)
	if previous != hours.StatusComplete && result.CompletionStatus == hours.StatusComplete {
		observability.StudentCompletions().Inc()
		s.emit(ctx, ProgressEventCompleted, student, list, result, previous)
	}

	return result, nil
}

func (s *progressService) aggregate(ctx context.Context, student models.Student, list models.ActivityList) (hours.Result, error) {
	ctx, span := s.tracer.Start(ctx, "progress.aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("student.id", int(student.ID)),
		attribute.Int("list.id", int(list.ID)),
		attribute.Int("student.activities_version", int(student.ActivitiesVersion)),
	)

	activities, err := s.activities.ListByStudent(ctx, student.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load activities failed")
		return hours.Result{}, err
	}

	result, err := hours.Aggregate(models.HoursRecords(activities), list.HoursConfig())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return hours.Result{}, err
	}

	span.SetAttributes(
		attribute.Int("activities.count", len(activities)),
		attribute.Float64("hours.valid_total", result.ValidTotalHours),
		attribute.String("hours.status", string(result.CompletionStatus)),
	)
	observability.ProgressAggregations().WithLabelValues("computed").Inc()

	return result, nil
}

func (s *progressService) load(ctx context.Context, studentID uint) (models.Student, models.ActivityList, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, models.ActivityList{}, ErrStudentNotFound
		}
		return models.Student{}, models.ActivityList{}, err
	}

	list, err := s.lists.GetByID(ctx, student.ListID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, models.ActivityList{}, ErrListNotFound
		}
		return models.Student{}, models.ActivityList{}, err
	}

	return student, list, nil
}

// repair rewrites the student's cached total and status when a refresh after a write was
// missed, so list filters and dashboard counts converge on the aggregated values.
func (s *progressService) repair(ctx context.Context, student models.Student, result hours.Result) {
	if student.TotalHours == result.ValidTotalHours && student.Status == result.CompletionStatus {
		return
	}
	if err := s.students.UpdateProgress(ctx, student.ID, result.ValidTotalHours, result.CompletionStatus); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to repair cached student totals")
		return
	}
	s.logger.Info().Uint("student_id", student.ID).Float64("stored_total", student.TotalHours).Float64("valid_total", result.ValidTotalHours).Msg("cached student totals repaired")
}

func (s *progressService) store(ctx context.Context, key string, response dto.ProgressResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}

func (s *progressService) emit(ctx context.Context, eventType string, student models.Student, list models.ActivityList, result hours.Result, previous hours.Status) {
	if s.publisher == nil {
		return
	}
	event := ProgressEvent{
		Type:               eventType,
		StudentID:          student.ID,
		ListID:             list.ID,
		ValidTotalHours:    result.ValidTotalHours,
		TotalHoursRequired: list.TotalHoursRequired,
		Status:             result.CompletionStatus,
		PreviousStatus:     previous,
		Version:            student.ActivitiesVersion,
		OccurredAt:         s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Uint("student_id", student.ID).Msg("failed to publish progress event")
	}
}
