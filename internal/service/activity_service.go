package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
	"github.com/noah-isme/horas-api/internal/utils"
)

var (
	// ErrActivityNotFound indicates the activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrFutureDate rejects activities dated after today.
	ErrFutureDate = errors.New("activity date cannot be in the future")
	// ErrInvalidCategory indicates the category is not one of the enumerated values.
	ErrInvalidCategory = errors.New("invalid activity category")
)

// ActivityService records complementary activities and keeps progress current.
type ActivityService interface {
	ListByStudent(ctx context.Context, studentID uint, filter dto.ActivityFilter) ([]dto.ActivityResponse, error)
	Create(ctx context.Context, actor Actor, studentID uint, req dto.ActivityRequest) (dto.ActivityResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ActivityRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type activityService struct {
	activities repository.ActivityRepository
	students   repository.StudentRepository
	progress   ProgressService
	audit      AuditRecorder
	validator  *validator.Validate
	policy     *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(activities repository.ActivityRepository, students repository.StudentRepository, progress ProgressService, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		students:   students,
		progress:   progress,
		audit:      audit,
		validator:  validate,
		policy:     bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		now:        time.Now,
	}
}

func (s *activityService) ListByStudent(ctx context.Context, studentID uint, filter dto.ActivityFilter) ([]dto.ActivityResponse, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}

	var category hours.Category
	if value := strings.TrimSpace(filter.Category); value != "" && !strings.EqualFold(value, "all") {
		parsed, ok := hours.ParseCategory(value)
		if !ok {
			return nil, ErrInvalidCategory
		}
		category = parsed
	}

	activities, err := s.activities.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(filter.DatePrefix)
	filtered := make([]models.Activity, 0, len(activities))
	for _, activity := range activities {
		if category != "" && activity.Category != category {
			continue
		}
		if prefix != "" && !strings.HasPrefix(activity.OccurredOn.Format(models.DateLayout), prefix) {
			continue
		}
		filtered = append(filtered, activity)
	}

	return dto.NewActivityResponseSlice(filtered), nil
}

func (s *activityService) Create(ctx context.Context, actor Actor, studentID uint, req dto.ActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if _, err := s.findStudent(ctx, studentID); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity := models.Activity{StudentID: studentID}
	if err := s.apply(&activity, actor, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	s.afterWrite(ctx, activity.StudentID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "activity", activity.ID, activityMetadata(activity))

	return dto.NewActivityResponse(activity), nil
}

// Update replaces every editable field of the activity.
func (s *activityService) Update(ctx context.Context, actor Actor, id uint, req dto.ActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if err := s.apply(&activity, actor, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Update(ctx, &activity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	s.afterWrite(ctx, activity.StudentID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "activity", activity.ID, activityMetadata(activity))

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	deleted, err := s.activities.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return err
	}

	s.afterWrite(ctx, deleted.StudentID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "activity", deleted.ID, activityMetadata(deleted))

	return nil
}

func (s *activityService) apply(activity *models.Activity, actor Actor, req dto.ActivityRequest) error {
	category := hours.Category(strings.TrimSpace(req.Category))
	if !category.Valid() {
		return ErrInvalidCategory
	}

	occurredOn, err := time.Parse(models.DateLayout, strings.TrimSpace(req.OccurredOn))
	if err != nil {
		return err
	}
	if utils.IsFutureDate(occurredOn, s.now()) {
		return ErrFutureDate
	}

	recordedBy := strings.TrimSpace(actor.Name)
	if recordedBy == "" {
		recordedBy = normalizeRole(actor.Role)
	}

	activity.Category = category
	activity.Hours = req.Hours
	activity.OccurredOn = occurredOn
	activity.RecordedBy = recordedBy
	activity.DocumentRef = strings.TrimSpace(req.DocumentRef)
	activity.Notes = strings.TrimSpace(s.policy.Sanitize(req.Notes))
	return nil
}

// afterWrite refreshes the student's cached totals. The activity write has already
// committed, so a refresh failure is logged rather than surfaced.
func (s *activityService) afterWrite(ctx context.Context, studentID uint) {
	if s.progress == nil {
		return
	}
	if _, err := s.progress.Refresh(ctx, studentID); err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to refresh student progress")
	}
}

func (s *activityService) findStudent(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func activityMetadata(activity models.Activity) map[string]interface{} {
	return map[string]interface{}{
		"student_id":   activity.StudentID,
		"category":     string(activity.Category),
		"hours":        activity.Hours,
		"occurred_on":  activity.OccurredOn.Format(models.DateLayout),
		"has_document": activity.DocumentRef != "",
	}
}
