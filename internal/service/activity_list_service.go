package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
)

var (
	// ErrListNotFound indicates the activity list does not exist.
	ErrListNotFound = errors.New("activity list not found")
	// ErrListHasStudents blocks deleting a list that still has enrolments.
	ErrListHasStudents = errors.New("activity list still has enrolled students")
)

// ActivityListService manages activity lists and their hour rules.
type ActivityListService interface {
	List(ctx context.Context) ([]dto.ActivityListResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityListResponse, error)
	Create(ctx context.Context, actor Actor, req dto.ActivityListCreateRequest) (dto.ActivityListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ActivityListUpdateRequest) (dto.ActivityListResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type activityListService struct {
	repo      repository.ActivityListRepository
	progress  ProgressService
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityListService constructs the list service.
func NewActivityListService(repo repository.ActivityListRepository, progress ProgressService, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) ActivityListService {
	return &activityListService{
		repo:      repo,
		progress:  progress,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "activity_list_service").Logger(),
	}
}

func (s *activityListService) List(ctx context.Context) ([]dto.ActivityListResponse, error) {
	lists, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.StudentCounts(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityListResponse, 0, len(lists))
	for _, list := range lists {
		responses = append(responses, dto.NewActivityListResponse(list, counts[list.ID]))
	}
	return responses, nil
}

func (s *activityListService) Get(ctx context.Context, id uint) (dto.ActivityListResponse, error) {
	list, err := s.find(ctx, id)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.NewActivityListResponse(list, count), nil
}

func (s *activityListService) Create(ctx context.Context, actor Actor, req dto.ActivityListCreateRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	list := models.ActivityList{
		Title:               strings.TrimSpace(req.Title),
		TotalHoursRequired:  req.TotalHoursRequired,
		MaxHoursPerCategory: req.MaxHoursPerCategory,
	}
	if err := list.HoursConfig().Validate(); err != nil {
		return dto.ActivityListResponse{}, err
	}

	if err := s.repo.Create(ctx, &list); err != nil {
		return dto.ActivityListResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "activity_list", list.ID, map[string]interface{}{
		"title":                  list.Title,
		"total_hours_required":   list.TotalHoursRequired,
		"max_hours_per_category": list.MaxHoursPerCategory,
	})

	return dto.NewActivityListResponse(list, 0), nil
}

// Update applies the patch and, when the hour rules change, recomputes every enrolled
// student against the new rules. Completion is always judged by the current config.
func (s *activityListService) Update(ctx context.Context, actor Actor, id uint, req dto.ActivityListUpdateRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	list, err := s.find(ctx, id)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	changes := map[string]interface{}{}
	rulesChanged := false
	if req.Title != nil {
		list.Title = strings.TrimSpace(*req.Title)
		changes["title"] = list.Title
	}
	if req.TotalHoursRequired != nil && *req.TotalHoursRequired != list.TotalHoursRequired {
		list.TotalHoursRequired = *req.TotalHoursRequired
		changes["total_hours_required"] = list.TotalHoursRequired
		rulesChanged = true
	}
	if req.MaxHoursPerCategory != nil && *req.MaxHoursPerCategory != list.MaxHoursPerCategory {
		list.MaxHoursPerCategory = *req.MaxHoursPerCategory
		changes["max_hours_per_category"] = list.MaxHoursPerCategory
		rulesChanged = true
	}
	if err := list.HoursConfig().Validate(); err != nil {
		return dto.ActivityListResponse{}, err
	}

	if err := s.repo.Update(ctx, &list); err != nil {
		return dto.ActivityListResponse{}, err
	}

	if rulesChanged && s.progress != nil {
		refreshed, err := s.progress.RefreshList(ctx, list.ID)
		if err != nil {
			s.logger.Error().Err(err).Uint("list_id", list.ID).Msg("failed to refresh students after rule change")
			return dto.ActivityListResponse{}, err
		}
		changes["students_refreshed"] = refreshed
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "activity_list", list.ID, changes)

	count, err := s.repo.CountStudents(ctx, list.ID)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.NewActivityListResponse(list, count), nil
}

func (s *activityListService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrListHasStudents
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListNotFound
		}
		return err
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "activity_list", id, nil)
	return nil
}

func (s *activityListService) find(ctx context.Context, id uint) (models.ActivityList, error) {
	list, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityList{}, ErrListNotFound
		}
		return models.ActivityList{}, err
	}
	return list, nil
}
