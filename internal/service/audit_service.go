package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
)

// Actor represents the authenticated user performing a write.
type Actor struct {
	ID   uint
	Role string
	Name string
}

// AuditEntry captures the details required to persist an audit entry.
type AuditEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) (dto.AuditResponse, error)
}

// AuditService exposes methods to query and persist the audit trail.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit trail service.
func NewAuditService(repo repository.AuditRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) (dto.AuditResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.AuditResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.AuditResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist audit entry")
		return dto.AuditResponse{}, err
	}

	return dto.NewAuditResponse(model), nil
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	filter := repository.AuditFilter{
		Page:       page,
		PageSize:   pageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	responses := make([]dto.AuditResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditResponse(entry))
	}

	return dto.AuditListResponse{Items: responses, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

// recordAudit writes an audit entry without failing the caller's operation.
func recordAudit(ctx context.Context, recorder AuditRecorder, logger zerolog.Logger, actor Actor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if recorder == nil {
		return
	}
	id := entityID
	if _, err := recorder.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		logger.Warn().Err(err).Str("action", action).Str("entity_type", entityType).Msg("failed to record audit entry")
	}
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
