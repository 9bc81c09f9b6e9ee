package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/models"
)

// AuditFilter narrows audit trail queries.
type AuditFilter struct {
	Page       int
	PageSize   int
	ActorID    *uint
	Action     string
	EntityType string
}

// AuditRepository persists audit trail events.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter AuditFilter) ([]models.ActivityLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository constructs the audit trail repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]models.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	if err := paginate(query.Order("created_at DESC, id DESC"), filter.Page, filter.PageSize).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
