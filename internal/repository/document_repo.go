package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/models"
)

// DocumentRepository persists metadata about stored supporting documents.
type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs a repository for document records.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}
