package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/models"
)

// ActivityListRepository defines persistence operations for activity lists.
type ActivityListRepository interface {
	List(ctx context.Context) ([]models.ActivityList, error)
	GetByID(ctx context.Context, id uint) (models.ActivityList, error)
	Create(ctx context.Context, list *models.ActivityList) error
	Update(ctx context.Context, list *models.ActivityList) error
	Delete(ctx context.Context, id uint) error
	StudentCounts(ctx context.Context) (map[uint]int64, error)
	CountStudents(ctx context.Context, listID uint) (int64, error)
}

type activityListRepository struct {
	db *gorm.DB
}

// NewActivityListRepository instantiates a GORM-backed repository.
func NewActivityListRepository(db *gorm.DB) ActivityListRepository {
	return &activityListRepository{db: db}
}

func (r *activityListRepository) List(ctx context.Context) ([]models.ActivityList, error) {
	var lists []models.ActivityList
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *activityListRepository) GetByID(ctx context.Context, id uint) (models.ActivityList, error) {
	var list models.ActivityList
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return models.ActivityList{}, err
	}
	return list, nil
}

func (r *activityListRepository) Create(ctx context.Context, list *models.ActivityList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *activityListRepository) Update(ctx context.Context, list *models.ActivityList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

func (r *activityListRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityList{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *activityListRepository) StudentCounts(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		ListID uint
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select("list_id, COUNT(*) AS total").
		Group("list_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ListID] = row.Total
	}
	return counts, nil
}

func (r *activityListRepository) CountStudents(ctx context.Context, listID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("list_id = ?", listID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
