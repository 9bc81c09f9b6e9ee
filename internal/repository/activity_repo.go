package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/models"
)

// ActivityRepository persists logged activities. Every write bumps the owning student's
// activities_version in the same transaction so cached aggregations keyed by version go stale.
type ActivityRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Activity, error)
	ListByStudents(ctx context.Context, studentIDs []uint) ([]models.Activity, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id uint) (models.Activity, error)
	Count(ctx context.Context) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("occurred_on DESC, id DESC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) ListByStudents(ctx context.Context, studentIDs []uint) ([]models.Activity, error) {
	if len(studentIDs) == 0 {
		return []models.Activity{}, nil
	}
	var activities []models.Activity
	if err := r.db.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Order("student_id ASC, occurred_on ASC, id ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return err
		}
		return bumpVersion(tx, activity.StudentID)
	})
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous models.Activity
		if err := tx.First(&previous, activity.ID).Error; err != nil {
			return err
		}
		if err := tx.Save(activity).Error; err != nil {
			return err
		}
		if err := bumpVersion(tx, activity.StudentID); err != nil {
			return err
		}
		if previous.StudentID != activity.StudentID {
			return bumpVersion(tx, previous.StudentID)
		}
		return nil
	})
}

func (r *activityRepository) Delete(ctx context.Context, id uint) (models.Activity, error) {
	var deleted models.Activity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Activity{}, id).Error; err != nil {
			return err
		}
		return bumpVersion(tx, deleted.StudentID)
	})
	if err != nil {
		return models.Activity{}, err
	}
	return deleted, nil
}

func (r *activityRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Activity{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func bumpVersion(tx *gorm.DB, studentID uint) error {
	return tx.Model(&models.Student{}).
		Where("id = ?", studentID).
		UpdateColumn("activities_version", gorm.Expr("activities_version + 1")).Error
}
