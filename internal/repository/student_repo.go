package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
)

// StudentFilter describes pagination & search options for students.
type StudentFilter struct {
	ListID   *uint
	Search   string
	Status   string
	Page     int
	PageSize int
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	ListByList(ctx context.Context, listID uint) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	UpdateProgress(ctx context.Context, id uint, totalHours float64, status hours.Status) error
	CountByStatus(ctx context.Context) (map[hours.Status]int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.ListID != nil {
		query = query.Where("list_id = ?", *filter.ListID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR cpf LIKE ?", like, like)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query.Order("name ASC, id ASC"), filter.Page, filter.PageSize).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) ListByList(ctx context.Context, listID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Order("name ASC, id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return translateError(r.db.WithContext(ctx).Create(student).Error)
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return translateError(r.db.WithContext(ctx).Model(student).Select("name", "cpf", "course", "class_name", "list_id").Updates(student).Error)
}

// Delete removes the student together with every logged activity.
func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Student{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *studentRepository) UpdateProgress(ctx context.Context, id uint, totalHours float64, status hours.Status) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"total_hours": totalHours, "status": status})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) CountByStatus(ctx context.Context) (map[hours.Status]int64, error) {
	var rows []struct {
		Status hours.Status
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[hours.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
