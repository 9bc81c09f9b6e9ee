package dto

import (
	"time"

	"github.com/noah-isme/horas-api/internal/models"
)

// ActivityListCreateRequest captures the hour rules for a new list.
type ActivityListCreateRequest struct {
	Title               string  `json:"title" validate:"required,min=3,max=255"`
	TotalHoursRequired  float64 `json:"total_hours_required" validate:"required,gte=0.01,lte=100000,hundredths"`
	MaxHoursPerCategory float64 `json:"max_hours_per_category" validate:"required,gte=0.01,lte=100000,hundredths"`
}

// ActivityListUpdateRequest patches list metadata or rules.
type ActivityListUpdateRequest struct {
	Title               *string  `json:"title" validate:"omitempty,min=3,max=255"`
	TotalHoursRequired  *float64 `json:"total_hours_required" validate:"omitempty,gte=0.01,lte=100000,hundredths"`
	MaxHoursPerCategory *float64 `json:"max_hours_per_category" validate:"omitempty,gte=0.01,lte=100000,hundredths"`
}

// ActivityListResponse serializes a list together with its enrolment count.
type ActivityListResponse struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	TotalHoursRequired  float64   `json:"total_hours_required"`
	MaxHoursPerCategory float64   `json:"max_hours_per_category"`
	StudentCount        int64     `json:"student_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewActivityListResponse converts a model into a DTO.
func NewActivityListResponse(list models.ActivityList, studentCount int64) ActivityListResponse {
	return ActivityListResponse{
		ID:                  list.ID,
		Title:               list.Title,
		TotalHoursRequired:  list.TotalHoursRequired,
		MaxHoursPerCategory: list.MaxHoursPerCategory,
		StudentCount:        studentCount,
		CreatedAt:           list.CreatedAt,
		UpdatedAt:           list.UpdatedAt,
	}
}
