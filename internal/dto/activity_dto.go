package dto

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
)

// ActivityRequest is used for both creating and replacing an activity.
type ActivityRequest struct {
	Category    string  `json:"category" validate:"required,activity_category"`
	Hours       float64 `json:"hours" validate:"required,gte=0.01,lte=1000,hundredths"`
	OccurredOn  string  `json:"occurred_on" validate:"required,datetime=2006-01-02,not_future"`
	DocumentRef string  `json:"document_ref" validate:"omitempty,max=512"`
	Notes       string  `json:"notes" validate:"omitempty,max=2000"`
}

// ActivityFilter narrows a student's activity list.
type ActivityFilter struct {
	Category string
	// DatePrefix matches the start of the YYYY-MM-DD date, e.g. "2024-03".
	DatePrefix string
}

// ActivityResponse serializes a logged activity.
type ActivityResponse struct {
	ID              uint           `json:"id"`
	StudentID       uint           `json:"student_id"`
	Category        hours.Category `json:"category"`
	CategoryLabel   string         `json:"category_label"`
	Hours           float64        `json:"hours"`
	OccurredOn      string         `json:"occurred_on"`
	RecordedBy      string         `json:"recorded_by"`
	DocumentRef     string         `json:"document_ref"`
	DocumentMissing bool           `json:"document_missing"`
	Notes           string         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:              activity.ID,
		StudentID:       activity.StudentID,
		Category:        activity.Category,
		CategoryLabel:   activity.Category.Label(),
		Hours:           activity.Hours,
		OccurredOn:      activity.OccurredOn.Format(models.DateLayout),
		RecordedBy:      activity.RecordedBy,
		DocumentRef:     activity.DocumentRef,
		DocumentMissing: activity.DocumentRef == "",
		Notes:           activity.Notes,
		CreatedAt:       activity.CreatedAt,
		UpdatedAt:       activity.UpdatedAt,
	}
}

// NewActivityResponseSlice converts a slice of activities.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, NewActivityResponse(activity))
	}
	return out
}
