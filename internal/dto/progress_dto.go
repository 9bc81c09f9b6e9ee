package dto

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
)

// ProgressResponse describes a student's standing against their list.
type ProgressResponse struct {
	Student          StudentResponse       `json:"student"`
	List             ActivityListResponse  `json:"list"`
	Breakdown        []hours.CategoryTotal `json:"breakdown"`
	ValidTotalHours  float64               `json:"valid_total_hours"`
	CompletionStatus hours.Status          `json:"completion_status"`
	ProgressPercent  float64               `json:"progress_percent"`
	Version          uint                  `json:"version"`
	ComputedAt       time.Time             `json:"computed_at"`
}

// NewProgressResponse assembles the progress view from an aggregation result.
func NewProgressResponse(student models.Student, list models.ActivityList, result hours.Result, computedAt time.Time) ProgressResponse {
	studentResp := NewStudentResponse(student)
	studentResp.ListTitle = list.Title

	return ProgressResponse{
		Student:          studentResp,
		List:             NewActivityListResponse(list, 0),
		Breakdown:        result.WithAllCategories(),
		ValidTotalHours:  result.ValidTotalHours,
		CompletionStatus: result.CompletionStatus,
		ProgressPercent:  result.Progress(list.HoursConfig()),
		Version:          student.ActivitiesVersion,
		ComputedAt:       computedAt,
	}
}

// ReportEntry groups one student's activities and computed totals.
type ReportEntry struct {
	Student          StudentResponse       `json:"student"`
	Activities       []ActivityResponse    `json:"activities"`
	Breakdown        []hours.CategoryTotal `json:"breakdown"`
	ValidTotalHours  float64               `json:"valid_total_hours"`
	CompletionStatus hours.Status          `json:"completion_status"`
}

// ReportResponse is the per-list report consumed by the display layer.
type ReportResponse struct {
	List          ActivityListResponse `json:"list"`
	Students      []ReportEntry        `json:"students"`
	CompleteCount int                  `json:"complete_count"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// DashboardResponse summarises every list for the landing page.
type DashboardResponse struct {
	Lists            []ActivityListResponse `json:"lists"`
	TotalStudents    int64                  `json:"total_students"`
	CompleteStudents int64                  `json:"complete_students"`
	TotalActivities  int64                  `json:"total_activities"`
	GeneratedAt      time.Time              `json:"generated_at"`
}
