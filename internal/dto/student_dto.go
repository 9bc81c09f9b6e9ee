package dto

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
)

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	ListID   *uint
	Search   string
	Status   string
}

// StudentCreateRequest captures enrolment payloads.
type StudentCreateRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	CPF       string `json:"cpf" validate:"required,min=11,max=14"`
	Course    string `json:"course" validate:"omitempty,max=255"`
	ClassName string `json:"class_name" validate:"omitempty,max=64"`
	ListID    uint   `json:"list_id" validate:"required,gt=0"`
}

// StudentUpdateRequest captures partial updates for students.
type StudentUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=255"`
	CPF       *string `json:"cpf" validate:"omitempty,min=11,max=14"`
	Course    *string `json:"course" validate:"omitempty,max=255"`
	ClassName *string `json:"class_name" validate:"omitempty,max=64"`
	ListID    *uint   `json:"list_id" validate:"omitempty,gt=0"`
}

// StudentResponse serializes a student with its cached totals.
type StudentResponse struct {
	ID         uint         `json:"id"`
	Name       string       `json:"name"`
	CPF        string       `json:"cpf"`
	Course     string       `json:"course"`
	ClassName  string       `json:"class_name"`
	ListID     uint         `json:"list_id"`
	ListTitle  string       `json:"list_title,omitempty"`
	TotalHours float64      `json:"total_hours"`
	Status     hours.Status `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// StudentListResponse wraps a paginated student response.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	resp := StudentResponse{
		ID:         student.ID,
		Name:       student.Name,
		CPF:        student.CPF,
		Course:     student.Course,
		ClassName:  student.ClassName,
		ListID:     student.ListID,
		TotalHours: student.TotalHours,
		Status:     student.Status,
		CreatedAt:  student.CreatedAt,
		UpdatedAt:  student.UpdatedAt,
	}
	if student.List != nil {
		resp.ListTitle = student.List.Title
	}
	if resp.Status == "" {
		resp.Status = hours.StatusInProgress
	}
	return resp
}

// StudentImportError reports a CSV row that was not imported.
type StudentImportError struct {
	Line   int    `json:"line"`
	CPF    string `json:"cpf,omitempty"`
	Reason string `json:"reason"`
}

// StudentImportResult summarises a CSV import.
type StudentImportResult struct {
	Created int                  `json:"created"`
	Skipped int                  `json:"skipped"`
	Errors  []StudentImportError `json:"errors"`
}
