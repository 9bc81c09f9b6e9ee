package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/observability"
	"github.com/noah-isme/horas-api/internal/repository"
)

var reportExportHeaders = []string{"Nome do Estudante", "CPF", "Curso", "Turma", "Tipo de Atividade", "Horas", "Data", "Total de Horas"}

const reportDateLayout = "02/01/2006"

// ReportService builds per-list reports. Totals are always recomputed from the
// activity records against the current list rules.
type ReportService interface {
	Build(ctx context.Context, listID uint) (dto.ReportResponse, error)
	ExportCSV(ctx context.Context, listID uint, w io.Writer) (string, error)
}

type reportService struct {
	lists      repository.ActivityListRepository
	students   repository.StudentRepository
	activities repository.ActivityRepository
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(lists repository.ActivityListRepository, students repository.StudentRepository, activities repository.ActivityRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		lists:      lists,
		students:   students,
		activities: activities,
		logger:     logger.With().Str("component", "report_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/horas-api/internal/service/report"),
		now:        time.Now,
	}
}

func (s *reportService) Build(ctx context.Context, listID uint) (dto.ReportResponse, error) {
	report, err := s.build(ctx, listID)
	if err != nil {
		return dto.ReportResponse{}, err
	}
	observability.ReportGenerations().WithLabelValues("json").Inc()
	return report, nil
}

// ExportCSV writes one row per activity; the student's valid total only appears on
// their first row. Students without activities are omitted.
func (s *reportService) ExportCSV(ctx context.Context, listID uint, w io.Writer) (string, error) {
	report, err := s.build(ctx, listID)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0)
	for _, entry := range report.Students {
		for i, activity := range entry.Activities {
			total := ""
			if i == 0 {
				total = formatHours(entry.ValidTotalHours)
			}
			date := activity.OccurredOn
			if parsed, err := time.Parse(models.DateLayout, activity.OccurredOn); err == nil {
				date = parsed.Format(reportDateLayout)
			}
			rows = append(rows, []string{
				entry.Student.Name,
				entry.Student.CPF,
				entry.Student.Course,
				entry.Student.ClassName,
				activity.CategoryLabel,
				formatHours(activity.Hours),
				date,
				total,
			})
		}
	}

	if err := writeCSV(w, reportExportHeaders, rows); err != nil {
		return "", err
	}

	observability.ReportGenerations().WithLabelValues("csv").Inc()
	return exportFileName("relatorio_completo", report.List.Title, s.now()), nil
}

func (s *reportService) build(ctx context.Context, listID uint) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.build")
	defer span.End()
	span.SetAttributes(attribute.Int("list.id", int(listID)))

	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrListNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load list failed")
		return dto.ReportResponse{}, err
	}

	students, err := s.students.ListByList(ctx, listID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load students failed")
		return dto.ReportResponse{}, err
	}

	ids := make([]uint, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}

	activities, err := s.activities.ListByStudents(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load activities failed")
		return dto.ReportResponse{}, err
	}

	byStudent := make(map[uint][]models.Activity, len(students))
	for _, activity := range activities {
		byStudent[activity.StudentID] = append(byStudent[activity.StudentID], activity)
	}

	cfg := list.HoursConfig()
	report := dto.ReportResponse{
		List:        dto.NewActivityListResponse(list, int64(len(students))),
		Students:    make([]dto.ReportEntry, 0, len(students)),
		GeneratedAt: s.now().UTC(),
	}

	for _, student := range students {
		records := byStudent[student.ID]
		result, err := hours.Aggregate(models.HoursRecords(records), cfg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "aggregation failed")
			return dto.ReportResponse{}, err
		}

		studentResp := dto.NewStudentResponse(student)
		studentResp.ListTitle = list.Title
		studentResp.TotalHours = result.ValidTotalHours
		studentResp.Status = result.CompletionStatus

		if result.CompletionStatus == hours.StatusComplete {
			report.CompleteCount++
		}

		report.Students = append(report.Students, dto.ReportEntry{
			Student:          studentResp,
			Activities:       dto.NewActivityResponseSlice(records),
			Breakdown:        result.Breakdown(),
			ValidTotalHours:  result.ValidTotalHours,
			CompletionStatus: result.CompletionStatus,
		})
	}

	span.SetAttributes(
		attribute.Int("report.students", len(report.Students)),
		attribute.Int("report.activities", len(activities)),
	)
	s.logger.Debug().Uint("list_id", listID).Int("students", len(report.Students)).Msg("report built")

	return report, nil
}
