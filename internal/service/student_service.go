package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
)

var (
	// ErrDuplicateCPF indicates another student already uses the CPF.
	ErrDuplicateCPF = errors.New("a student with this cpf already exists")
	// ErrInvalidImport indicates the uploaded CSV could not be used at all.
	ErrInvalidImport = errors.New("invalid student csv")
	// ErrInvalidStatusFilter indicates an unknown status was requested.
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)

var (
	studentExportHeaders = []string{"Nome", "CPF", "Curso", "Turma", "Horas Totais", "Status"}
	studentImportHeaders = []string{"Nome", "CPF", "Curso", "Turma"}
	studentTemplateRows  = [][]string{
		{"João da Silva", "123.456.789-00", "Engenharia Civil", "2024.1"},
		{"Maria Santos", "234.567.890-11", "Engenharia Mecânica", "2024.1"},
		{"Pedro Oliveira", "345.678.901-22", "Engenharia Elétrica", "2024.2"},
	}
	// header aliases accepted on import, keyed by lower-cased column name
	importColumns = map[string]string{
		"nome":   "name",
		"name":   "name",
		"cpf":    "cpf",
		"curso":  "course",
		"course": "course",
		"turma":  "class",
		"class":  "class",
	}
)

// StudentService manages enrolments and their CSV import/export.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Import(ctx context.Context, actor Actor, listID uint, file io.Reader) (dto.StudentImportResult, error)
	Export(ctx context.Context, listID *uint, w io.Writer) (string, error)
	Template(w io.Writer) error
}

type studentService struct {
	students  repository.StudentRepository
	lists     repository.ActivityListRepository
	progress  ProgressService
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, lists repository.ActivityListRepository, progress ProgressService, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  students,
		lists:     lists,
		progress:  progress,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && hours.Status(status) != hours.StatusComplete && hours.Status(status) != hours.StatusInProgress {
		return dto.StudentListResponse{}, ErrInvalidStatusFilter
	}

	students, total, err := s.students.List(ctx, repository.StudentFilter{
		ListID:   req.ListID,
		Search:   req.Search,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}

	return dto.StudentListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	list, err := s.findList(ctx, req.ListID)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:      strings.TrimSpace(req.Name),
		CPF:       strings.TrimSpace(req.CPF),
		Course:    strings.TrimSpace(req.Course),
		ClassName: strings.TrimSpace(req.ClassName),
		ListID:    list.ID,
		Status:    hours.StatusInProgress,
	}
	if err := s.students.Create(ctx, &student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.StudentResponse{}, ErrDuplicateCPF
		}
		return dto.StudentResponse{}, err
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "student", student.ID, map[string]interface{}{
		"name":    student.Name,
		"list_id": student.ListID,
	})

	student.List = &list
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.find(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
		changes["name"] = student.Name
	}
	if req.CPF != nil {
		student.CPF = strings.TrimSpace(*req.CPF)
		changes["cpf"] = student.CPF
	}
	if req.Course != nil {
		student.Course = strings.TrimSpace(*req.Course)
		changes["course"] = student.Course
	}
	if req.ClassName != nil {
		student.ClassName = strings.TrimSpace(*req.ClassName)
		changes["class_name"] = student.ClassName
	}

	listChanged := false
	if req.ListID != nil && *req.ListID != student.ListID {
		if _, err := s.findList(ctx, *req.ListID); err != nil {
			return dto.StudentResponse{}, err
		}
		student.ListID = *req.ListID
		changes["list_id"] = student.ListID
		listChanged = true
	}

	student.List = nil
	if err := s.students.Update(ctx, &student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.StudentResponse{}, ErrDuplicateCPF
		}
		return dto.StudentResponse{}, err
	}

	if listChanged && s.progress != nil {
		if _, err := s.progress.Refresh(ctx, student.ID); err != nil {
			return dto.StudentResponse{}, err
		}
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "student", student.ID, changes)

	return s.Get(ctx, student.ID)
}

func (s *studentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "student", id, nil)
	return nil
}

// Import reads a header-indexed CSV (Nome,CPF,Curso,Turma or name,cpf,course,class) and
// enrols every valid row into the list. Rows without name or CPF and duplicate CPFs are
// skipped and reported; they never abort the import.
func (s *studentService) Import(ctx context.Context, actor Actor, listID uint, file io.Reader) (dto.StudentImportResult, error) {
	list, err := s.findList(ctx, listID)
	if err != nil {
		return dto.StudentImportResult{}, err
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dto.StudentImportResult{}, fmt.Errorf("%w: file is empty", ErrInvalidImport)
		}
		return dto.StudentImportResult{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	index := map[string]int{}
	for i, column := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(column, utf8BOM)))
		if field, ok := importColumns[name]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	for _, required := range []string{"name", "cpf", "course", "class"} {
		if _, ok := index[required]; !ok {
			return dto.StudentImportResult{}, fmt.Errorf("%w: csv must contain the columns %s", ErrInvalidImport, strings.Join(studentImportHeaders, ", "))
		}
	}

	result := dto.StudentImportResult{Errors: []dto.StudentImportError{}}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, dto.StudentImportError{Line: line, Reason: err.Error()})
			continue
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if isBlankRecord(record) {
			continue
		}

		req := dto.StudentCreateRequest{
			Name:      field("name"),
			CPF:       field("cpf"),
			Course:    field("course"),
			ClassName: field("class"),
			ListID:    list.ID,
		}
		if err := s.validator.Struct(req); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, dto.StudentImportError{Line: line, CPF: req.CPF, Reason: "missing or invalid name or cpf"})
			continue
		}

		student := models.Student{
			Name:      req.Name,
			CPF:       req.CPF,
			Course:    req.Course,
			ClassName: req.ClassName,
			ListID:    list.ID,
			Status:    hours.StatusInProgress,
		}
		if err := s.students.Create(ctx, &student); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				result.Skipped++
				result.Errors = append(result.Errors, dto.StudentImportError{Line: line, CPF: req.CPF, Reason: ErrDuplicateCPF.Error()})
				continue
			}
			return result, err
		}
		result.Created++
	}

	if result.Created == 0 && result.Skipped == 0 {
		return result, fmt.Errorf("%w: no students found in file", ErrInvalidImport)
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionImport, "activity_list", list.ID, map[string]interface{}{
		"created": result.Created,
		"skipped": result.Skipped,
	})

	s.logger.Info().Uint("list_id", list.ID).Int("created", result.Created).Int("skipped", result.Skipped).Msg("students imported")
	return result, nil
}

// Export writes the students of a list (or all students) and returns the suggested file name.
func (s *studentService) Export(ctx context.Context, listID *uint, w io.Writer) (string, error) {
	title := "estudantes"
	if listID != nil {
		list, err := s.findList(ctx, *listID)
		if err != nil {
			return "", err
		}
		title = list.Title
	}

	students, _, err := s.students.List(ctx, repository.StudentFilter{ListID: listID})
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(students))
	for _, student := range students {
		total, status, err := s.standing(ctx, student)
		if err != nil {
			return "", fmt.Errorf("compute progress for student %d: %w", student.ID, err)
		}
		rows = append(rows, []string{
			student.Name,
			student.CPF,
			student.Course,
			student.ClassName,
			formatHours(total),
			status.Label(),
		})
	}

	if err := writeCSV(w, studentExportHeaders, rows); err != nil {
		return "", err
	}

	return exportFileName("relatorio", title, s.now()), nil
}

// standing aggregates the student's records instead of trusting the cached row columns.
func (s *studentService) standing(ctx context.Context, student models.Student) (float64, hours.Status, error) {
	if s.progress == nil {
		return student.TotalHours, student.Status, nil
	}
	view, err := s.progress.Get(ctx, student.ID)
	if err != nil {
		return 0, "", err
	}
	return view.ValidTotalHours, view.CompletionStatus, nil
}

func (s *studentService) Template(w io.Writer) error {
	return writeCSV(w, studentImportHeaders, studentTemplateRows)
}

func (s *studentService) find(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	if list, err := s.lists.GetByID(ctx, student.ListID); err == nil {
		student.List = &list
	}
	return student, nil
}

func (s *studentService) findList(ctx context.Context, id uint) (models.ActivityList, error) {
	list, err := s.lists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityList{}, ErrListNotFound
		}
		return models.ActivityList{}, err
	}
	return list, nil
}

func isBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
