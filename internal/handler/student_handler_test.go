package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/handler"
	"github.com/noah-isme/horas-api/internal/service"
)

type stubStudentService struct {
	lastList    dto.StudentListRequest
	lastImport  string
	lastListID  uint
	exportList  *uint
	createCalls int
	err         error
}

func (s *stubStudentService) List(_ context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	s.lastList = req
	if s.err != nil {
		return dto.StudentListResponse{}, s.err
	}
	return dto.StudentListResponse{
		Items:      []dto.StudentResponse{{ID: 1, Name: "Ana Paula Costa"}},
		Pagination: dto.NewPaginationMeta(1, 20, 1),
	}, nil
}

func (s *stubStudentService) Get(_ context.Context, id uint) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: id}, s.err
}

func (s *stubStudentService) Create(_ context.Context, _ service.Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	s.createCalls++
	if s.err != nil {
		return dto.StudentResponse{}, s.err
	}
	return dto.StudentResponse{ID: 2, Name: req.Name, CPF: req.CPF}, nil
}

func (s *stubStudentService) Update(_ context.Context, _ service.Actor, id uint, _ dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: id}, s.err
}

func (s *stubStudentService) Delete(context.Context, service.Actor, uint) error {
	return s.err
}

func (s *stubStudentService) Import(_ context.Context, _ service.Actor, listID uint, file io.Reader) (dto.StudentImportResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return dto.StudentImportResult{}, err
	}
	s.lastImport = string(data)
	s.lastListID = listID
	return dto.StudentImportResult{Created: 1}, s.err
}

func (s *stubStudentService) Export(_ context.Context, listID *uint, w io.Writer) (string, error) {
	s.exportList = listID
	_, err := io.WriteString(w, "\ufeffNome,CPF\n")
	return "relatorio_engenharia_20240610.csv", err
}

func (s *stubStudentService) Template(w io.Writer) error {
	_, err := io.WriteString(w, "\ufeffname,cpf,course,class\n")
	return err
}

func newStudentApp(svc service.StudentService, role string) *fiber.App {
	app := fiber.New()
	handler.NewStudentHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/students", asUser(1, role, "Prof. Marina")))
	return app
}

func TestStudentHandlerListPassesFiltersAndMeta(t *testing.T) {
	svc := &stubStudentService{}
	app := newStudentApp(svc, "monitor")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/students?list_id=4&search=ana&status=complete&page=2&page_size=10", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var meta dto.PaginationMeta
	require.NoError(t, json.Unmarshal(body.Meta, &meta))
	require.Equal(t, int64(1), meta.TotalItems)

	require.NotNil(t, svc.lastList.ListID)
	require.Equal(t, uint(4), *svc.lastList.ListID)
	require.Equal(t, "ana", svc.lastList.Search)
	require.Equal(t, "complete", svc.lastList.Status)
	require.Equal(t, 2, svc.lastList.Page)
	require.Equal(t, 10, svc.lastList.PageSize)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/students?list_id=x", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandlerWritesRequireCoordinator(t *testing.T) {
	svc := &stubStudentService{}

	resp := postJSON(t, newStudentApp(svc, "monitor"), http.MethodPost, "/api/v1/students", dto.StudentCreateRequest{Name: "Ana"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Zero(t, svc.createCalls)

	resp = postJSON(t, newStudentApp(svc, "coordinator"), http.MethodPost, "/api/v1/students", dto.StudentCreateRequest{Name: "Ana", CPF: "123.456.789-01"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, 1, svc.createCalls)
}

func TestStudentHandlerDuplicateCPFConflict(t *testing.T) {
	svc := &stubStudentService{err: service.ErrDuplicateCPF}
	resp := postJSON(t, newStudentApp(svc, "coordinator"), http.MethodPost, "/api/v1/students", dto.StudentCreateRequest{Name: "Ana"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestStudentHandlerImport(t *testing.T) {
	svc := &stubStudentService{}
	app := newStudentApp(svc, "coordinator")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "alunos.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,cpf\nAna,123\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/import?list_id=7", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastListID)
	require.Equal(t, "name,cpf\nAna,123\n", svc.lastImport)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/students/import", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandlerExportAndTemplate(t *testing.T) {
	svc := &stubStudentService{}
	app := newStudentApp(svc, "monitor")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/students/export?list_id=3", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Equal(t, `attachment; filename="relatorio_engenharia_20240610.csv"`, resp.Header.Get("Content-Disposition"))
	require.Equal(t, uint(3), *svc.exportList)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "\ufeffNome,CPF\n", string(payload))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/students/import/template", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "modelo_importacao_estudantes.csv")
}
