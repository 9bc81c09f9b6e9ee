package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/hours"
)

func newReportService(f *fixture) *reportService {
	svc := NewReportService(f.lists, f.students, f.activities, testLogger()).(*reportService)
	svc.now = f.clock
	return svc
}

func TestReportServiceBuildRecomputesFromRecords(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f)
	list := f.seedList(t, 150, 50)
	ana := f.seedStudent(t, list.ID, "Ana Paula Costa", "123.456.789-01")
	carlos := f.seedStudent(t, list.ID, "Carlos Eduardo Silva", "234.567.890-12")
	f.seedStudent(t, list.ID, "Daniel Oliveira", "456.789.012-34")

	f.seedActivity(t, ana.ID, "events", 32, "2024-03-01")
	f.seedActivity(t, ana.ID, "research", 20, "2024-03-02")
	f.seedActivity(t, carlos.ID, "events", 50, "2024-02-01")
	f.seedActivity(t, carlos.ID, "research", 40, "2024-02-02")
	f.seedActivity(t, carlos.ID, "extension", 30, "2024-02-03")
	f.seedActivity(t, carlos.ID, "monitoring", 30, "2024-02-04")

	report, err := svc.Build(context.Background(), list.ID)
	require.NoError(t, err)
	require.Len(t, report.Students, 3)
	require.Equal(t, int64(3), report.List.StudentCount)
	require.Equal(t, 1, report.CompleteCount)
	require.True(t, report.GeneratedAt.Equal(f.today))

	require.Equal(t, "Ana Paula Costa", report.Students[0].Student.Name)
	require.Equal(t, 52.0, report.Students[0].ValidTotalHours)
	require.Len(t, report.Students[0].Breakdown, 2)

	require.Equal(t, 150.0, report.Students[1].ValidTotalHours)
	require.Equal(t, hours.StatusComplete, report.Students[1].CompletionStatus)
	require.Equal(t, hours.StatusComplete, report.Students[1].Student.Status)

	require.Empty(t, report.Students[2].Activities)

	_, err = svc.Build(context.Background(), 999)
	require.ErrorIs(t, err, ErrListNotFound)
}

func TestReportServiceExportCSV(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f)
	list := f.seedList(t, 150, 50)
	ana := f.seedStudent(t, list.ID, "Ana Paula Costa", "123.456.789-01")
	f.seedStudent(t, list.ID, "Beatriz Santos", "345.678.901-23")
	f.seedActivity(t, ana.ID, "events", 60, "2024-03-01")
	f.seedActivity(t, ana.ID, "courses", 12.5, "2024-03-15")

	var buf bytes.Buffer
	name, err := svc.ExportCSV(context.Background(), list.ID, &buf)
	require.NoError(t, err)
	require.Equal(t, "relatorio_completo_engenharia_civil_2024_1_20240610.csv", name)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "\ufeffNome do Estudante,CPF,Curso,Turma,Tipo de Atividade,Horas,Data,Total de Horas", lines[0])
	require.Equal(t, "Ana Paula Costa,123.456.789-01,Engenharia Civil,2024.1,Eventos,60,01/03/2024,62.5", lines[1])
	require.Equal(t, "Ana Paula Costa,123.456.789-01,Engenharia Civil,2024.1,Cursos,12.5,15/03/2024,", lines[2])
}
