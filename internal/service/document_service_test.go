package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/models"
)

type storageStub struct {
	uploaded bytes.Buffer
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.uploaded.Reset()
	_, err := s.uploaded.ReadFrom(reader)
	if err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

type documentRepoStub struct {
	record models.Document
}

func (d *documentRepoStub) Create(ctx context.Context, record *models.Document) error {
	record.ID = 7
	d.record = *record
	return nil
}

func TestDocumentServiceRejectsSize(t *testing.T) {
	svc := NewDocumentService(&storageStub{}, &documentRepoStub{}, 1, testLogger())

	file := buildFileHeader(t, "file.pdf", bytes.Repeat([]byte("a"), 2*1024*1024))

	_, err := svc.Upload(context.Background(), file, nil)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestDocumentServiceTypeValidation(t *testing.T) {
	svc := NewDocumentService(&storageStub{}, &documentRepoStub{}, 5, testLogger())

	file := buildFileHeader(t, "file.txt", []byte("plain text"))
	_, err := svc.Upload(context.Background(), file, nil)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	_, err = svc.Upload(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrUploadMissing)
}

func TestDocumentServiceStoresPDF(t *testing.T) {
	storage := &storageStub{}
	repo := &documentRepoStub{}
	svc := NewDocumentService(storage, repo, 5, testLogger())

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	userID := uint(3)
	resp, err := svc.Upload(context.Background(), buildFileHeader(t, "Certificado Semana.pdf", pdf), &userID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/certificado-semana.pdf", resp.URL)
	require.Equal(t, "application/pdf", resp.MimeType)
	require.Equal(t, uint(7), resp.ID)
	require.Len(t, resp.Checksum, 64)
	require.Equal(t, &userID, repo.record.UploadedBy)
	require.Equal(t, pdf, storage.uploaded.Bytes())
}

func TestDocumentServiceStoresPNG(t *testing.T) {
	repo := &documentRepoStub{}
	svc := NewDocumentService(&storageStub{}, repo, 5, testLogger())

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	resp, err := svc.Upload(context.Background(), buildFileHeader(t, "image.png", pngHeader), nil)
	require.NoError(t, err)
	require.Contains(t, resp.URL, "image")
	require.Equal(t, "image/png", repo.record.MimeType)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
