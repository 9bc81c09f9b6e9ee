package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/observability"
	"github.com/noah-isme/horas-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed, use PDF, JPG, PNG or DOC/DOCX")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadMissing indicates no file was attached.
	ErrUploadMissing = errors.New("file is required")
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// DocumentService validates and stores supporting documents for activities.
type DocumentService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.DocumentResponse, error)
}

type documentService struct {
	storage FileStorage
	repo    repository.DocumentRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewDocumentService constructs a document service.
func NewDocumentService(storage FileStorage, repo repository.DocumentRepository, maxSizeMB int, logger zerolog.Logger) DocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &documentService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "document_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/horas-api/internal/service/document"),
	}
}

func (s *documentService) Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.DocumentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "document.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return dto.DocumentResponse{}, ErrUploadMissing
	}

	if file.Size > s.maxSize {
		return dto.DocumentResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.DocumentResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.DocumentResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.DocumentResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	fileType := normalizeMime(mimetype.Detect(buf.Bytes()))
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !isAllowedType(fileType) {
		return dto.DocumentResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		return dto.DocumentResponse{}, s.reject(span, "scan", err)
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename)
	span.SetAttributes(
		attribute.String("upload.sanitized_name", sanitizedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Upload(ctx, sanitizedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.DocumentResponse{}, err
	}

	record := models.Document{
		UploadedBy: userID,
		FileName:   sanitizedName,
		URL:        url,
		MimeType:   fileType,
		SizeBytes:  int64(buf.Len()),
		Checksum:   hex.EncodeToString(checksum[:]),
	}
	if userID != nil {
		span.SetAttributes(attribute.Int("upload.user_id", int(*userID)))
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.DocumentResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(fileType).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Uint("document_id", record.ID).Str("mime", fileType).Int64("size_bytes", record.SizeBytes).Msg("document stored")

	return dto.NewDocumentResponse(record), nil
}

func (s *documentService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "rejected: "+reason)
	return err
}

// scan guards against zip bombs hidden in DOCX containers.
func (s *documentService) scan(payload []byte, mime string) error {
	if mime != mimeDOCX {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("docx uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("documento-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

// normalizeMime walks up the detection tree so e.g. a DOCX is not reported as a plain zip.
func normalizeMime(detected *mimetype.MIME) string {
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range []string{mimePDF, mimePNG, mimeJPEG, mimeDOC, mimeDOCX} {
			if m.Is(allowed) {
				return allowed
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(detected.String()))
}

func isAllowedType(m string) bool {
	switch m {
	case mimePDF, mimePNG, mimeJPEG, mimeDOC, mimeDOCX:
		return true
	default:
		return false
	}
}
