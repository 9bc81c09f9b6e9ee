package dto

import (
	"time"

	"github.com/noah-isme/horas-api/internal/models"
)

// DocumentResponse describes the stored document returned to the client.
// The URL is what activities reference as document_ref.
type DocumentResponse struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	Checksum  string    `json:"checksum"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDocumentResponse converts a model into a DTO.
func NewDocumentResponse(doc models.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		URL:       doc.URL,
		SizeBytes: doc.SizeBytes,
		MimeType:  doc.MimeType,
		Checksum:  doc.Checksum,
		FileName:  doc.FileName,
		CreatedAt: doc.CreatedAt,
	}
}
