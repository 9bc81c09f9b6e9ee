package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/horas-api/internal/models"
)

// AuditListRequest defines filters for retrieving audit entries.
type AuditListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AuditResponse serializes an audit entry.
type AuditResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditListResponse wraps paginated audit entries.
type AuditListResponse struct {
	Items      []AuditResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewAuditResponse converts a model into an audit DTO.
func NewAuditResponse(entry models.ActivityLog) AuditResponse {
	return AuditResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}
