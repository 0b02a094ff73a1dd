package dto

import (
	"time"

	"github.com/noah-isme/academia-api/internal/models"
)

// ActivityListRequest is the input of the activityLog query. Since and Until
// accept RFC 3339 timestamps or YYYY-MM-DD dates.
type ActivityListRequest struct {
	PageRequest
	ActorID    uint   `json:"actorId"`
	Action     string `json:"action" validate:"max=64"`
	EntityType string `json:"entityType" validate:"max=64"`
	EntityID   uint   `json:"entityId"`
	Since      string `json:"since"`
	Until      string `json:"until"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID            uint                   `json:"id"`
	ActorID       uint                   `json:"actorId"`
	ActorRole     string                 `json:"actorRole"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entityType"`
	EntityID      *uint                  `json:"entityId,omitempty"`
	CorrelationID string                 `json:"correlationId,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// ActivityListResponse is a page of audit trail entries.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse maps a stored activity log entry.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		CorrelationID: entry.CorrelationID,
		Metadata:      map[string]interface{}(entry.Metadata),
		CreatedAt:     entry.CreatedAt,
	}
}
