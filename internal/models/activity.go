package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one audit trail entry: who changed which record, and how.
// Metadata never holds credentials; the service masks them before saving.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       uint              `gorm:"not null;index" json:"actorId"`
	ActorRole     string            `gorm:"size:32;not null" json:"actorRole"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null;index:idx_activity_entity" json:"entityType"`
	EntityID      *uint             `gorm:"index:idx_activity_entity" json:"entityId"`
	CorrelationID string            `gorm:"size:128" json:"correlationId"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`
}
