package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActorTypeSystem = "system"
	ActorTypeUser   = "user"
)

// AuditLog is an append-only record of a document change.
type AuditLog struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType     string            `gorm:"type:text;not null" json:"actor_type"`
	ActorID       *string           `gorm:"type:text" json:"actor_id,omitempty"`
	Action        string            `gorm:"type:text;not null;index" json:"action"`
	TargetType    string            `gorm:"type:text;not null;index:idx_audit_target" json:"target_type"`
	TargetID      *string           `gorm:"type:text;index:idx_audit_target" json:"target_id,omitempty"`
	RequestID     *string           `gorm:"type:text" json:"request_id,omitempty"`
	CorrelationID *string           `gorm:"type:text" json:"correlation_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	AfterID    snowflake.ID
	Limit      int
}
