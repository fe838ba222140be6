package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is the common base struct for all domain models.
// Primary keys are UUID strings generated application-side; created_at
// defaults at the storage layer so bulk map-based inserts never have to
// fabricate it.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// GetID returns the primary key. Satisfies the identity accessor the
// generic repository uses to reorder bulk-created rows.
func (m *BaseModel) GetID() string {
	return m.ID
}

// BeforeCreate assigns a UUID primary key when none was supplied.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AuditedModel extends BaseModel with actor audit columns. The columns are
// nullable: a mutation that carries no actor identity leaves them untouched,
// never silently defaulted.
type AuditedModel struct {
	BaseModel
	CreatedBy *string `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *string `gorm:"type:uuid" json:"updated_by,omitempty"`
}
