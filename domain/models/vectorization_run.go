package models

import (
	"time"

	"github.com/google/uuid"
)

type RunMode string

const (
	RunModeSingle RunMode = "single"
	RunModeBatch  RunMode = "batch"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// VectorizationRun records one Job Dispatcher invocation and its outcome.
// Adapted from the teacher's SyncJob; the status machine is unchanged.
type VectorizationRun struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	Mode   RunMode   `gorm:"not null;index" json:"mode"`
	Status RunStatus `gorm:"default:'pending';index" json:"status"`

	ExecutionHandle string `json:"execution_handle,omitempty"` // opaque id returned by the Dispatcher

	TotalFiles     int `gorm:"default:0" json:"total_files"`
	ProcessedFiles int `gorm:"default:0" json:"processed_files"`
	FailedFiles    int `gorm:"default:0" json:"failed_files"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VectorizationRun) TableName() string {
	return "vectorization_runs"
}
