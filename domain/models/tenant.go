package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the tenant's current synchronization state.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

// Tenant is the operational bookkeeping record for a UUID-scoped corpus.
//
// This table never holds the corpus itself — the Blob Store artifact remains
// the source of truth (see the Ownership rule in the data model). Tenant
// exists so the HTTP surface and operators can answer "what's this tenant's
// last known sync state" without reading GCS on every request.
type Tenant struct {
	ID              uuid.UUID  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DriveFolderURL  string     `gorm:"not null" json:"drive_folder_url"`
	DriveFolderID   string     `gorm:"index" json:"drive_folder_id"`
	DriveFolderPath string     `json:"drive_folder_path"`
	DriveID         *string    `json:"drive_id,omitempty"` // physical shared drive id, nil for "My Drive"
	CompanyName     string     `json:"company_name,omitempty"`
	UseEmbedV4      bool       `gorm:"default:false" json:"use_embed_v4"`
	AutoUpdate      bool       `gorm:"default:false;index" json:"auto_update"`

	SyncStatus   SyncStatus `gorm:"default:'idle';index" json:"sync_status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}
