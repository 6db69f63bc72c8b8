package services

import "context"

// CompanyState is the per-tenant record in the Watch State Store (§3).
type CompanyState struct {
	UUID             string `json:"uuid"`
	DriveURL         string `json:"drive_url"`
	FolderID         string `json:"folder_id"`
	DriveID          string `json:"drive_id,omitempty"` // empty means "My Drive"
	UseEmbedV4       bool   `json:"use_embed_v4"`
	LastJobTriggerTS int64  `json:"last_job_trigger_ts"` // unix seconds, 0 if never
	CompanyName      string `json:"company_name,omitempty"`
	CallbackURL      string `json:"callback_url,omitempty"`
}

// DriveChannelState is the per-physical-drive record in the Watch State
// Store (§3). driveKey is "root" for "My Drive", else the shared drive id.
type DriveChannelState struct {
	DriveKey   string `json:"drive_key"`
	ChannelID  string `json:"channel_id"`
	ResourceID string `json:"resource_id"`
	Expiration int64  `json:"expiration"`
	PageToken  string `json:"page_token"`
}

// WatchStateStore is the Watch State Store (C7): a namespaced key-value
// view over the Blob Store. The two schemas that share the namespace are
// told apart by key shape (drive-channel-<key>.json vs <uuid>.json); the
// persisted JSON carries no is_drive_channel flag.
type WatchStateStore interface {
	SaveCompanyState(ctx context.Context, s CompanyState) error
	LoadCompanyState(ctx context.Context, uuid string) (*CompanyState, error)
	DeleteCompanyState(ctx context.Context, uuid string) error
	ListCompanyStates(ctx context.Context) ([]CompanyState, error)
	// CompaniesByDrive returns every CompanyState whose DriveID matches
	// driveKey ("root" meaning "My Drive").
	CompaniesByDrive(ctx context.Context, driveKey string) ([]CompanyState, error)

	SaveDriveChannelState(ctx context.Context, s DriveChannelState) error
	LoadDriveChannelState(ctx context.Context, driveKey string) (*DriveChannelState, error)
	DeleteDriveChannelState(ctx context.Context, driveKey string) error
	// FindDriveStateByChannelID performs the linear scan §4.6 names.
	FindDriveStateByChannelID(ctx context.Context, channelID string) (*DriveChannelState, error)
}
