package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLog is an audit trail of Notification Router invocations.
// Adapted from the teacher's DriveWebhookLog. Write-only: the router never
// reads this table back to make a routing decision (see §3.1).
type NotificationLog struct {
	ID uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	ChannelID     string `gorm:"index" json:"channel_id"`
	ResourceState string `json:"resource_state"`

	Handled       bool `json:"handled"`
	ChangesFound  int  `json:"changes_found"`
	JobsTriggered int  `json:"jobs_triggered"`

	Status string `json:"status,omitempty"` // e.g. "sync", "no_companies", "filtered_changed_type"

	CreatedAt time.Time `json:"created_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
