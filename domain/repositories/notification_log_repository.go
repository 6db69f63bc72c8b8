package repositories

import (
	"context"

	"drivesync/domain/models"
)

type NotificationLogRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
}
