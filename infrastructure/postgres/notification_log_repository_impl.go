package postgres

import (
	"context"

	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type NotificationLogRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationLogRepository(db *gorm.DB) repositories.NotificationLogRepository {
	return &NotificationLogRepositoryImpl{db: db}
}

func (r *NotificationLogRepositoryImpl) Create(ctx context.Context, log *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
