package handlers

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"drivesync/domain/repositories"
	"drivesync/domain/services"
)

// Services bundles every domain component an HTTP handler reaches into.
// Built once at startup by the DI container.
type Services struct {
	SyncEngine          services.SyncEngine
	Dispatcher          services.Dispatcher
	NotificationRouter  services.NotificationRouter
	SearchIndexLoader   services.SearchIndexLoader
	AutoUpdateScheduler services.AutoUpdateScheduler
	WatchStateStore     services.WatchStateStore
	DriveAdapter        services.DriveAdapter
	Provider            services.Provider
	Translator          services.Translator

	TenantRepository           repositories.TenantRepository
	VectorizationRunRepository repositories.VectorizationRunRepository

	DB          *gorm.DB
	RedisClient *redis.Client
}

// Handlers aggregates one struct per HTTP resource, the way the teacher's
// Handlers aggregator wires DriveHandler/FaceHandler/etc.
type Handlers struct {
	Vectorize    *VectorizeHandler
	Search       *SearchHandler
	DriveWatch   *DriveWatchHandler
	Notification *NotificationHandler
	Scheduler    *SchedulerHandler
	Health       *HealthHandler
}

func NewHandlers(s *Services) *Handlers {
	return &Handlers{
		Vectorize:    NewVectorizeHandler(s.Dispatcher, s.TenantRepository, s.VectorizationRunRepository),
		Search:       NewSearchHandler(s.SearchIndexLoader, s.Provider, s.Translator),
		DriveWatch:   NewDriveWatchHandler(s.DriveAdapter, s.WatchStateStore),
		Notification: NewNotificationHandler(s.NotificationRouter),
		Scheduler:    NewSchedulerHandler(s.AutoUpdateScheduler),
		Health:       NewHealthHandler(s.DB, s.RedisClient, s.Provider),
	}
}
