package di

import (
	"context"
	"log"

	run "cloud.google.com/go/run/apiv2"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"drivesync/application/serviceimpl"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/infrastructure/blobstore"
	"drivesync/infrastructure/dispatcher"
	"drivesync/infrastructure/embedding"
	"drivesync/infrastructure/googledrive"
	"drivesync/infrastructure/manifest"
	"drivesync/infrastructure/normalizer"
	"drivesync/infrastructure/postgres"
	"drivesync/infrastructure/rediscache"
	"drivesync/infrastructure/watchstate"
	"drivesync/interfaces/api/handlers"
	"drivesync/pkg/config"
	"drivesync/pkg/scheduler"
)

// Container wires every component named in the system design: the Blob
// Store, Drive Adapter, Embedding Provider, Image Normalizer, Sync Engine,
// Job Dispatcher, Watch State Store, Notification Router, Search Index,
// Scheduler, and Tenant Registry, plus the Postgres bookkeeping layer.
type Container struct {
	Config *config.Config

	DB          *gorm.DB
	RedisClient *redis.Client

	BlobStore        services.BlobStore
	DriveAdapter     services.DriveAdapter
	EmbeddingProvider services.Provider
	Normalizer       services.Normalizer
	Dispatcher       services.Dispatcher
	WatchStateStore  services.WatchStateStore
	ManifestStore    services.ManifestStore
	DescendantCache  *rediscache.DescendantCache
	Translator       services.Translator

	SyncEngine          services.SyncEngine
	NotificationRouter  services.NotificationRouter
	SearchIndexLoader   services.SearchIndexLoader
	AutoUpdateScheduler services.AutoUpdateScheduler
	TenantRegistry      services.TenantRegistry

	TenantRepository           repositories.TenantRepository
	VectorizationRunRepository repositories.VectorizationRunRepository
	NotificationLogRepository  repositories.NotificationLogRepository

	EventScheduler scheduler.EventScheduler
}

func NewContainer() *Container {
	return &Container{}
}

// Initialize wires config, infrastructure, repositories, and domain
// components, then starts the in-process scheduler. Use this from the API
// server. One-shot binaries (the worker) should call InitializeWithoutScheduler
// instead — a Cloud Run Job invocation has no business also running the
// hourly sweep timer inside its own short-lived container.
func (c *Container) Initialize() error {
	if err := c.InitializeWithoutScheduler(); err != nil {
		return err
	}
	return c.initScheduler()
}

// InitializeWithoutScheduler wires everything Initialize does except the
// periodic sweep timer.
func (c *Container) InitializeWithoutScheduler() error {
	if err := c.initConfig(); err != nil {
		return err
	}
	if err := c.initInfrastructure(); err != nil {
		return err
	}
	if err := c.initRepositories(); err != nil {
		return err
	}
	if err := c.initDomainComponents(); err != nil {
		return err
	}
	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	log.Println("✓ Configuration loaded")
	return nil
}

func (c *Container) initInfrastructure() error {
	ctx := context.Background()

	db, err := postgres.NewDatabase(postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	c.DB = db
	log.Println("✓ Database connected")

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	log.Println("✓ Database migrated")

	c.RedisClient = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Host + ":" + c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err := c.RedisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
	} else {
		log.Println("✓ Redis connected")
	}
	c.DescendantCache = rediscache.New(c.RedisClient, 0)

	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}
	c.BlobStore = blobstore.NewGCSStore(gcsClient)
	log.Println("✓ Blob Store initialized")

	tokenSource := oauth2.StaticTokenSource(nil)
	if c.Config.Drive.RefreshToken != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     c.Config.Drive.ClientID,
			ClientSecret: c.Config.Drive.ClientSecret,
			Endpoint:     google.Endpoint,
		}
		tokenSource = oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.Config.Drive.RefreshToken})
	}
	driveAdapter, err := googledrive.NewAdapter(ctx, tokenSource, c.Config.Drive.CallbackURL)
	if err != nil {
		log.Printf("Warning: Drive Adapter not configured: %v", err)
	} else {
		c.DriveAdapter = driveAdapter
		log.Println("✓ Drive Adapter initialized")
	}

	provider, err := embedding.New(ctx, embedding.Config{
		Backend:         c.Config.Embedding.Provider,
		VertexProject:   c.Config.Embedding.VertexProject,
		VertexLocation:  c.Config.Embedding.VertexLocation,
		VertexTextModel: c.Config.Embedding.VertexTextModel,
		VertexMMModel:   c.Config.Embedding.VertexMultimodalModel,
		CohereBaseURL:   c.Config.Embedding.CohereBaseURL,
		CohereAPIKey:    c.Config.Embedding.CohereAPIKey,
		CohereTextModel: c.Config.Embedding.CohereTextModel,
		CohereImgModel:  c.Config.Embedding.CohereImageModel,
	})
	if err != nil {
		log.Printf("Warning: Embedding Provider not configured: %v", err)
	} else {
		c.EmbeddingProvider = provider
		log.Println("✓ Embedding Provider initialized")
	}

	c.Normalizer = normalizer.New(c.Config.Normalize.MaxPixels)
	log.Println("✓ Image Normalizer initialized")

	runClient, err := run.NewJobsClient(ctx)
	if err != nil {
		log.Printf("Warning: Cloud Run Job Dispatcher not configured: %v", err)
	} else {
		c.Dispatcher = dispatcher.NewCloudRunDispatcher(runClient, c.Config.CloudRun.Project, c.Config.CloudRun.Region, c.Config.CloudRun.JobName)
		log.Println("✓ Job Dispatcher initialized")
	}

	c.WatchStateStore = watchstate.New(c.BlobStore, c.Config.Storage.ArtifactBucket, c.Config.Storage.WatchPrefix)
	c.ManifestStore = manifest.New(c.BlobStore, c.Config.Storage.ManifestBucket)
	log.Println("✓ Watch State Store and Manifest Store initialized")

	// No translation backend is wired by default (§11); a configured
	// deployment may swap this for a real client without touching callers.
	c.Translator = services.NoopTranslator{}

	return nil
}

func (c *Container) initRepositories() error {
	c.TenantRepository = postgres.NewTenantRepository(c.DB)
	c.VectorizationRunRepository = postgres.NewVectorizationRunRepository(c.DB)
	c.NotificationLogRepository = postgres.NewNotificationLogRepository(c.DB)
	log.Println("✓ Repositories initialized")
	return nil
}

func (c *Container) initDomainComponents() error {
	c.SyncEngine = serviceimpl.NewSyncEngine(
		c.BlobStore,
		c.DriveAdapter,
		c.EmbeddingProvider,
		c.Normalizer,
		c.Config.Storage.ArtifactBucket,
		c.Config.Sync.CheckpointInterval,
		c.Config.Sync.MaxWorkers,
	)

	c.NotificationRouter = serviceimpl.NewDriveNotificationRouter(
		c.WatchStateStore,
		c.DriveAdapter,
		c.Dispatcher,
		c.DescendantCache,
		c.NotificationLogRepository,
		c.Config.Drive.WatchCooldownSeconds,
	)

	c.SearchIndexLoader = serviceimpl.NewSearchIndexLoader(c.BlobStore, c.Config.Storage.ArtifactBucket)

	c.TenantRegistry = serviceimpl.NewPostgresTenantRegistry(c.TenantRepository)

	c.AutoUpdateScheduler = serviceimpl.NewPollingScheduler(
		c.TenantRegistry,
		c.DriveAdapter,
		c.ManifestStore,
		c.SyncEngine,
		c.Config.Scheduler.MaxWorkers,
	)

	log.Println("✓ Domain components wired")
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()
	c.EventScheduler.Start()
	log.Println("✓ Event scheduler started")

	err := c.EventScheduler.AddJob("auto-update-sweep", "@every 1h", func() {
		ctx := context.Background()
		report, err := c.AutoUpdateScheduler.RunOnce(ctx)
		if err != nil {
			log.Printf("Warning: auto-update sweep failed: %v", err)
			return
		}
		log.Printf("✓ auto-update sweep: checked=%d updated=%d skipped=%d failed=%d",
			report.TenantsChecked, report.TenantsUpdated, report.TenantsSkipped, report.TenantsFailed)
	})
	if err != nil {
		log.Printf("Warning: failed to schedule auto-update sweep: %v", err)
	}

	return nil
}

func (c *Container) Cleanup() error {
	log.Println("Starting cleanup...")

	if c.EventScheduler != nil {
		if c.EventScheduler.IsRunning() {
			c.EventScheduler.Stop()
			log.Println("✓ Event scheduler stopped")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Printf("Warning: Failed to close Redis connection: %v", err)
		} else {
			log.Println("✓ Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Warning: Failed to close database connection: %v", err)
			} else {
				log.Println("✓ Database connection closed")
			}
		}
	}

	log.Println("✓ Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		SyncEngine:          c.SyncEngine,
		Dispatcher:          c.Dispatcher,
		NotificationRouter:  c.NotificationRouter,
		SearchIndexLoader:   c.SearchIndexLoader,
		AutoUpdateScheduler: c.AutoUpdateScheduler,
		WatchStateStore:     c.WatchStateStore,
		DriveAdapter:        c.DriveAdapter,
		Provider:            c.EmbeddingProvider,
		Translator:          c.Translator,
		TenantRepository:    c.TenantRepository,
		VectorizationRunRepository: c.VectorizationRunRepository,
		DB:                  c.DB,
		RedisClient:         c.RedisClient,
	}
}
