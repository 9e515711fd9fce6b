package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"metacurate/config"
	"metacurate/metaanalysis"
	"metacurate/models"
	"metacurate/providers"
	"metacurate/providers/europepmc"
	"metacurate/providers/neurostore"
	"metacurate/providers/pubmed"
	"metacurate/providers/unpaywall"
	"metacurate/services"
	"metacurate/storage"
	"metacurate/table"
)

// app bündelt die Abhängigkeiten der HTTP-Handler.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	log       *zap.Logger
	curation  *services.CurationService
	imports   *services.ImportService
	ingestion *services.IngestionService
	exports   *services.ExportService
	sessions  table.StateStore
	spec      metaanalysis.Specification
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to curation database.")

	logging.Info("Running database auto-migration...")
	if err := migrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}
	seedDefaultSearchFilters(db, logging)

	spec, err := metaanalysis.Load(cfg.MetaAnalysisSpecPath)
	if err != nil {
		logging.Fatal("Failed to load meta-analysis specification", zap.String("path", cfg.MetaAnalysisSpecPath), zap.Error(err))
	}

	sessions, err := storage.NewSessionStore(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to session store", zap.Error(err))
	}
	if cfg.RedisAddr == "" {
		logging.Warn("REDIS_ADDR not set, table state is kept in memory")
	}

	var archive *storage.Archive
	if cfg.ArchiveEnabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archive = storage.NewArchive(s3Client, cfg, cfg.S3Prefix)
	} else {
		logging.Warn("S3 not configured, export archive disabled")
	}

	pubmedFetcher := pubmed.NewFetcher(cfg, logging)
	neurostoreClient := neurostore.NewClient(cfg, logging)
	registry := providers.NewRegistry(
		pubmedFetcher,
		europepmc.NewFetcher(cfg, logging),
		neurostoreClient,
	)

	curationService := services.NewCurationService(db, logging)
	a := &app{
		cfg:       cfg,
		db:        db,
		log:       logging,
		curation:  curationService,
		imports:   services.NewImportService(curationService, registry, pubmedFetcher, unpaywall.NewFetcher(cfg, logging), logging),
		ingestion: services.NewIngestionService(curationService, neurostoreClient, logging),
		exports:   services.NewExportService(curationService, archive, logging),
		sessions:  sessions,
		spec:      spec,
	}
	router := newRouter(a)

	cronScheduler := cron.New()
	if archive != nil {
		if _, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled export archive job...")
			count, err := a.exports.ArchiveAll(context.Background())
			if err != nil {
				logging.Error("Cron job failed", zap.Error(err))
				return
			}
			logging.Info("Cron job completed", zap.Int("archives", count))
		}); err != nil {
			logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Project{},
		&models.IngestionRun{},
		&models.ExportArchive{},
		&models.SearchFilter{},
		&models.MetaAnalysis{},
	)
}

// newRouter baut den gin-Router mit allen Routen.
func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(apiKeyAuthMiddleware(a.cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupProjectRoutes(router, a)
	setupStubRoutes(router, a)
	setupImportRoutes(router, a)
	setupIngestionRoutes(router, a)
	setupExportRoutes(router, a)
	setupTableRoutes(router, a)
	setupMetaAnalysisRoutes(router, a)
	setupSearchFilterRoutes(router, a.db, a.log)
	return router
}

func seedDefaultSearchFilters(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.SearchFilter{}).Count(&count)
	if count > 0 {
		return
	}
	filters := []models.SearchFilter{
		{Name: "fMRI (Human)", Source: "pubmed", FilterQuery: `("magnetic resonance imaging"[MeSH Terms] OR fMRI[Title/Abstract]) AND "humans"[MeSH Terms]`},
		{Name: "PET (Human)", Source: "pubmed", FilterQuery: `"positron-emission tomography"[MeSH Terms] AND "humans"[MeSH Terms]`},
		{Name: "Brain Mapping", Source: "pubmed", FilterQuery: `"brain mapping"[MeSH Terms]`},
		{Name: "Open Access", Source: "europepmc", FilterQuery: `OPEN_ACCESS:y`},
	}
	if err := db.Create(&filters).Error; err != nil {
		logger.Warn("Failed to seed default search filters", zap.Error(err))
	} else {
		logger.Info("Default search filters seeded.")
	}
}
