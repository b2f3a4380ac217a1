package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/mcu-prisar/heritage-web/internal/config"
	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/domain/media"
	"github.com/mcu-prisar/heritage-web/internal/domain/share"
	"github.com/mcu-prisar/heritage-web/internal/domain/site"
	"github.com/mcu-prisar/heritage-web/internal/domain/viewer"
	"github.com/mcu-prisar/heritage-web/internal/middleware"
	"github.com/mcu-prisar/heritage-web/internal/pkg/cache"
	"github.com/mcu-prisar/heritage-web/internal/pkg/database"
	"github.com/mcu-prisar/heritage-web/internal/pkg/imaging"
	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	pkgresponse "github.com/mcu-prisar/heritage-web/internal/pkg/response"
	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

const (
	hubTick       = 50 * time.Millisecond
	sweepInterval = time.Minute
	apiTimeout    = 30 * time.Second
)

// handlers groups everything the router mounts
type handlers struct {
	catalog *catalog.Handler
	share   *share.Handler
	viewer  *viewer.Handler
	media   *media.Handler
	site    *site.Handler
	dataset *catalog.Dataset
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting heritage web")

	startup, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// ---------- Dataset ----------
	var db *sqlx.DB
	if cfg.DatasetSource == "postgres" {
		var err error
		db, err = database.NewPostgres(startup, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(db)
	}

	src, err := datasetSource(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid dataset configuration")
	}
	dataset, err := catalog.Load(startup, src)
	if err != nil {
		log.Fatal().Err(err).Str("source", src.Name()).Msg("Failed to load dataset")
	}
	log.Info().Str("source", dataset.Source()).Int("models", dataset.Len()).Msg("Dataset loaded")

	// ---------- Cache ----------
	rdb, err := database.NewRedis(startup, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	// ---------- Storage ----------
	store, err := storage.New(startup, storageConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to create storage")
	}

	// ---------- Services ----------
	qrService := share.NewService(cache.New(rdb, "qr:"), cfg.QRCacheTTL, cfg.QRDefaultSize)
	processor := imaging.NewProcessor(imaging.Config{Width: cfg.ThumbWidth, Height: cfg.ThumbHeight})
	thumbnails := media.NewThumbnails(store, processor, cache.New(rdb, "thumb:"), cfg.ThumbCacheTTL)
	urls := media.NewAssetURLs(store)

	// ---------- Viewer ----------
	hub := viewer.NewHub(hubTick)
	go hub.Run()

	registry := viewer.NewRegistry(dataset, viewer.Options{
		Loader:      viewer.NewStorageLoader(store),
		Publisher:   hub,
		LoadTimeout: cfg.AssetLoadTimeout,
	}, cfg.ViewerIdleTTL)
	registry.SetMaxViewers(cfg.ViewerMaxMounted)
	mountLimiter := viewer.NewMountLimiter(rdb, cfg.ViewerMountLimit, cfg.ViewerMountWindow)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go registry.Run(runCtx, sweepInterval)

	// ---------- Handlers ----------
	siteHandler, err := site.NewHandler(dataset, qrService, urls, site.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		QRSize:        cfg.QRDefaultSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	r := newRouter(cfg, handlers{
		catalog: catalog.NewHandler(dataset, urls),
		share:   share.NewHandler(qrService),
		viewer:  viewer.NewHandler(registry, hub, mountLimiter, cfg.AllowedOrigins),
		media:   media.NewHandler(store, thumbnails, dataset),
		site:    siteHandler,
		dataset: dataset,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Unmount viewers first so open sockets receive a closed frame
	stopRun()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, h handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)

	// WebSocket endpoint (before Compress and Timeout)
	r.Mount("/ws/viewers", h.viewer.WSRoutes())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]interface{}{
				"status": "ok",
				"models": h.dataset.Len(),
				"source": h.dataset.Source(),
			})
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
			r.Use(middleware.Timeout(apiTimeout))
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				pkgresponse.NotFound(w, "Endpoint not found")
			})

			r.Mount("/models", h.catalog.Routes())
			r.Mount("/viewers", h.viewer.Routes())
			r.Get("/qr", h.share.QR)
		})

		h.media.Routes(r)
		h.site.Routes(r)
	})

	return r
}

func datasetSource(cfg *config.Config, db *sqlx.DB) (catalog.Source, error) {
	switch cfg.DatasetSource {
	case "", "embedded":
		return catalog.EmbeddedSource{}, nil
	case "file":
		if cfg.DatasetPath == "" {
			return nil, fmt.Errorf("DATASET_PATH is required for the file source")
		}
		return catalog.FileSource{Path: cfg.DatasetPath}, nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres source needs a database connection")
		}
		return catalog.NewPostgresSource(db), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.DatasetSource)
	}
}

func storageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:    cfg.StorageDriver,
		LocalPath: cfg.StorageLocalPath,
		BaseURL:   cfg.StorageBaseURL,
		S3: storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
	}
}
