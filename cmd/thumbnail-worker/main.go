package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcu-prisar/heritage-web/internal/config"
	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/domain/media"
	"github.com/mcu-prisar/heritage-web/internal/pkg/cache"
	"github.com/mcu-prisar/heritage-web/internal/pkg/database"
	"github.com/mcu-prisar/heritage-web/internal/pkg/imaging"
	"github.com/mcu-prisar/heritage-web/internal/pkg/logger"
	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

const (
	pollInterval = 10 * time.Minute
	wakeChannel  = "heritage:thumbnails"
)

// renderer is the part of media.Thumbnails the worker drives
type renderer interface {
	Exists(ctx context.Context, rec catalog.ModelRecord, width, height int) (bool, error)
	Store(ctx context.Context, rec catalog.ModelRecord, width, height int) (string, error)
}

type passResult struct {
	rendered int
	skipped  int
	failed   int
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting thumbnail-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	store, err := storage.New(ctx, storage.Config{
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
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open dataset source")
	}
	defer closeSource()

	processor := imaging.NewProcessor(imaging.Config{Width: cfg.ThumbWidth, Height: cfg.ThumbHeight})
	thumbnails := media.NewThumbnails(store, processor, cache.New(rdb, "thumb:"), cfg.ThumbCacheTTL)

	// Optional: Redis pub/sub wake-up (polling still runs)
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, rdb, wake)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		// The dataset is reloaded every pass so database edits are picked up
		dataset, err := catalog.Load(ctx, src)
		if err != nil {
			log.Error().Err(err).Str("source", src.Name()).Msg("Failed to load dataset")
		} else {
			start := time.Now()
			res := renderPass(ctx, thumbnails, dataset.All(), cfg.ThumbWidth, cfg.ThumbHeight)
			log.Info().
				Int("rendered", res.rendered).
				Int("skipped", res.skipped).
				Int("failed", res.failed).
				Dur("took", time.Since(start)).
				Msg("Thumbnail pass done")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("thumbnail-worker stopped")
			return
		case <-wake:
			// immediate pass
		case <-ticker.C:
		}
	}
}

// renderPass stores a thumbnail for every record that does not have one yet
func renderPass(ctx context.Context, r renderer, records []catalog.ModelRecord, width, height int) passResult {
	var res passResult
	for _, rec := range records {
		if ctx.Err() != nil {
			return res
		}

		exists, err := r.Exists(ctx, rec, width, height)
		if err != nil {
			log.Error().Err(err).Str("slug", rec.Slug).Msg("Failed to check thumbnail")
			res.failed++
			continue
		}
		if exists {
			res.skipped++
			continue
		}

		key, err := r.Store(ctx, rec, width, height)
		if err != nil {
			event := log.Error()
			if errors.Is(err, media.ErrSourceMissing) || errors.Is(err, media.ErrUnsupportedSource) {
				event = log.Warn()
			}
			event.Err(err).Str("slug", rec.Slug).Msg("Thumbnail render failed")
			res.failed++
			continue
		}

		log.Debug().Str("slug", rec.Slug).Str("key", key).Msg("Thumbnail stored")
		res.rendered++
	}
	return res
}

func openSource(ctx context.Context, cfg *config.Config) (catalog.Source, func(), error) {
	switch cfg.DatasetSource {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgresSource(db), func() { database.ClosePostgres(db) }, nil
	case "file":
		return catalog.FileSource{Path: cfg.DatasetPath}, func() {}, nil
	default:
		return catalog.EmbeddedSource{}, func() {}, nil
	}
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, wakeChannel)
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			// non-blocking wake-up
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
