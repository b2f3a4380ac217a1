package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/pkg/cache"
	"github.com/mcu-prisar/heritage-web/internal/pkg/imaging"
	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

// Thumbnails produces gallery card images: cache first, then pre-rendered files, then on the fly
type Thumbnails struct {
	store     storage.Storage
	processor *imaging.Processor
	cache     cache.Cache
	ttl       time.Duration
}

// NewThumbnails creates thumbnail service
func NewThumbnails(store storage.Storage, processor *imaging.Processor, c cache.Cache, ttl time.Duration) *Thumbnails {
	if c == nil {
		c = cache.Noop{}
	}
	return &Thumbnails{store: store, processor: processor, cache: c, ttl: ttl}
}

// Get returns a JPEG thumbnail of rec at width x height (zero means default size)
func (t *Thumbnails) Get(ctx context.Context, rec catalog.ModelRecord, width, height int) ([]byte, error) {
	width, height = t.processor.Size(width, height)
	key := imaging.ThumbnailKey(rec.Slug, width, height)

	if data, ok, err := t.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Thumbnail cache read failed")
	} else if ok {
		return data, nil
	}

	data, err := t.readKey(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if data == nil {
		thumb, err := t.Render(ctx, rec, width, height)
		if err != nil {
			return nil, err
		}
		data = thumb.Data
	}

	if err := t.cache.Set(ctx, key, data, t.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Thumbnail cache write failed")
	}
	return data, nil
}

// Render resizes the record's source image without touching cache or storage
func (t *Thumbnails) Render(ctx context.Context, rec catalog.ModelRecord, width, height int) (*imaging.Thumbnail, error) {
	if !imaging.ValidateType(rec.Thumbnail) {
		return nil, fmt.Errorf("%s: %w", rec.Thumbnail, ErrUnsupportedSource)
	}

	srcKey, err := storage.KeyFromPath(rec.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Thumbnail, err)
	}

	rc, err := t.store.Get(ctx, srcKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", rec.Slug, ErrSourceMissing)
		}
		return nil, fmt.Errorf("open thumbnail source: %w", err)
	}
	defer rc.Close()

	return t.processor.Thumbnail(rc, width, height)
}

// Store renders and writes the thumbnail of rec at its pre-rendered key
func (t *Thumbnails) Store(ctx context.Context, rec catalog.ModelRecord, width, height int) (string, error) {
	width, height = t.processor.Size(width, height)
	thumb, err := t.Render(ctx, rec, width, height)
	if err != nil {
		return "", err
	}

	key := imaging.ThumbnailKey(rec.Slug, width, height)
	if err := t.store.Put(ctx, key, bytes.NewReader(thumb.Data), thumb.ContentType); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}

// Exists reports whether the pre-rendered thumbnail of rec is in storage
func (t *Thumbnails) Exists(ctx context.Context, rec catalog.ModelRecord, width, height int) (bool, error) {
	width, height = t.processor.Size(width, height)
	return t.store.Exists(ctx, imaging.ThumbnailKey(rec.Slug, width, height))
}

func (t *Thumbnails) readKey(ctx context.Context, key string) ([]byte, error) {
	rc, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
