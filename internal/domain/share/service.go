package share

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/mcu-prisar/heritage-web/internal/pkg/cache"
)

const (
	DefaultSize = 200
	MinSize     = 64
	MaxSize     = 1024
)

// Rasterizer turns a payload into a PNG of size x size pixels
type Rasterizer interface {
	Rasterize(ctx context.Context, payload string, size int) ([]byte, error)
}

// Service renders QR codes with go-qrcode and keeps recent rasters in the cache
type Service struct {
	cache       cache.Cache
	ttl         time.Duration
	defaultSize int
}

// NewService creates QR service. A nil cache disables caching.
func NewService(c cache.Cache, ttl time.Duration, defaultSize int) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if defaultSize <= 0 {
		defaultSize = DefaultSize
	}
	return &Service{cache: c, ttl: ttl, defaultSize: defaultSize}
}

// Size clamps a requested size, zero meaning the default
func (s *Service) Size(size int) int {
	if size <= 0 {
		size = s.defaultSize
	}
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Rasterize encodes payload as a PNG QR code
func (s *Service) Rasterize(ctx context.Context, payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	size = s.Size(size)
	key := cacheKey(payload, size)

	if png, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("QR cache read failed")
	} else if ok {
		return png, nil
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	if err := s.cache.Set(ctx, key, png, s.ttl); err != nil {
		log.Warn().Err(err).Msg("QR cache write failed")
	}
	return png, nil
}

func cacheKey(payload string, size int) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(size)
}
