package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail is an encoded gallery card image
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Config for thumbnail processing
type Config struct {
	MaxWidth  int // largest width a caller may request (default 1600)
	MaxHeight int // largest height a caller may request (default 1200)
	Width     int // default card width (default 600)
	Height    int // default card height (default 400)
	Quality   int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:  1600,
		MaxHeight: 1200,
		Width:     600,
		Height:    400,
		Quality:   85,
	}
}

// Processor renders center-cropped thumbnails for the gallery
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	def := DefaultConfig()
	if config.MaxWidth <= 0 {
		config.MaxWidth = def.MaxWidth
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = def.MaxHeight
	}
	if config.Width <= 0 {
		config.Width = def.Width
	}
	if config.Height <= 0 {
		config.Height = def.Height
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = def.Quality
	}
	return &Processor{config: config}
}

// Size clamps a requested size to the configured bounds. Zero means the default card size.
func (p *Processor) Size(width, height int) (int, int) {
	if width <= 0 {
		width = p.config.Width
	}
	if height <= 0 {
		height = p.config.Height
	}
	if width > p.config.MaxWidth {
		width = p.config.MaxWidth
	}
	if height > p.config.MaxHeight {
		height = p.config.MaxHeight
	}
	return width, height
}

// Thumbnail decodes reader and returns a JPEG filled to width x height
func (p *Processor) Thumbnail(reader io.Reader, width, height int) (*Thumbnail, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	width, height = p.Size(width, height)
	thumb := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	encoded, err := p.encode(thumb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:        encoded,
		ContentType: "image/jpeg",
		Width:       thumb.Bounds().Dx(),
		Height:      thumb.Bounds().Dy(),
	}, nil
}

// ValidateType checks if file is a valid image type
func ValidateType(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ThumbnailKey is the storage key of a pre-rendered thumbnail
func ThumbnailKey(slug string, width, height int) string {
	return fmt.Sprintf("thumbnails/%s_%dx%d.jpg", slug, width, height)
}
