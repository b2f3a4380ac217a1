package viewer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

// Asset is a model file that passed the header check
type Asset struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Loader resolves a dataset model path to a loadable asset
type Loader interface {
	Load(ctx context.Context, assetPath string) (*Asset, error)
}

const (
	glbMagic      = 0x46546C67 // "glTF"
	glbVersion    = 2
	glbHeaderSize = 12
)

// StorageLoader checks that a model exists in storage and carries a binary glTF header
type StorageLoader struct {
	store storage.Storage
}

// NewStorageLoader creates a loader over the asset storage
func NewStorageLoader(store storage.Storage) *StorageLoader {
	return &StorageLoader{store: store}
}

func (l *StorageLoader) Load(ctx context.Context, assetPath string) (*Asset, error) {
	key, err := storage.KeyFromPath(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", assetPath, err)
	}

	info, err := l.store.GetInfo(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", assetPath, ErrAssetMissing)
		}
		return nil, fmt.Errorf("stat %s: %w", assetPath, err)
	}

	rc, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", assetPath, ErrAssetMissing)
		}
		return nil, fmt.Errorf("open %s: %w", assetPath, err)
	}
	defer rc.Close()

	if err := checkGLBHeader(rc, info.Size); err != nil {
		return nil, fmt.Errorf("%s: %w", assetPath, err)
	}

	return &Asset{
		Path:        assetPath,
		URL:         info.URL,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

func checkGLBHeader(r io.Reader, size int64) error {
	var header [glbHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return ErrInvalidAsset
	}
	if binary.LittleEndian.Uint32(header[0:4]) != glbMagic {
		return ErrInvalidAsset
	}
	if binary.LittleEndian.Uint32(header[4:8]) != glbVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidAsset, binary.LittleEndian.Uint32(header[4:8]))
	}
	if size > 0 && int64(binary.LittleEndian.Uint32(header[8:12])) != size {
		return fmt.Errorf("%w: truncated file", ErrInvalidAsset)
	}
	return nil
}
