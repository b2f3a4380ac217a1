package media

import (
	"github.com/mcu-prisar/heritage-web/internal/pkg/storage"
)

// AssetURLs maps dataset paths to the public URLs of the storage backend
type AssetURLs struct {
	store storage.Storage
}

// NewAssetURLs creates a resolver over store
func NewAssetURLs(store storage.Storage) AssetURLs {
	return AssetURLs{store: store}
}

// AssetURL returns the URL for a dataset path, or the path itself if it can't be a storage key
func (u AssetURLs) AssetURL(path string) string {
	key, err := storage.KeyFromPath(path)
	if err != nil {
		return path
	}
	return u.store.GetURL(key)
}
