package media

import "errors"

var (
	// ErrSourceMissing is returned when a record's thumbnail image is not in storage
	ErrSourceMissing = errors.New("thumbnail source missing")

	// ErrUnsupportedSource is returned when a record's thumbnail is not a decodable image type
	ErrUnsupportedSource = errors.New("thumbnail source is not an image")
)
