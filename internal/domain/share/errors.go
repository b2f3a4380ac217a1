package share

import "errors"

var (
	// ErrEmptyPayload is returned when there is nothing to encode
	ErrEmptyPayload = errors.New("qr payload is empty")

	// ErrNothingRendered is returned by Download before the first Render
	ErrNothingRendered = errors.New("no qr code rendered yet")
)
