package viewer

import "errors"

var (
	// ErrViewerNotFound is returned for unknown viewer ids
	ErrViewerNotFound = errors.New("viewer not found")

	// ErrViewerGone is returned for viewers that were unmounted
	ErrViewerGone = errors.New("viewer was unmounted")

	// ErrModelNotFound is returned when mounting an unknown slug
	ErrModelNotFound = errors.New("model not found")

	// ErrTooManyViewers is returned by Mount when the registry is full
	ErrTooManyViewers = errors.New("too many mounted viewers")

	// ErrMountRateLimited is returned when one client mounts too often
	ErrMountRateLimited = errors.New("too many viewer mounts, slow down")

	// ErrUnknownCommand is returned for command names outside the command surface
	ErrUnknownCommand = errors.New("unknown viewer command")

	// ErrMissingValue is returned when a command needs an argument that wasn't given
	ErrMissingValue = errors.New("command requires a value")

	// ErrInvalidEnvironment is returned for unknown environment presets
	ErrInvalidEnvironment = errors.New("invalid environment preset")

	// ErrAssetMissing is returned by loaders when the asset is not in storage
	ErrAssetMissing = errors.New("model asset missing")

	// ErrInvalidAsset is returned by loaders for files that are not binary glTF
	ErrInvalidAsset = errors.New("model asset is not a valid glb file")
)
