package catalog

import "errors"

var (
	// ErrModelNotFound is returned when no record has the requested slug
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyDataset is returned when a source yields no records
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrDuplicateSlug is returned when two records share a slug
	ErrDuplicateSlug = errors.New("duplicate slug")

	// ErrInvalidRecord is returned when a record fails validation
	ErrInvalidRecord = errors.New("invalid model record")

	// ErrUnsupportedFormat is returned for dataset files that are neither JSON nor YAML
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)
