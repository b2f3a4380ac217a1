package catalog

import (
	"context"
	"fmt"

	"github.com/mcu-prisar/heritage-web/internal/pkg/validator"
)

// Dataset is the ordered, read-only list of showcased models.
// It is built once at startup and shared without locking.
type Dataset struct {
	records []ModelRecord
	source  string
}

// Load reads and validates every record from src
func Load(ctx context.Context, src Source) (*Dataset, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", src.Name(), err)
	}
	ds, err := NewDataset(records)
	if err != nil {
		return nil, fmt.Errorf("dataset from %s: %w", src.Name(), err)
	}
	ds.source = src.Name()
	return ds, nil
}

// NewDataset validates records and keeps their order
func NewDataset(records []ModelRecord) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if errs := validator.Validate(&records[i]); errs != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %v", ErrInvalidRecord, i, records[i].Slug, errs)
		}
		if _, dup := seen[records[i].Slug]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSlug, records[i].Slug)
		}
		seen[records[i].Slug] = struct{}{}
	}

	out := make([]ModelRecord, len(records))
	copy(out, records)
	return &Dataset{records: out}, nil
}

// FindBySlug returns the record with the given slug. A miss is a normal outcome.
func (d *Dataset) FindBySlug(slug string) (ModelRecord, bool) {
	for _, rec := range d.records {
		if rec.Slug == slug {
			return rec, true
		}
	}
	return ModelRecord{}, false
}

// All returns the records in dataset order
func (d *Dataset) All() []ModelRecord {
	out := make([]ModelRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Related returns every record except the one with slug, in dataset order
func (d *Dataset) Related(slug string) []ModelRecord {
	out := make([]ModelRecord, 0, len(d.records))
	for _, rec := range d.records {
		if rec.Slug != slug {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Source names where the records came from
func (d *Dataset) Source() string {
	return d.source
}
