package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
	"github.com/mcu-prisar/heritage-web/internal/domain/media"
)

type fakeRenderer struct {
	existing map[string]bool
	missing  map[string]bool
	stored   []string
}

func (f *fakeRenderer) Exists(ctx context.Context, rec catalog.ModelRecord, width, height int) (bool, error) {
	return f.existing[rec.Slug], nil
}

func (f *fakeRenderer) Store(ctx context.Context, rec catalog.ModelRecord, width, height int) (string, error) {
	if f.missing[rec.Slug] {
		return "", fmt.Errorf("%s: %w", rec.Slug, media.ErrSourceMissing)
	}
	f.stored = append(f.stored, rec.Slug)
	return fmt.Sprintf("thumbnails/%s_%dx%d.jpg", rec.Slug, width, height), nil
}

func TestRenderPass(t *testing.T) {
	records := []catalog.ModelRecord{{Slug: "statue"}, {Slug: "main-building"}, {Slug: "garden"}}
	r := &fakeRenderer{
		existing: map[string]bool{"statue": true},
		missing:  map[string]bool{"garden": true},
	}

	res := renderPass(context.Background(), r, records, 600, 400)

	if res.rendered != 1 || res.skipped != 1 || res.failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(r.stored) != 1 || r.stored[0] != "main-building" {
		t.Fatalf("stored = %v", r.stored)
	}
}

func TestRenderPassStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRenderer{}
	res := renderPass(ctx, r, []catalog.ModelRecord{{Slug: "statue"}}, 600, 400)
	if res != (passResult{}) || len(r.stored) != 0 {
		t.Fatalf("expected no work after cancel, got %+v", res)
	}
}
