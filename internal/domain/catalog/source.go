package catalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
)

//go:embed data/models.json
var embedded embed.FS

// Source yields the dataset records in display order
type Source interface {
	Load(ctx context.Context) ([]ModelRecord, error)
	Name() string
}

// EmbeddedSource reads the dataset compiled into the binary
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Load(ctx context.Context) ([]ModelRecord, error) {
	data, err := embedded.ReadFile("data/models.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded dataset: %w", err)
	}
	return decode(data, ".json")
}

// FileSource reads a JSON or YAML dataset from disk
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) ([]ModelRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return decode(data, strings.ToLower(filepath.Ext(s.Path)))
}

func decode(data []byte, ext string) ([]ModelRecord, error) {
	var doc document
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return doc.Models, nil
}

// PostgresSource reads the dataset from the heritage_models table
type PostgresSource struct {
	db *sqlx.DB
}

// NewPostgresSource creates a source over an open database
func NewPostgresSource(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) ([]ModelRecord, error) {
	query := `
		SELECT id, slug, title, description, category, location, thumbnail, model_path
		FROM heritage_models
		ORDER BY position ASC, id ASC`

	var records []ModelRecord
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("select heritage models: %w", err)
	}
	return records, nil
}
