// Package catalog loads listing fixtures from YAML and imports them into an
// empty property collection.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vbonduro/homefinder/internal/domain"
	"gopkg.in/yaml.v3"
)

type file struct {
	Properties []domain.PropertyInput `yaml:"properties"`
}

// Creator is the admin surface the import writes through.
type Creator interface {
	CreateProperty(ctx context.Context, in domain.PropertyInput) (*domain.PropertyRecord, error)
	QueryProperties(ctx context.Context, field, op, value string, limit int) ([]domain.PropertyRecord, error)
}

// Decode parses a catalog document. Unknown keys are rejected.
func Decode(r io.Reader) ([]domain.PropertyInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return f.Properties, nil
}

func LoadFile(path string) ([]domain.PropertyInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Import creates every entry through c when the collection holds no listings
// yet, and returns how many were created. All entries are validated before
// the first write, so an invalid catalog creates nothing.
func Import(ctx context.Context, c Creator, entries []domain.PropertyInput, logger *slog.Logger) (int, error) {
	for i, in := range entries {
		if err := domain.ValidatePropertyInput(in.Normalized()); err != nil {
			return 0, fmt.Errorf("catalog entry %d (%q): %w", i, in.Title, err)
		}
	}

	existing, err := c.QueryProperties(ctx, "", "", "", 1)
	if err != nil {
		return 0, fmt.Errorf("check existing properties: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog import skipped, properties already present")
		return 0, nil
	}

	for i, in := range entries {
		if _, err := c.CreateProperty(ctx, in); err != nil {
			return i, fmt.Errorf("create catalog entry %d (%q): %w", i, in.Title, err)
		}
	}
	logger.Info("catalog imported", "properties", len(entries))
	return len(entries), nil
}
