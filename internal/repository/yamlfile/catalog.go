package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"gopkg.in/yaml.v3"
)

type catalogRepository struct {
	path string
}

// NewCatalogRepository serves the configuration catalog from a YAML file.
// The file is re-read on every load so edits apply to the next batch.
func NewCatalogRepository(path string) payroll.CatalogRepository {
	return &catalogRepository{path: path}
}

func (r *catalogRepository) LoadCatalog(ctx context.Context) (payroll.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return payroll.Catalog{}, err
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return payroll.Catalog{}, fmt.Errorf("failed to read catalog file %s: %w", r.path, err)
	}

	var catalog payroll.Catalog
	if err := Decode(bytes.NewReader(raw), &catalog); err != nil {
		return payroll.Catalog{}, fmt.Errorf("failed to parse catalog file %s: %w", r.path, err)
	}
	return catalog, nil
}

// Decode reads one YAML document into out, rejecting unknown fields so that a
// misspelt rate or flag fails loudly instead of defaulting to zero.
func Decode(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("document is empty")
		}
		return err
	}
	return nil
}

// Encode writes v as a YAML document.
func Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
