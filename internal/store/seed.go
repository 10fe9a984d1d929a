package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// SeedFile reads and writes the taxonomy seed, a YAML list of categories:
//
//	- name: Food
//	  subcategories:
//	    - name: Groceries
//	      items: [Market]
type SeedFile struct {
	Filename string
	logger   logging.Logger
}

// NewSeedFile creates a seed file handle. An empty filename means
// "categories.yaml".
func NewSeedFile(filename string, logger logging.Logger) *SeedFile {
	if filename == "" {
		filename = "categories.yaml"
	}
	return &SeedFile{Filename: filename, logger: logging.OrDefault(logger)}
}

// Load reads the seed. A missing file is not an error: it returns nil specs.
func (s *SeedFile) Load() ([]taxonomy.CategorySpec, error) {
	path, err := FindConfigFile(s.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Taxonomy seed file not found", logging.F(logging.FieldFile, s.Filename))
			return nil, nil
		}
		return nil, fmt.Errorf("error resolving taxonomy seed file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading taxonomy seed file: %w", err)
	}

	var specs []taxonomy.CategorySpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("error parsing taxonomy seed file: %w", err)
	}
	if _, err := taxonomy.FromSpec(specs); err != nil {
		return nil, fmt.Errorf("invalid taxonomy seed file: %w", err)
	}

	s.logger.Debug("Loaded taxonomy seed",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(specs)))
	return specs, nil
}

// Save writes specs to the existing seed location, or under ./data when the
// file does not exist yet.
func (s *SeedFile) Save(specs []taxonomy.CategorySpec) (string, error) {
	path, err := FindConfigFile(s.Filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("error resolving taxonomy seed file: %w", err)
		}
		path = s.Filename
		if !filepath.IsAbs(path) {
			path = filepath.Join("data", path)
		}
	}
	if err := ensureDir(path); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("error marshaling taxonomy seed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error writing taxonomy seed: %w", err)
	}

	s.logger.Debug("Saved taxonomy seed",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(specs)))
	return path, nil
}
