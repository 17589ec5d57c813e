package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// DefaultCatalogFile is used when no arc catalog path is configured.
const DefaultCatalogFile = "./data/arcs.json"

// LoadCatalog reads an arc catalog from a .json, .yaml or .yml file and
// validates it. Arcs keep the order they have in the file.
func LoadCatalog(path string) (*story.Catalog, error) {
	if path == "" {
		path = DefaultCatalogFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &story.ConfigurationError{Msg: fmt.Sprintf("arc catalog not found: %s", path)}
		}
		return nil, fmt.Errorf("failed to read arc catalog: %w", err)
	}

	catalog, err := ParseCatalog(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes catalog data in the format named by ext.
func ParseCatalog(ext string, data []byte) (*story.Catalog, error) {
	var catalog story.Catalog
	switch strings.ToLower(ext) {
	case ".json":
		if err := catalog.UnmarshalJSON(data); err != nil {
			return nil, &story.ConfigurationError{Msg: fmt.Sprintf("invalid arc catalog: %v", err)}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, &story.ConfigurationError{Msg: fmt.Sprintf("invalid arc catalog: %v", err)}
		}
	default:
		return nil, &story.ConfigurationError{Msg: fmt.Sprintf("unsupported arc catalog format %q", ext)}
	}

	if err := catalog.Validate(); err != nil {
		return nil, &story.ConfigurationError{Msg: err.Error()}
	}
	return &catalog, nil
}
