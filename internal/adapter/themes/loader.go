// Package themes reads theme collections from YAML files and keeps the
// application in sync with edits to such a file.
package themes

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// document is the on-disk layout:
//
//	themes:
//	  - name: Ultraviolet
//	    color: "#2607a6"
//	    transition_color: "#5500ff"
//	    background_color: "#000000"
type document struct {
	Themes []domain.Theme `yaml:"themes"`
}

// Parse decodes a theme document. Every theme must validate and names must be unique.
func Parse(data []byte) ([]domain.Theme, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.NewRepositoryError("Parse", "themes", "failed to decode theme file", err)
	}
	if len(doc.Themes) == 0 {
		return nil, domain.NewValidationError("themes", 0, "theme file lists no themes", domain.ErrInvalidTheme)
	}

	seen := make(map[string]struct{}, len(doc.Themes))
	for i, t := range doc.Themes {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("theme %d: %w", i, err)
		}
		if _, dup := seen[t.Name]; dup {
			return nil, domain.NewValidationError("name", t.Name, "listed twice", domain.ErrDuplicateTheme)
		}
		seen[t.Name] = struct{}{}
	}
	return doc.Themes, nil
}

// Load reads and parses the theme file at path.
func Load(path string) ([]domain.Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewRepositoryError("Load", "themes", "failed to read "+path, err)
	}
	return Parse(data)
}

// Save writes themes to path in the format Load reads.
func Save(path string, themes []domain.Theme) error {
	data, err := yaml.Marshal(document{Themes: themes})
	if err != nil {
		return domain.NewRepositoryError("Save", "themes", "failed to encode themes", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.NewRepositoryError("Save", "themes", "failed to write "+path, err)
	}
	return nil
}
