package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a schema document from JSON or YAML, sanitizes user-facing
// text, and validates structural integrity before returning it.
func Parse(data []byte) (FormSchema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return FormSchema{}, fmt.Errorf("schema: document is empty")
	}

	var doc FormSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return FormSchema{}, fmt.Errorf("schema: invalid JSON or YAML document")
		}
	}

	sanitizeSchema(&doc)
	if err := doc.Validate(); err != nil {
		return FormSchema{}, err
	}
	return doc, nil
}

// LoadFS walks the provided filesystem and parses every JSON/YAML schema
// file. Duplicate form ids across files are an error. A nil filesystem
// yields an empty map.
func LoadFS(fsys fs.FS) (map[string]FormSchema, error) {
	out := make(map[string]FormSchema)
	if fsys == nil {
		return out, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return fmt.Errorf("schema: parse %s: %w", path, err)
		}
		if _, exists := out[doc.ID]; exists {
			return fmt.Errorf("schema: duplicate form id %q (file %s)", doc.ID, path)
		}
		out[doc.ID] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
