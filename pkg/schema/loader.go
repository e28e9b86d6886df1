package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Parse decodes a JSON or YAML schema document. name is used for error
// messages and format detection.
func Parse(data []byte, name string) (Node, error) {
	doc, err := NewDocument(SourceInline(name), data)
	if err != nil {
		return nil, err
	}
	return doc.Node()
}

// LoadFile reads and decodes a schema document from disk.
func LoadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	doc, err := NewDocument(SourceFromFile(path), data)
	if err != nil {
		return nil, err
	}
	return doc.Node()
}

// LoadFS reads and decodes name from fsys.
func LoadFS(fsys fs.FS, name string) (Node, error) {
	if fsys == nil {
		return nil, fmt.Errorf("schema: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	doc, err := NewDocument(SourceFromFS(name), data)
	if err != nil {
		return nil, err
	}
	return doc.Node()
}

// Store holds named schemas loaded from a directory tree.
type Store struct {
	schemas map[string]Node
}

// LoadDir walks fsys and decodes every JSON/YAML file. Schemas are keyed by
// their path without extension ("forms/profile.yaml" becomes
// "forms/profile"). When fsys is nil the store is empty.
func LoadDir(fsys fs.FS) (*Store, error) {
	store := &Store{schemas: make(map[string]Node)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		name := strings.TrimSuffix(path, filepath.Ext(path))
		if _, exists := store.schemas[name]; exists {
			return fmt.Errorf("schema: duplicate schema %q (file %s)", name, path)
		}
		node, err := LoadFS(fsys, path)
		if err != nil {
			return err
		}
		store.schemas[name] = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Schema returns the schema registered under name.
func (s *Store) Schema(name string) (Node, bool) {
	if s == nil {
		return nil, false
	}
	node, ok := s.schemas[name]
	return node, ok
}

// Names lists the loaded schema names.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the store holds any schema.
func (s *Store) Empty() bool {
	return s == nil || len(s.schemas) == 0
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
