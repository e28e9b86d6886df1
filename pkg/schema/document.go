package schema

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, fmt.Errorf("schema: document %s is empty", src.Location())
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format guesses the serialization from the location extension, falling back
// to sniffing the first non-space byte.
func (d Document) Format() Format {
	switch strings.ToLower(filepath.Ext(d.Location())) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimSpace(d.raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Tree decodes the payload into a generic tree of maps, lists and scalars.
func (d Document) Tree() (any, error) {
	return decodeTree(d.raw, d.Format(), d.Location())
}

// Node decodes the payload into schema nodes.
func (d Document) Node() (Node, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	node, err := Decode(tree)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", d.Location(), err)
	}
	return node, nil
}

func decodeTree(raw []byte, format Format, location string) (any, error) {
	var tree any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", location, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", location, err)
		}
	}
	return tree, nil
}
