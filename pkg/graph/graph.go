package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/nodegraph"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal encodes a document in the given format.
func Marshal(doc Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a document in the given format.
func Unmarshal(data []byte, format Format) (Document, error) {
	return Read(bytes.NewReader(data), format)
}

// Write encodes a document to w.
func Write(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
}

// Read decodes a document from r.
func Read(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
	}
	return doc, nil
}

// ReadFile reads a document, picking the format from the extension.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// WriteFile writes a document, picking the format from the extension.
// The file is created with 0644 permissions.
func WriteFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, doc, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadGraphFile reads a document and converts it to a validated graph.
func ReadGraphFile(path string) (*nodegraph.Graph, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ToNodeGraph(doc)
}

// WriteGraphFile serializes g to path.
func WriteGraphFile(path string, g *nodegraph.Graph) error {
	return WriteFile(path, FromNodeGraph(g))
}
