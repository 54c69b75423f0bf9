package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a board document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("board: unsupported document type %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

// Parse decodes a board document and validates it. Decoding is strict:
// unknown keys and content after the document are rejected. Nothing is
// returned on failure, so callers holding a previous board keep it untouched.
func Parse(data []byte, format Format) (*Board, error) {
	var b Board
	switch format {
	case FormatJSON:
		if err := decodeJSON(data, &b); err != nil {
			return nil, fmt.Errorf("board: parse json: %w", err)
		}
	case FormatYAML:
		if err := decodeYAML(data, &b); err != nil {
			return nil, fmt.Errorf("board: parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("board: unknown format %q", format)
	}

	if strings.TrimSpace(b.Name) == "" {
		b.Name = DefaultName
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func decodeJSON(data []byte, b *Board) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return errors.New("document is null")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after document")
	}
	return nil
}

func decodeYAML(data []byte, b *Board) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("document is empty")
		}
		return err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after document")
	}
	return nil
}

// LoadFile reads and parses the board document at path.
func LoadFile(path string) (*Board, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// FirstPath picks the first entry of a multi-selection. Entries may be
// separated by commas or whitespace.
func FirstPath(selection string) string {
	fields := strings.FieldsFunc(selection, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
