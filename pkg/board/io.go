package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/boardpack/pkg/errors"
)

// Format is a board file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension. Anything that
// is not .toml is read as JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// Parse decodes and validates a board.
func Parse(data []byte, format Format) (*Board, error) {
	var b Board
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml board")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json board")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported board format %q", format)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ReadBoard decodes a board from r.
func ReadBoard(r io.Reader, format Format) (*Board, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	return Parse(data, format)
}

// ImportBoard reads the board file at path. A missing file is reported as
// FILE_NOT_FOUND.
func ImportBoard(path string) (*Board, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "board %s", path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	b, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return b, data, nil
}

// WriteBoard encodes b as indented JSON.
func WriteBoard(b *Board, w io.Writer) error {
	return writeJSON(b, w)
}

// ReadLayout decodes a layout written by WriteLayout.
func ReadLayout(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	if len(l.Components) == 0 && len(l.Clusters) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "layout has no components")
	}
	return &l, nil
}

// ImportLayout reads the layout file at path.
func ImportLayout(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// WriteLayout encodes l as indented JSON.
func WriteLayout(l *Layout, w io.Writer) error {
	return writeJSON(l, w)
}

// ExportLayout writes l to path, creating parent directories.
func ExportLayout(l *Layout, path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteLayout(l, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
