package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/world"
)

// =============================================================================
// Formats
// =============================================================================

// Format is a world file encoding.
type Format string

// Supported world file formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name ("json", "toml", "yaml" or "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown world format %q", s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	if err := errors.ValidateWorldFilename(filepath.Base(path)); err != nil {
		return "", err
	}
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// =============================================================================
// World Serialization API
// =============================================================================

// MarshalWorld encodes w in format f. JSON output is indented.
func MarshalWorld(w world.World, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorld(w, &buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWorld encodes w to out in format f.
func WriteWorld(w world.World, out io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(w); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode world")
		}
	case FormatTOML:
		if err := toml.NewEncoder(out).Encode(w); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode world")
		}
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(w); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode world")
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown world format %q", f)
	}
	return nil
}

// UnmarshalWorld decodes and validates a world.
func UnmarshalWorld(data []byte, f Format) (world.World, error) {
	var w world.World
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &w)
	case FormatTOML:
		err = toml.Unmarshal(data, &w)
	case FormatYAML:
		err = yaml.Unmarshal(data, &w)
	default:
		return world.World{}, errors.New(errors.ErrCodeInvalidFormat, "unknown world format %q", f)
	}
	if err != nil {
		return world.World{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s world", f)
	}
	if err := w.Validate(); err != nil {
		return world.World{}, err
	}
	return w, nil
}

// ReadWorld decodes and validates a world from r.
func ReadWorld(r io.Reader, f Format) (world.World, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return world.World{}, errors.Wrap(errors.ErrCodeInternal, err, "read world")
	}
	return UnmarshalWorld(data, f)
}

// ReadWorldFile reads a world file, choosing the format by extension.
func ReadWorldFile(path string) (world.World, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return world.World{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return world.World{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "world file %s", path)
		}
		return world.World{}, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	w, err := UnmarshalWorld(data, f)
	if err != nil {
		return world.World{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// WriteWorldFile writes w to path, choosing the format by extension.
// The file is created with 0644 permissions.
func WriteWorldFile(w world.World, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := MarshalWorld(w, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
