package capability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a capability snapshot from a YAML or JSON file.
// The format is chosen by extension; anything other than .json is read as YAML.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read capability file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}

	m, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse capability file %s: %w", path, err)
	}
	return m, nil
}

// Decode reads a snapshot in the given format ("yaml" or "json").
func Decode(r io.Reader, format string) (*Model, error) {
	var m Model
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, err
		}
	case "yaml", "yml", "":
		if err := yaml.NewDecoder(r).Decode(&m); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported capability format %q", format)
	}
	return &m, nil
}

// Encode writes m as JSON. Used to persist snapshots in the state store.
func Encode(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("capability model is nil")
	}
	return json.Marshal(m)
}
