// Package emit renders a converted configuration and writes it to disk.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/appdef/internal/appdef"
)

// Format selects the output representation.
type Format string

const (
	// FormatJS is a module whose default export is the JSON document.
	FormatJS   Format = "js"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const modulePrefix = "export default "

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJS, FormatJSON, FormatYAML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (use js, json or yaml)", s)
}

// DefaultPath returns the output path, relative to the project directory, for f.
func DefaultPath(f Format) string {
	switch f {
	case FormatJSON:
		return "config.json"
	case FormatYAML:
		return "config.yaml"
	default:
		return filepath.Join("src", "config.js")
	}
}

// Render serializes cfg. Map keys are emitted in sorted order.
func Render(cfg *appdef.Configuration, f Format, indent bool) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	switch f {
	case FormatYAML:
		return renderYAML(cfg)
	case FormatJSON:
		data, err := renderJSON(cfg, indent)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatJS, "":
		data, err := renderJSON(cfg, indent)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		buf.Grow(len(modulePrefix) + len(data) + 2)
		buf.WriteString(modulePrefix)
		buf.Write(data)
		buf.WriteString(";\n")
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

func renderJSON(cfg *appdef.Configuration, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if indent {
		data = bytes.TrimRight(pretty.Pretty(data), "\n")
	}
	return data, nil
}

func renderYAML(cfg *appdef.Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile replaces path with data through a temporary file in the same directory.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "appdef-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set output mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
