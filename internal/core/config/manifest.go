package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const manifestFileName = "pubspec.yaml"

// Manifest is the subset of the project manifest the pipeline needs; the
// package name anchors `package:` URI resolution.
type Manifest struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Version      string            `yaml:"version"`
	Environment  map[string]string `yaml:"environment"`
	Dependencies map[string]any    `yaml:"dependencies"`
}

// LoadManifest reads pubspec.yaml from the project root. A missing manifest
// or missing source root is a fatal initialization error.
func LoadManifest(root, sourceRoot string) (*Manifest, error) {
	manifestPath := filepath.Join(root, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", manifestPath, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", manifestPath, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %q has no package name", manifestPath)
	}

	srcDir := filepath.Join(root, sourceRoot)
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("source root %q: %w", srcDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %q is not a directory", srcDir)
	}

	return &m, nil
}
