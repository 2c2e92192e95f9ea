package rulepack

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"vellum/internal/rules"
)

// DefinitionFile pairs a parsed pack definition with its on-disk source.
type DefinitionFile struct {
	Definition PackDefinition
	Path       string
}

// ParseDefinitionYAML decodes and validates a single pack payload.
func ParseDefinitionYAML(data []byte) (PackDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return PackDefinition{}, fmt.Errorf("rulepack: definition payload is empty")
	}
	var def PackDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return PackDefinition{}, fmt.Errorf("rulepack: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return PackDefinition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads a YAML file from disk and returns the parsed
// pack definition.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("rulepack: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DefinitionFile{}, fmt.Errorf("rulepack: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("rulepack: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("rulepack: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: path}, nil
}

// DiscoverDefinitions loads every *.yaml/*.yml pack under dir, sorted by
// filename. A missing directory is not an error: packs are optional.
func DiscoverDefinitions(dir string) ([]DefinitionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("rulepack: read dir %s: %w", dir, err)
	}
	var files []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		file, err := LoadDefinitionFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// InstallAll discovers packs under dir and installs their rules into the
// registry.
func InstallAll(dir string, registry *rules.Registry) error {
	files, err := DiscoverDefinitions(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := file.Definition.Install(registry); err != nil {
			return fmt.Errorf("rulepack: %s: %w", file.Path, err)
		}
	}
	return nil
}
