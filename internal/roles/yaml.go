package roles

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
)

// ParseRoleYAML decodes and validates a single role definition payload.
func ParseRoleYAML(data []byte) (Role, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Role{}, fmt.Errorf("role: definition payload is empty")
	}
	var r Role
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Role{}, fmt.Errorf("role: decode definition: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Role{}, err
	}
	return r.normalized(), nil
}

// LoadRoleFile reads a YAML file from disk and returns the parsed role.
func LoadRoleFile(path string) (Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Role{}, fmt.Errorf("role: read %s: %w", path, err)
	}
	r, err := ParseRoleYAML(data)
	if err != nil {
		return Role{}, fmt.Errorf("role: %s: %w", path, err)
	}
	return r, nil
}

// LoadDir scans a directory for *.yaml role definitions and registers each
// one. A missing directory is treated as "no custom roles" to simplify
// startup.
func (reg *Registry) LoadDir(dir string) error {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil
	}

	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("role: read %s: %w", trimmed, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(trimmed, entry.Name()))
	}
	sort.Strings(paths)

	for _, path := range paths {
		r, err := LoadRoleFile(path)
		if err != nil {
			return err
		}
		if err := reg.Register(r); err != nil {
			return fmt.Errorf("role: %s: %w", path, err)
		}
	}
	return nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
