package dsl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// ParseFile loads one machine definition from a YAML file.
func ParseFile(path string) (string, domain.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.Definition{}, fmt.Errorf("failed to read definition: %w", err)
	}
	id, def, err := Parse(data)
	if err != nil {
		return "", domain.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return id, def, nil
}

// LoadDir loads every .yaml/.yml definition in dir (non-recursive) and
// returns them keyed by machine ID, in deterministic file order. A
// duplicate machine ID across files is an error; inside a registry a
// duplicate would silently replace the earlier machine.
func LoadDir(dir string) (map[string]domain.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	defs := make(map[string]domain.Definition, len(files))
	for _, name := range files {
		id, def, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if _, dup := defs[id]; dup {
			return nil, fmt.Errorf("duplicate machine id %q in %s", id, name)
		}
		defs[id] = def
	}
	return defs, nil
}
