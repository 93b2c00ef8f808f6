// Package jobs loads declarative job definitions for the daemon and turns
// them into runnable tasks.
package jobs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	yaml "gopkg.in/yaml.v3"

	"github.com/altafino/schedkit/internal/types"
	"github.com/altafino/schedkit/internal/validation"
)

const (
	// definitionSuffix marks job definition files inside the jobs directory.
	definitionSuffix = ".job.yaml"

	// defaultsFile, when present in the jobs directory, supplies values for
	// fields a definition leaves unset.
	defaultsFile = "defaults.yaml"
)

// LoadDefinitions loads all *.job.yaml files from dir, applies defaults.yaml
// where fields are unset, and validates each definition. Names must be unique
// across the directory.
func LoadDefinitions(dir string, logger *slog.Logger) ([]*types.JobDefinition, error) {
	defaults, err := loadDefaults(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load job defaults: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	seen := make(map[string]string)
	var defs []*types.JobDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), definitionSuffix) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		def, err := loadSingleDefinition(path, defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to load job %s: %w", entry.Name(), err)
		}

		if err := validation.ValidateJob(def); err != nil {
			return nil, fmt.Errorf("invalid job %s: %w", entry.Name(), err)
		}

		if prev, exists := seen[def.Name]; exists {
			return nil, fmt.Errorf("duplicate job name %q in %s (already defined in %s)", def.Name, entry.Name(), prev)
		}
		seen[def.Name] = entry.Name()
		defs = append(defs, def)

		logger.Debug("loaded job definition",
			"job", def.Name,
			"enabled", def.Enabled,
			"file", entry.Name(),
		)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func loadDefaults(dir string) (*types.JobDefinition, error) {
	data, err := os.ReadFile(filepath.Join(dir, defaultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	defaults := &types.JobDefinition{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func loadSingleDefinition(path string, defaults *types.JobDefinition) (*types.JobDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables in the definition file
	expanded := os.ExpandEnv(string(data))

	def := &types.JobDefinition{}
	if err := yaml.Unmarshal([]byte(expanded), def); err != nil {
		return nil, err
	}

	if defaults != nil {
		// Merge the definition over a copy of the defaults
		base := &types.JobDefinition{}
		if err := mergo.Merge(base, defaults); err != nil {
			return nil, fmt.Errorf("failed to copy defaults: %w", err)
		}
		if err := mergo.Merge(base, def, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge definition with defaults: %w", err)
		}
		def = base
	}

	return def, nil
}
