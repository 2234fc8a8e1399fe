package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ProjectFileNames are looked up in the working directory, in order.
var ProjectFileNames = []string{".logsmith.yaml", ".logsmith.yml", ".logsmith.toml"}

// LoadFromUserConfig overlays ~/.logsmith/config.yaml (or .toml) onto p.
func LoadFromUserConfig(p *Properties) error {
	home, err := os.UserHomeDir()
	if err != nil {
		// Best-effort: if we can't resolve home, just skip file loading.
		return nil
	}

	dir := filepath.Join(home, ".logsmith")
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		loaded, err := loadIfExists(filepath.Join(dir, name), p)
		if err != nil || loaded {
			return err
		}
	}
	return nil
}

// LoadFile overlays a YAML or TOML file onto p. Keys missing from the file
// keep their current value.
func LoadFile(path string, p *Properties) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, p)
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadIfExists(path string, p *Properties) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, LoadFile(path, p)
}

// Load resolves the configuration for a working directory. Later sources
// win: defaults, user file, project file, .env and LOGSMITH_* variables.
// Command-line flags are applied by the caller on top of the result.
func Load(dir string) (Properties, error) {
	p := Default()
	if err := LoadFromUserConfig(&p); err != nil {
		return p, err
	}
	for _, name := range ProjectFileNames {
		loaded, err := loadIfExists(filepath.Join(dir, name), &p)
		if err != nil {
			return p, err
		}
		if loaded {
			break
		}
	}

	// Variables already present in the environment are not overwritten.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return p, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := ApplyEnv(&p); err != nil {
		return p, err
	}
	return p, p.Validate()
}
