package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnsureConfig writes the default config into dataDir if none exists yet and
// returns the path to use. First-run bootstrap is explicit: the file is
// created here, never implied by the read path.
func EnsureConfig(dataDir string) (string, error) {
	path := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	b, err := yaml.Marshal(Default())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
