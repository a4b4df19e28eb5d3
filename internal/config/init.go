package config

import (
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.Source = "./vault"
	cfg.Destination = "./site/docs"
	cfg.Navigation.NavbarItems = []NavbarItem{
		{Label: "Blog", To: "/blog", Position: "left"},
	}
	return cfg
}

// Init writes an example configuration to configPath. An existing file is
// only replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	data, err := Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config directory").
				WithContext("path", dir).Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
