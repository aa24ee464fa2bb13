package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "extalife"
	configFile = "config.yaml"
)

// fileMutex serializes writes so two commands cannot interleave a save.
var fileMutex sync.Mutex

// Dir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/extalife or $HOME/.config/extalife
//   - macOS: $HOME/.config/extalife
//   - Windows: %LOCALAPPDATA%\extalife
func Dir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			return filepath.Join(userProfile, "AppData", "Local", appName), nil
		}
		return filepath.Join(localAppData, appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" && runtime.GOOS != "darwin" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// Path returns the full path of the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the registry from the default location. A missing file is not
// an error; it yields a fresh default registry.
func Load() (*Registry, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the registry from an explicit path.
func LoadFrom(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Controllers == nil {
		registry.Controllers = make(map[string]*Controller)
	}
	if registry.Preferences == nil {
		registry.Preferences = NewRegistry().Preferences
	}
	return &registry, nil
}

// Save writes the registry to the default location, atomically: marshal to
// a temp file, then rename over the old one so a crash never leaves a
// half-written config behind.
func (r *Registry) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return r.SaveTo(path)
}

// SaveTo writes the registry to an explicit path.
func (r *Registry) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Exta Life client configuration.
# Stores known controllers (keyed by MAC) and client preferences.
# Passwords are NEVER stored here; they are prompted when needed.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
