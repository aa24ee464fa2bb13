// Package config manages the client's persistent YAML configuration.
//
// The file stores known controllers keyed by MAC (name, last known
// address, account, per-channel labels) together with application
// preferences. It lives in the platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/extalife/config.yaml or $HOME/.config/extalife/config.yaml
//   - macOS: $HOME/.config/extalife/config.yaml
//   - Windows: %LOCALAPPDATA%\extalife\config.yaml
//
// Passwords are never written to this file; they are prompted when needed.
// Saves are atomic (write to a temp file, rename over the original).
package config
