package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration for ponto, stored in ~/.ponto/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// UserID is whose punches are recorded and summarised by default.
	UserID string `json:"user_id"`
	// Timezone is the IANA timezone that defines calendar days and months
	// (e.g. "America/Sao_Paulo"). Empty = the machine's local timezone.
	Timezone string        `json:"timezone"`
	Storage  StorageConfig `json:"storage"`
	Remote   RemoteConfig  `json:"remote"`
}

// StorageConfig selects where punches and employees are kept locally.
type StorageConfig struct {
	// Driver is "json" (one file per day) or "sqlite".
	Driver string `json:"driver"`
	// Path is the data directory (json) or database file/directory (sqlite).
	// Empty = ~/.ponto.
	Path string `json:"path"`
}

// RemoteConfig holds the settings of the shared punch backend.
type RemoteConfig struct {
	// URL is the backend base URL, e.g. "https://xyz.example.co". Empty disables remote.
	URL string `json:"url"`
	// APIKey is the public (anon) key sent as the apikey header.
	APIKey string `json:"api_key"`
	// ClientID identifies ponto to the token endpoint.
	ClientID string `json:"client_id"`
	// TokenURL is the OAuth2 token endpoint. Empty = <url>/auth/v1/token.
	TokenURL string `json:"token_url"`
}

const (
	// DefaultDriver stores human-readable per-day JSON files.
	DefaultDriver = "json"
	// DefaultClientID is sent when no client id is configured.
	DefaultClientID = "ponto-cli"
	// DefaultUserID is used until a real user id is configured or logged in.
	DefaultUserID = "me"
)

// Default returns a Config pre-filled with defaults.
func Default() Config {
	return Config{
		UserID:  DefaultUserID,
		Storage: StorageConfig{Driver: DefaultDriver},
		Remote:  RemoteConfig{ClientID: DefaultClientID},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// ponto configuration – ~/.ponto/config.json
//
// Every setting can also be given as an environment variable with the PONTO_
// prefix (PONTO_USER_ID, PONTO_TIMEZONE, ...) or in a .env file.
{
  // Whose punches "ponto punch", "ponto status" and "ponto balance" use.
  "user_id": "me",

  // IANA timezone defining calendar days and months, e.g. "America/Sao_Paulo".
  // Leave empty to use this machine's timezone.
  "timezone": "",

  // ── Local storage ────────────────────────────────────────────────────────
  "storage": {
    // "json"   – one human-readable file per user and day (default)
    // "sqlite" – a single SQLite database
    "driver": "json",

    // Data directory or database path. Empty = ~/.ponto
    "path": ""
  },

  // ── Shared backend (optional) ────────────────────────────────────────────
  "remote": {
    // Backend base URL. Leave empty to work offline only.
    "url": "",

    // Public API key sent with every request.
    "api_key": "",

    "client_id": "ponto-cli",

    // OAuth2 token endpoint. Empty = <url>/auth/v1/token
    "token_url": ""
  }
}
`

// FilePath returns the path to ~/.ponto/config.json.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ponto", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.ponto/config.json, creating it with annotated defaults on
// first run.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file is created from the
// annotated template and the defaults are returned.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces values the user blanked out in the file.
func (c *Config) fillDefaults() {
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Remote.ClientID == "" {
		c.Remote.ClientID = DefaultClientID
	}
	c.Remote.URL = strings.TrimRight(c.Remote.URL, "/")
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("config.storage.driver must be \"json\" or \"sqlite\", got %q", c.Storage.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty means time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RemoteEnabled reports whether a backend URL is configured.
func (c Config) RemoteEnabled() bool {
	return c.Remote.URL != ""
}

// TokenURL returns the configured token endpoint or the backend default.
func (c Config) TokenURL() string {
	if c.Remote.TokenURL != "" {
		return c.Remote.TokenURL
	}
	return c.Remote.URL + "/auth/v1/token"
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
