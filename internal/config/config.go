// ABOUTME: Configuration management for ghostpost with YAML config loading.
// ABOUTME: Holds per-instance Ghost settings, the notes dir, logging, and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/ghostpost/internal/logging"
)

// Envelope formats understood by Ghost.
const (
	FormatLexical   = "lexical"
	FormatMobiledoc = "mobiledoc"
)

// DefaultAPIVersion is the Admin API path segment used when none is configured.
const DefaultAPIVersion = "v3"

// Config stores ghostpost configuration loaded from ~/.config/ghostpost/config.yaml.
type Config struct {
	NotesDir    string                      `yaml:"notes_dir,omitempty"`
	SecretsPath string                      `yaml:"secrets_path,omitempty"`
	Logging     logging.Config              `yaml:"logging,omitempty"`
	Instances   map[string]InstanceSettings `yaml:"instances,omitempty"`
}

// InstanceSettings holds the non-secret connection settings of one Ghost site.
type InstanceSettings struct {
	URL          string `yaml:"url"`
	Format       string `yaml:"format,omitempty"`
	APIVersion   string `yaml:"api_version,omitempty"`
	PostPrefix   string `yaml:"post_prefix,omitempty"`
	PagePrefix   string `yaml:"page_prefix,omitempty"`
	UploadImages bool   `yaml:"upload_images,omitempty"`
}

// withDefaults fills in the envelope format and API version.
func (s InstanceSettings) withDefaults() InstanceSettings {
	if s.Format == "" {
		s.Format = FormatLexical
	}
	if s.APIVersion == "" {
		s.APIVersion = DefaultAPIVersion
	}
	s.URL = strings.TrimRight(s.URL, "/")
	return s
}

// InstanceNames returns the configured instance names, sorted.
func (c *Config) InstanceNames() []string {
	names := make([]string, 0, len(c.Instances))
	for name := range c.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetInstance adds or replaces an instance's settings.
func (c *Config) SetInstance(name string, s InstanceSettings) {
	if c.Instances == nil {
		c.Instances = map[string]InstanceSettings{}
	}
	c.Instances[name] = s
}

// GetNotesDir returns the notes directory, defaulting to ~/notes.
func (c *Config) GetNotesDir() (string, error) {
	if c.NotesDir != "" {
		return ExpandPath(c.NotesDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "notes"), nil
}

// GetSecretsPath returns the secrets file path, defaulting to secrets.env next to config.yaml.
func (c *Config) GetSecretsPath() (string, error) {
	if c.SecretsPath != "" {
		return ExpandPath(c.SecretsPath)
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "secrets.env"), nil
}

func configDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ghostpost"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
