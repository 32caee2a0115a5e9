// ABOUTME: Admin key storage in a dotenv secrets file with environment overrides.
// ABOUTME: Keys are stored per instance as GHOSTPOST_KEY_<NAME>.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// SecretKey returns the dotenv/environment variable name holding an instance's admin key.
func SecretKey(instance string) string {
	name := strings.ToUpper(strings.TrimSpace(instance))
	name = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
	return "GHOSTPOST_KEY_" + name
}

// LoadSecrets reads the secrets file. A missing file yields an empty map.
func LoadSecrets(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	secrets, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	return secrets, nil
}

// SaveSecret stores one instance's admin key, keeping the other entries.
func SaveSecret(path, instance, adminKey string) error {
	secrets, err := LoadSecrets(path)
	if err != nil {
		return err
	}
	secrets[SecretKey(instance)] = adminKey

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	if err := godotenv.Write(secrets, path); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return os.Chmod(path, 0600)
}
