// ABOUTME: Resolves a named Ghost instance by merging settings with its secret admin key.
// ABOUTME: Defines the Provider interface consumed by the publisher and MCP server.
package config

import (
	"os"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/models"
)

// Provider supplies instance settings and secrets by instance name.
type Provider interface {
	// InstanceNames lists configured instances, sorted.
	InstanceNames() []string

	// Settings returns the non-secret settings of an instance.
	Settings(name string) (InstanceSettings, bool)

	// Secret returns the admin key of an instance.
	Secret(name string) (string, bool)
}

// InstanceConfig is a fully resolved Ghost instance.
type InstanceConfig struct {
	Name         string
	URL          string
	AdminKey     string
	Format       string
	APIVersion   string
	PostPrefix   string
	PagePrefix   string
	UploadImages bool
}

var adminKeyPattern = regexp.MustCompile(`^[0-9a-f]+:[0-9a-fA-F]+$`)

// Validate checks the resolved instance.
func (c InstanceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.RequestURL),
		validation.Field(&c.AdminKey, validation.Required, validation.Match(adminKeyPattern).Error("must be <id>:<hex secret>")),
		validation.Field(&c.Format, validation.Required, validation.In(FormatLexical, FormatMobiledoc)),
		validation.Field(&c.APIVersion, validation.Required),
	)
}

// Resolve merges the named instance's settings with its admin key.
func Resolve(p Provider, name string) (*InstanceConfig, error) {
	settings, ok := p.Settings(name)
	if !ok {
		return nil, apperr.Config("no config for instance %q", name)
	}
	key, ok := p.Secret(name)
	if !ok || key == "" {
		return nil, apperr.Config("no admin key for instance %q (set %s)", name, SecretKey(name))
	}

	settings = settings.withDefaults()
	ic := &InstanceConfig{
		Name:         name,
		URL:          settings.URL,
		AdminKey:     strings.TrimSpace(key),
		Format:       settings.Format,
		APIVersion:   settings.APIVersion,
		PostPrefix:   settings.PostPrefix,
		PagePrefix:   settings.PagePrefix,
		UploadImages: settings.UploadImages,
	}
	if err := ic.Validate(); err != nil {
		return nil, apperr.Config("invalid config for instance %q: %v", name, err)
	}
	return ic, nil
}

// PrefixMatch is a note routed by a configured path prefix.
type PrefixMatch struct {
	Instance  string
	Type      models.ContentType
	Remainder string
}

// MatchPrefix finds the first instance (by name) whose post or page prefix
// matches the note name. Post prefixes are checked before page prefixes.
func MatchPrefix(p Provider, noteName string) (PrefixMatch, bool) {
	for _, name := range p.InstanceNames() {
		s, ok := p.Settings(name)
		if !ok {
			continue
		}
		candidates := []struct {
			prefix string
			ct     models.ContentType
		}{
			{s.PostPrefix, models.TypePost},
			{s.PagePrefix, models.TypePage},
		}
		for _, c := range candidates {
			if c.prefix == "" || !strings.HasPrefix(noteName, c.prefix) {
				continue
			}
			rest := strings.Trim(strings.TrimPrefix(noteName, c.prefix), "/")
			if rest == "" {
				continue
			}
			return PrefixMatch{Instance: name, Type: c.ct, Remainder: rest}, true
		}
	}
	return PrefixMatch{}, false
}

// FileProvider serves settings from a Config and keys from a secrets map,
// with GHOSTPOST_KEY_<NAME> environment variables taking precedence.
type FileProvider struct {
	cfg     *Config
	secrets map[string]string
	getenv  func(string) string
}

// NewFileProvider builds a provider over loaded config and secrets.
func NewFileProvider(cfg *Config, secrets map[string]string) *FileProvider {
	if secrets == nil {
		secrets = map[string]string{}
	}
	return &FileProvider{cfg: cfg, secrets: secrets, getenv: os.Getenv}
}

// InstanceNames implements Provider.
func (f *FileProvider) InstanceNames() []string {
	names := f.cfg.InstanceNames()
	sort.Strings(names)
	return names
}

// Settings implements Provider.
func (f *FileProvider) Settings(name string) (InstanceSettings, bool) {
	s, ok := f.cfg.Instances[name]
	return s, ok
}

// Secret implements Provider.
func (f *FileProvider) Secret(name string) (string, bool) {
	key := SecretKey(name)
	if v := f.getenv(key); v != "" {
		return v, true
	}
	v, ok := f.secrets[key]
	return v, ok
}
