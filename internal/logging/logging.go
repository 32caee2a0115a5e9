// ABOUTME: Logging provider backed by goliatone/go-logger.
// ABOUTME: Hands out named child loggers and keeps a package-level default.
package logging

import (
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Logger is the subset of go-logger used across ghostpost.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config captures the options exposed by the go-logger adapter.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Provider wraps a go-logger root logger.
type Provider struct {
	root *glog.BaseLogger
}

var defaultProvider *Provider

// NewProvider constructs a logger provider backed by go-logger.
func NewProvider(cfg Config) (*Provider, error) {
	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	return &Provider{root: glog.NewLogger(options...)}, nil
}

// GetLogger returns a child logger for the named component.
func (p *Provider) GetLogger(name string) Logger {
	if p == nil || p.root == nil {
		return NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return p.root
	}
	return p.root.GetLogger(name)
}

// Init installs the package-level provider used by Get.
func Init(cfg Config) error {
	p, err := NewProvider(cfg)
	if err != nil {
		return err
	}
	defaultProvider = p
	return nil
}

// Get returns a named logger from the package-level provider, or a no-op
// logger when Init has not run.
func Get(name string) Logger {
	return defaultProvider.GetLogger(name)
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// NoOp returns a logger that discards everything.
func NoOp() Logger {
	return noop{}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}
