// Package config loads the pws.yaml file shared by pws run and the
// operator commands.
package config

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/pithecene-io/pws/gpio"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/shell"
	"github.com/pithecene-io/pws/types"
)

// Adapter types.
const (
	AdapterNone    = "none"
	AdapterRedis   = "redis"
	AdapterWebhook = "webhook"
)

// GPIO modes.
const (
	GPIOStatic = "static"
	GPIOSysfs  = "sysfs"
)

// DefaultHost is the loopback host every collaborator listens on.
const DefaultHost = "127.0.0.1"

// DefaultLogFile is where the appliance keeps the orchestrator log.
const DefaultLogFile = "/pws/log/pws_manager.log"

// Config represents a pws.yaml configuration file.
// Values omitted from the file keep their Default() value.
// CLI flags always override config values.
type Config struct {
	Host         string                   `yaml:"host"`
	Ports        map[types.Role]int       `yaml:"ports"`
	Commands     map[types.Command]string `yaml:"commands"`
	DryRun       bool                     `yaml:"dry_run"`
	WriteTimeout Duration                 `yaml:"write_timeout,omitempty"`
	Log          LogConfig                `yaml:"log"`
	GPIO         GPIOConfig               `yaml:"gpio"`
	Adapter      AdapterConfig            `yaml:"adapter"`
	Notify       NotifyConfig             `yaml:"notify"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// GPIOConfig selects how the boot buttons are read.
type GPIOConfig struct {
	// Mode is static (levels from this file) or sysfs.
	Mode       string      `yaml:"mode"`
	SysfsRoot  string      `yaml:"sysfs_root,omitempty"`
	APButton   int         `yaml:"ap_button"`
	ModeButton int         `yaml:"mode_button"`
	Levels     map[int]int `yaml:"levels,omitempty"`
}

// AdapterConfig holds transition notification settings.
type AdapterConfig struct {
	Type     string            `yaml:"type"`
	URL      string            `yaml:"url,omitempty"`
	Channel  string            `yaml:"channel,omitempty"`
	Encoding string            `yaml:"encoding,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"`
	Retries  *int              `yaml:"retries,omitempty"`
}

// Enabled reports whether notifications are configured.
func (a AdapterConfig) Enabled() bool {
	return a.Type != "" && a.Type != AdapterNone
}

// NotifyConfig bounds the notification queue.
type NotifyConfig struct {
	QueueSize    int      `yaml:"queue_size"`
	DrainTimeout Duration `yaml:"drain_timeout,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	if d.Duration == 0 {
		return "", nil
	}
	return d.String(), nil
}

// Default returns the appliance configuration.
func Default() *Config {
	return &Config{
		Host:     DefaultHost,
		Ports:    maps.Clone(types.DefaultPorts),
		Commands: maps.Clone(shell.DefaultCommands),
		Log: LogConfig{
			Level:      "info",
			File:       DefaultLogFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		GPIO: GPIOConfig{
			Mode:       GPIOStatic,
			APButton:   gpio.DefaultBootPins.APButton,
			ModeButton: gpio.DefaultBootPins.ModeButton,
		},
		Adapter: AdapterConfig{Type: AdapterNone},
		Notify:  NotifyConfig{QueueSize: 64},
	}
}

// ManagerPort is the orchestrator's own receive port.
func (c *Config) ManagerPort() int {
	return c.Ports[types.RoleManager]
}

// Validate checks the configuration for values the orchestrator cannot use.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}

	seen := make(map[int]types.Role, len(c.Ports))
	roles := make([]string, 0, len(c.Ports))
	for r := range c.Ports {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, name := range roles {
		role, err := types.ParseRole(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("ports: %w", err))
			continue
		}
		port := c.Ports[role]
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("ports: %s port %d out of range", role, port))
			continue
		}
		if other, dup := seen[port]; dup {
			errs = append(errs, fmt.Errorf("ports: %s and %s share port %d", other, role, port))
			continue
		}
		seen[port] = role
	}
	if _, ok := c.Ports[types.RoleManager]; !ok {
		errs = append(errs, errors.New("ports: manager port is required"))
	}

	for cmd := range c.Commands {
		if _, err := types.ParseCommand(string(cmd)); err != nil {
			errs = append(errs, fmt.Errorf("commands: %w", err))
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	switch c.GPIO.Mode {
	case "", GPIOStatic, GPIOSysfs:
	default:
		errs = append(errs, fmt.Errorf("gpio: unknown mode %q", c.GPIO.Mode))
	}
	if c.GPIO.APButton < 0 || c.GPIO.ModeButton < 0 {
		errs = append(errs, errors.New("gpio: pin numbers must be >= 0"))
	}

	switch c.Adapter.Type {
	case "", AdapterNone:
	case AdapterRedis, AdapterWebhook:
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter: %s requires a url", c.Adapter.Type))
		}
		if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
			errs = append(errs, fmt.Errorf("adapter: retries must be >= 0, got %d", *c.Adapter.Retries))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter: unknown type %q", c.Adapter.Type))
	}

	if c.Notify.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("notify: queue_size must be >= 0, got %d", c.Notify.QueueSize))
	}

	return errors.Join(errs...)
}
