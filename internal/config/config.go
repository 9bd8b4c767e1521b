// internal/config/config.go
//
// This package handles configuration and the .chequedesk directory structure.
// Every directory the desk is started from gets a .chequedesk/ folder holding
// the config file, the record store and the logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/chequedesk/internal/cheque"
)

const (
	// DeskDir is the name of the directory we create in each working directory
	DeskDir = ".chequedesk"

	defaultStoreFile     = "cheques.db"
	defaultDebounce      = 400 * time.Millisecond
	defaultAlert         = 600 * time.Millisecond
	defaultLookupTimeout = 5 * time.Second
	defaultBridgeHost    = "127.0.0.1"
	defaultBridgePort    = 8765
)

const defaultProjectConfigYAML = `# chequedesk configuration
version: 1

code:
  # Printed in front of every cheque number, e.g. BSF123-456789-0123.
  prefix: BSF

entry:
  # Quiet period after the last digit before the uniqueness lookup runs.
  debounce: 400ms
  # How long the duplicate alert stays highlighted.
  alert: 600ms
  lookup_timeout: 5s
  # ISO region used to validate phone numbers (e.g. MM, GB). Empty disables the check.
  phone_region: ""

# Stamped as createdBy on new cheques. CHEQUEDESK_OPERATOR overrides it.
operator: ""

store:
  path: cheques.db

# Loopback HTTP endpoint used by the public verification page.
bridge:
  enabled: true
  host: 127.0.0.1
  port: 8765
`

// CodeConfig controls cheque number rendering.
type CodeConfig struct {
	Prefix string `yaml:"prefix"`
}

// EntryConfig tunes the entry form timings and validation.
type EntryConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	Alert         time.Duration `yaml:"alert"`
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	PhoneRegion   string        `yaml:"phone_region"`
}

// StoreConfig locates the record store file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// BridgeConfig captures the verification bridge preferences.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .chequedesk/config.yaml.
type ProjectConfig struct {
	Version  int          `yaml:"version"`
	Code     CodeConfig   `yaml:"code"`
	Entry    EntryConfig  `yaml:"entry"`
	Operator string       `yaml:"operator"`
	Store    StoreConfig  `yaml:"store"`
	Bridge   BridgeConfig `yaml:"bridge"`
}

// Config holds the runtime configuration for the desk.
type Config struct {
	// ProjectDir is the directory the desk was started from
	ProjectDir string

	// DeskProjectDir is ProjectDir/.chequedesk
	DeskProjectDir string

	Project ProjectConfig
}

// InitDeskDir creates the .chequedesk directory structure in the given
// directory and writes a commented default config if none exists.
//
// Structure created:
// .chequedesk/
// ├── config.yaml
// ├── logs/        <- journey.log
// └── data/        <- spare room for exports
func InitDeskDir(projectDir string) error {
	deskDir := filepath.Join(projectDir, DeskDir)
	dirs := []string{
		deskDir,
		filepath.Join(deskDir, "logs"),
		filepath.Join(deskDir, "data"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(deskDir, "config.yaml"))
}

// NewConfig creates a new Config populated from .env, config.yaml and the
// environment, in that order of precedence (environment wins).
func NewConfig(projectDir string) (*Config, error) {
	loadDotEnv(projectDir)
	cfg := &Config{
		ProjectDir:     projectDir,
		DeskProjectDir: filepath.Join(projectDir, DeskDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeskProjectDir, "logs")
}

// LogPath returns the journey log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DeskProjectDir, "config.yaml")
}

// StorePath resolves the record store file. Relative paths live under
// .chequedesk.
func (c *Config) StorePath() string {
	p := strings.TrimSpace(c.Project.Store.Path)
	if p == "" {
		p = defaultStoreFile
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.DeskProjectDir, p)
}

// Prefix returns the cheque number prefix.
func (c *Config) Prefix() string {
	return c.Project.Code.Prefix
}

// Operator returns the configured operator identity, possibly empty.
func (c *Config) Operator() string {
	return c.Project.Operator
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Code.Prefix) == "" {
		pc.Code.Prefix = cheque.DefaultPrefix
	}
	if pc.Entry.Debounce == 0 {
		pc.Entry.Debounce = defaultDebounce
	}
	if pc.Entry.Alert == 0 {
		pc.Entry.Alert = defaultAlert
	}
	if pc.Entry.LookupTimeout == 0 {
		pc.Entry.LookupTimeout = defaultLookupTimeout
	}
	if strings.TrimSpace(pc.Store.Path) == "" {
		pc.Store.Path = defaultStoreFile
	}
	if pc.Bridge.Enabled == nil {
		enabled := true
		pc.Bridge.Enabled = &enabled
	}
	if strings.TrimSpace(pc.Bridge.Host) == "" {
		pc.Bridge.Host = defaultBridgeHost
	}
	if pc.Bridge.Port == 0 {
		pc.Bridge.Port = defaultBridgePort
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Code.Prefix = strings.ToUpper(strings.TrimSpace(pc.Code.Prefix))
	pc.Entry.PhoneRegion = strings.ToUpper(strings.TrimSpace(pc.Entry.PhoneRegion))
	pc.Operator = strings.TrimSpace(pc.Operator)
	pc.Store.Path = strings.TrimSpace(pc.Store.Path)
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.ContainsAny(pc.Code.Prefix, "-0123456789 ") {
		return fmt.Errorf("code.prefix must not contain digits, spaces or '-'")
	}
	if pc.Entry.Debounce < 0 || pc.Entry.Alert < 0 || pc.Entry.LookupTimeout < 0 {
		return fmt.Errorf("entry durations must be positive")
	}
	if pc.Entry.PhoneRegion != "" && len(pc.Entry.PhoneRegion) != 2 {
		return fmt.Errorf("entry.phone_region must be a two-letter region code")
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	return nil
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if op := strings.TrimSpace(os.Getenv("CHEQUEDESK_OPERATOR")); op != "" {
		pc.Operator = op
	}
	if value := strings.TrimSpace(os.Getenv("CHEQUEDESK_BRIDGE_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			pc.Bridge.Enabled = &enabled
		}
	}
	if host := strings.TrimSpace(os.Getenv("CHEQUEDESK_BRIDGE_HOST")); host != "" {
		pc.Bridge.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("CHEQUEDESK_BRIDGE_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed >= 0 && parsed <= 65535 {
			pc.Bridge.Port = parsed
		}
	}
}

// loadDotEnv reads ProjectDir/.env when present. Existing environment
// variables are never overwritten.
func loadDotEnv(projectDir string) {
	path := filepath.Join(projectDir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
