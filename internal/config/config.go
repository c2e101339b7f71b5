package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values used when a field is omitted from the config file.
const (
	DefaultListen          = ":8050"
	DefaultTemplatesDir    = "internal/web/templates"
	DefaultDiagDBPath      = "diagnostics.db"
	DefaultMaxInputBytes   = 64 * 1024
	DefaultGridSize        = 8
	DefaultCellValue       = 2
	DefaultShutdownTimeout = time.Second
	DefaultAssetsHost      = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ServerConfig is the root configuration of the venus server. Every field is
// optional; the Get* accessors supply defaults for anything left unset.
type ServerConfig struct {
	Listen       *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	DevMode      *bool   `json:"dev_mode,omitempty" yaml:"dev_mode,omitempty"`
	TemplatesDir *string `json:"templates_dir,omitempty" yaml:"templates_dir,omitempty"`

	// DiagDBPath is the sqlite file for render diagnostics. An explicit empty
	// string disables the store.
	DiagDBPath *string `json:"diag_db_path,omitempty" yaml:"diag_db_path,omitempty"`

	MaxInputBytes *int64 `json:"max_input_bytes,omitempty" yaml:"max_input_bytes,omitempty"`

	// Text box default: GridSize rows of GridSize copies of DefaultValue.
	GridSize     *int `json:"grid_size,omitempty" yaml:"grid_size,omitempty"`
	DefaultValue *int `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	ShutdownTimeout *string `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"` // duration string like "1s"
	AssetsHost      *string `json:"assets_host,omitempty" yaml:"assets_host,omitempty"`
}

// EmptyServerConfig returns a ServerConfig with all fields set to nil.
func EmptyServerConfig() *ServerConfig {
	return &ServerConfig{}
}

// LoadServerConfig loads a ServerConfig from a .json, .yaml or .yml file.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServerConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServerConfig) Validate() error {
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	if c.MaxInputBytes != nil && *c.MaxInputBytes <= 0 {
		return fmt.Errorf("max_input_bytes must be positive, got %d", *c.MaxInputBytes)
	}
	if c.GridSize != nil && (*c.GridSize < 1 || *c.GridSize > 64) {
		return fmt.Errorf("grid_size must be between 1 and 64, got %d", *c.GridSize)
	}
	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		d, err := time.ParseDuration(*c.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive, got %s", d)
		}
	}
	return nil
}

// GetListen returns the listen address or the default.
func (c *ServerConfig) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

// GetDevMode returns the dev_mode value or the default.
func (c *ServerConfig) GetDevMode() bool {
	if c.DevMode == nil {
		return false
	}
	return *c.DevMode
}

// GetTemplatesDir returns the on-disk template directory used in dev mode.
func (c *ServerConfig) GetTemplatesDir() string {
	if c.TemplatesDir == nil || *c.TemplatesDir == "" {
		return DefaultTemplatesDir
	}
	return *c.TemplatesDir
}

// GetDiagDBPath returns the diagnostics database path. Empty means disabled.
func (c *ServerConfig) GetDiagDBPath() string {
	if c.DiagDBPath == nil {
		return DefaultDiagDBPath
	}
	return *c.DiagDBPath
}

// GetMaxInputBytes returns the request body cap or the default.
func (c *ServerConfig) GetMaxInputBytes() int64 {
	if c.MaxInputBytes == nil {
		return DefaultMaxInputBytes
	}
	return *c.MaxInputBytes
}

// GetGridSize returns the default grid edge length.
func (c *ServerConfig) GetGridSize() int {
	if c.GridSize == nil {
		return DefaultGridSize
	}
	return *c.GridSize
}

// GetDefaultValue returns the default cell value.
func (c *ServerConfig) GetDefaultValue() int {
	if c.DefaultValue == nil {
		return DefaultCellValue
	}
	return *c.DefaultValue
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return DefaultShutdownTimeout
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return DefaultShutdownTimeout
	}
	return d
}

// GetAssetsHost returns the echarts asset host or the default CDN.
func (c *ServerConfig) GetAssetsHost() string {
	if c.AssetsHost == nil || *c.AssetsHost == "" {
		return DefaultAssetsHost
	}
	return *c.AssetsHost
}
