// Package config provides configuration loading and structs for the upcase server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Convert ConvertConfig `yaml:"convert"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// StorageConfig holds the transient upload and output directories.
type StorageConfig struct {
	UploadDir     string   `yaml:"upload_dir"`
	OutputDir     string   `yaml:"output_dir"`
	StaleAfter    Duration `yaml:"stale_after"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// ConvertConfig holds conversion limits and resources.
type ConvertConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// FontPath is a TTF used for PDF output. Empty means the embedded Go Regular font.
	FontPath string `yaml:"font_path"`
}

// Duration is a time.Duration that reads and writes as a string such as "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a config with every default applied. It is used when no config
// file exists; relative directories then resolve against the working directory.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Storage.OutputDir = expandPath(cfg.Storage.OutputDir, configDir)
	if cfg.Convert.FontPath != "" {
		cfg.Convert.FontPath = expandPath(cfg.Convert.FontPath, configDir)
	}
	if err := cfg.Storage.checkDirs(configDir); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Convert.MaxUploadBytes < 0 {
		return errors.New("convert.max_upload_bytes must not be negative")
	}
	if filepath.Clean(c.Storage.UploadDir) == filepath.Clean(c.Storage.OutputDir) {
		return errors.New("storage.upload_dir and storage.output_dir must differ")
	}
	return nil
}

// checkDirs runs on expanded paths. The janitor deletes stale entries in both
// directories, so they must not overlap each other or contain configDir.
func (s *StorageConfig) checkDirs(configDir string) error {
	upload, err := filepath.Abs(s.UploadDir)
	if err != nil {
		return fmt.Errorf("resolve storage.upload_dir: %w", err)
	}
	output, err := filepath.Abs(s.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve storage.output_dir: %w", err)
	}
	cfgDir, err := filepath.Abs(configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if within(upload, output) || within(output, upload) {
		return fmt.Errorf("storage.upload_dir %s and storage.output_dir %s must not overlap", upload, output)
	}
	for key, dir := range map[string]string{"upload_dir": upload, "output_dir": output} {
		if within(dir, cfgDir) {
			return fmt.Errorf("storage.%s %s must not contain the config directory %s", key, dir, cfgDir)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it. Both must be absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Addr returns the listen address in host:port form.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
