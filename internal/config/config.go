// Package config loads wcengine.yaml, the working-copy engine's
// configuration file, following the same defaults-then-Unmarshal-then-
// validate shape the teacher's config.Unmarshal uses.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/ardentvc/wcengine/internal/translate"
)

const DefaultAdminDirName = ".wcengine"
const DefaultMaxFuzz = 2
const DefaultShardWidth = 2

// Config is the working copy engine's top-level configuration.
type Config struct {
	AdminDirName string   `yaml:"admin_dir_name"`
	DefaultEOL   string   `yaml:"default_eol"`
	Keywords     string   `yaml:"keywords"`
	ShardWidth   int      `yaml:"pristine_shard_width"`
	MaxFuzz      int      `yaml:"max_fuzz"`
	RepairEOL    bool     `yaml:"repair_eol"`
	BinaryGlobs  []string `yaml:"binary_globs"`
}

// Unmarshal parses config, applying defaults first so a partial YAML
// document still produces a usable Config.
func Unmarshal(content []byte) (*Config, error) {
	cfg := &Config{
		AdminDirName: DefaultAdminDirName,
		DefaultEOL:   "native",
		Keywords:     "",
		ShardWidth:   DefaultShardWidth,
		MaxFuzz:      DefaultMaxFuzz,
		RepairEOL:    true,
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v. make sure to quote strings with special characters (like match patterns)", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and parses a config file at path.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	cfg, err := Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DefaultEOL {
	case "none", "native", "fixed-LF", "fixed-CR", "fixed-CRLF":
	default:
		return fmt.Errorf("default_eol %q is not one of none/native/fixed-LF/fixed-CR/fixed-CRLF", c.DefaultEOL)
	}
	if c.ShardWidth < 1 || c.ShardWidth > 4 {
		return fmt.Errorf("pristine_shard_width must be between 1 and 4, got %d", c.ShardWidth)
	}
	if c.MaxFuzz < 0 {
		return fmt.Errorf("max_fuzz must not be negative, got %d", c.MaxFuzz)
	}
	return nil
}

// EnabledKeywords parses the configured keyword spec into the set the
// translation filter expects.
func (c *Config) EnabledKeywords() map[translate.Keyword]bool {
	return translate.ParseEnabledKeywords(c.Keywords)
}

// EOLStyle returns the configured default EOL style as a translate.EOLStyle.
func (c *Config) EOLStyle() translate.EOLStyle {
	return translate.EOLStyle(c.DefaultEOL)
}
