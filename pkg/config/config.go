/*
Package config manages TOML config for MentionServe services.
*/
package config

import (
	"fmt"
	"path/filepath"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Tokenize tokenize.Config `toml:"tokenizer"`
	Server   ServerConfig    `toml:"server"`
	Dict     DictConfig      `toml:"dict"`
	CLI      CliConfig       `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit        int `toml:"max_limit"`
	DefaultLimit    int `toml:"default_limit"`
	BucketTimeoutMs int `toml:"bucket_timeout_ms"`
}

// DictConfig holds bucket dictionary options.
type DictConfig struct {
	Dir       string `toml:"dir"`
	CacheSize int    `toml:"cache_size"`
	Watch     bool   `toml:"watch"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int    `toml:"default_limit"`
	CursorMarker string `toml:"cursor_marker"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Tokenize: tokenize.DefaultConfig(),
		Server: ServerConfig{
			MaxLimit:        32,
			DefaultLimit:    10,
			BucketTimeoutMs: 250,
		},
		Dict: DictConfig{
			Dir:       "data/",
			CacheSize: 512,
			Watch:     true,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
			CursorMarker: "|",
		},
	}
}

// Tokenizer returns the validated tokenizer options.
func (c *Config) Tokenizer() (tokenize.Config, error) {
	if err := c.Tokenize.Validate(); err != nil {
		return tokenize.Config{}, err
	}
	return c.Tokenize, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.Tokenizer(); err != nil {
		return err
	}
	if c.Server.MaxLimit < 1 {
		return fmt.Errorf("server.max_limit must be >= 1, got %d", c.Server.MaxLimit)
	}
	if c.Server.DefaultLimit < 1 || c.Server.DefaultLimit > c.Server.MaxLimit {
		return fmt.Errorf("server.default_limit must be in [1, %d], got %d", c.Server.MaxLimit, c.Server.DefaultLimit)
	}
	if c.Server.BucketTimeoutMs < 0 {
		return fmt.Errorf("server.bucket_timeout_ms must be >= 0, got %d", c.Server.BucketTimeoutMs)
	}
	if c.CLI.CursorMarker == "" {
		return fmt.Errorf("cli.cursor_marker must not be empty")
	}
	return nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/mentionserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. A file that does not parse is salvaged
// section by section, and a file that parses but fails validation is an
// error.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return config, nil
}

// tryPartialParse keeps every value it can read and defaults the rest.
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(tempConfig, "tokenizer"); ok {
		extractTokenizerConfig(section, &config.Tokenize)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config
}

func extractTokenizerConfig(data map[string]any, tok *tokenize.Config) {
	if val, ok := utils.ExtractString(data, "line_separator"); ok {
		tok.LineSeparator = val
	}
	if val, ok := utils.ExtractInt64(data, "minimum_implicit_length"); ok {
		tok.MinimumImplicitLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_keywords"); ok {
		tok.MaxKeywords = val
	}
	if val, ok := utils.ExtractString(data, "explicit_chars"); ok {
		tok.ExplicitChars = val
	}
	if val, ok := utils.ExtractString(data, "word_break_chars"); ok {
		tok.WordBreakChars = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "bucket_timeout_ms"); ok {
		server.BucketTimeoutMs = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		dict.Dir = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		dict.CacheSize = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		dict.Watch = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "cursor_marker"); ok {
		cli.CursorMarker = val
	}
}

// RebuildConfigFile overwrites configPath, or the default config path when
// empty, with the default config and returns the path written.
func RebuildConfigFile(configPath string) (string, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		configPath = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return "", err
	}
	if err := SaveConfig(DefaultConfig(), configPath); err != nil {
		return "", err
	}
	log.Debugf("Rebuilt config at %s", configPath)
	return configPath, nil
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "built-in defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
