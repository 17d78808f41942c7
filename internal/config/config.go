// Package config manages application configuration from various sources.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Data defines storage configuration.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// LogConfig controls the application log.
type LogConfig struct {
	Level string `json:"level,omitempty"`
}

// TUIConfig defines the configuration for the Terminal User Interface.
type TUIConfig struct {
	Theme       string `json:"theme,omitempty"`
	BlurDelayMs int    `json:"blurDelayMs,omitempty"`
	MaxVisible  int    `json:"maxVisible,omitempty"`
}

// Field describes one combobox on the form.
type Field struct {
	Name          string   `json:"name"`
	Label         string   `json:"label,omitempty"`
	Catalog       string   `json:"catalog"`
	Multiselect   bool     `json:"multiselect,omitempty"`
	FreeSolo      bool     `json:"freeSolo,omitempty"`
	Clearable     bool     `json:"clearable,omitempty"`
	ClearOnSelect bool     `json:"clearOnSelect,omitempty"`
	GroupBy       string   `json:"groupBy,omitempty"`
	SearchFields  []string `json:"searchFields,omitempty"`
	Match         string   `json:"match,omitempty"`
	Placeholder   string   `json:"placeholder,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Data       Data              `json:"data"`
	WorkingDir string            `json:"wd,omitempty"`
	Debug      bool              `json:"debug,omitempty"`
	Log        LogConfig         `json:"log"`
	TUI        TUIConfig         `json:"tui"`
	Catalogs   map[string]string `json:"catalogs,omitempty"`
	Fields     []Field           `json:"fields,omitempty"`
}

// Application constants
const (
	defaultDataDirectory = ".modforge"
	defaultLogLevel      = "info"
	defaultTheme         = "mocha"
	defaultBlurDelayMs   = 150
	defaultMaxVisible    = 8
	appName              = "modforge"
)

// ErrNotLoaded is returned by accessors used before Load.
var ErrNotLoaded = errors.New("config not loaded")

// Global configuration instance
var cfg *Config

// Load initializes the configuration from environment variables and config files.
// If debug is true, debug mode is enabled and log level is set to debug.
// It returns an error if configuration loading fails.
func Load(workingDir string, debug bool) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	v := viper.New()
	configureViper(v)
	setDefaults(v, debug)

	// Read global config
	if err := readConfig(v.ReadInConfig()); err != nil {
		return nil, err
	}

	// Load and merge local config
	if err := mergeLocalConfig(v, workingDir); err != nil {
		return nil, err
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	loaded.WorkingDir = workingDir
	resolvePaths(loaded)

	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg = loaded
	slog.Debug("config loaded", "file", v.ConfigFileUsed(), "fields", len(cfg.Fields), "catalogs", len(cfg.Catalogs))
	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper(v *viper.Viper) {
	v.SetConfigName(fmt.Sprintf(".%s", appName))
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	v.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(v *viper.Viper, debug bool) {
	v.SetDefault("data.directory", defaultDataDirectory)
	v.SetDefault("tui.theme", defaultTheme)
	v.SetDefault("tui.blurDelayMs", defaultBlurDelayMs)
	v.SetDefault("tui.maxVisible", defaultMaxVisible)

	if debug {
		v.SetDefault("debug", true)
		v.Set("log.level", "debug")
	} else {
		v.SetDefault("debug", false)
		v.SetDefault("log.level", defaultLogLevel)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges configuration from the local directory.
func mergeLocalConfig(v *viper.Viper, workingDir string) error {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	if err := readConfig(local.ReadInConfig()); err != nil {
		return err
	}
	return v.MergeConfigMap(local.AllSettings())
}

// resolvePaths anchors relative catalog paths, globs included, and the data
// directory at the working directory. Catalog names are lowercased to match viper's keys.
func resolvePaths(c *Config) {
	for i := range c.Fields {
		c.Fields[i].Catalog = strings.ToLower(c.Fields[i].Catalog)
	}
	for name, path := range c.Catalogs {
		// blob URLs are left alone
		if path != "" && !filepath.IsAbs(path) && !strings.Contains(path, "://") {
			c.Catalogs[name] = filepath.Join(c.WorkingDir, path)
		}
	}
	if c.Data.Directory != "" && !filepath.IsAbs(c.Data.Directory) {
		c.Data.Directory = filepath.Join(c.WorkingDir, c.Data.Directory)
	}
}

// Validate checks that every field references a declared catalog and uses a
// known match mode.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: name is required", i))
		} else if seen[f.Name] {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true

		if _, ok := c.Catalogs[f.Catalog]; !ok {
			errs = append(errs, fmt.Errorf("field %q: unknown catalog %q", f.Name, f.Catalog))
		}
		switch f.Match {
		case "", "substring", "fuzzy":
		default:
			errs = append(errs, fmt.Errorf("field %q: match must be substring or fuzzy, got %q", f.Name, f.Match))
		}
	}
	if c.TUI.MaxVisible < 0 {
		errs = append(errs, fmt.Errorf("tui.maxVisible must not be negative"))
	}
	if c.TUI.BlurDelayMs < 0 {
		errs = append(errs, fmt.Errorf("tui.blurDelayMs must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate checks the loaded configuration.
func Validate() error {
	if cfg == nil {
		return ErrNotLoaded
	}
	return cfg.Validate()
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	return cfg
}

// Reset forgets the loaded configuration so that Load reads again.
func Reset() {
	cfg = nil
}

// CatalogNames returns the declared catalog names in sorted order.
func (c *Config) CatalogNames() []string {
	names := make([]string, 0, len(c.Catalogs))
	for name := range c.Catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func updateCfgFile(updateCfg func(config *Config)) error {
	if cfg == nil {
		return ErrNotLoaded
	}

	configFile := filepath.Join(cfg.WorkingDir, fmt.Sprintf(".%s.json", appName))
	configData := []byte(`{}`)
	if data, err := os.ReadFile(configFile); err == nil {
		configData = data
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	} else {
		slog.Info("config file not found, creating new one", "path", configFile)
	}

	// Parse into a generic map so keys this package does not model survive.
	var userCfg map[string]any
	if err := json.Unmarshal(configData, &userCfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if userCfg == nil {
		userCfg = map[string]any{}
	}

	var typed Config
	if err := json.Unmarshal(configData, &typed); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	updateCfg(&typed)
	userCfg["tui"] = typed.TUI

	updatedData, err := json.MarshalIndent(userCfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, updatedData, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UpdateTheme updates the theme in the configuration and writes it to the
// local config file.
func UpdateTheme(themeName string) error {
	if cfg == nil {
		return ErrNotLoaded
	}

	cfg.TUI.Theme = themeName

	return updateCfgFile(func(config *Config) {
		config.TUI.Theme = themeName
	})
}
