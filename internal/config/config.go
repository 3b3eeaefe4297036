package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/logging"
)

// Config represents the complete trovo configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Display DisplayConfig `yaml:"display" json:"display"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// ScanConfig controls which files become documents.
type ScanConfig struct {
	// Paths are the roots to walk. Empty means the working directory.
	Paths []string `yaml:"paths,omitempty" json:"paths,omitempty"`
	// FileType is one of the groups in FileTypes, or "any".
	FileType string `yaml:"filetype" json:"filetype"`
	// Exclude lists extensions removed from the selected group.
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// UseCache reuses cached file lists instead of rescanning every run.
	UseCache       bool `yaml:"use_cache" json:"use_cache"`
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`
	IncludeHidden  bool `yaml:"include_hidden" json:"include_hidden"`
}

// IndexConfig controls index construction.
type IndexConfig struct {
	// K is the shingle length. 0 derives it from the query's shortest word.
	K int `yaml:"k" json:"k"`
	// DataDir holds the file catalog and index snapshot.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SearchConfig controls result presentation and caching.
type SearchConfig struct {
	Results   int `yaml:"results" json:"results"`
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// DisplayConfig controls the interactive picker.
type DisplayConfig struct {
	// Opener is the command used to open a chosen result. Empty picks the
	// platform default.
	Opener  string `yaml:"opener,omitempty" json:"opener,omitempty"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
	Plain   bool   `yaml:"plain" json:"plain"`
}

// ServerConfig controls `trovo serve`.
type ServerConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Watch    bool   `yaml:"watch" json:"watch"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			FileType: FileTypeAny,
		},
		Index: IndexConfig{
			K:       0,
			DataDir: DefaultDataDir(),
		},
		Search: SearchConfig{
			Results:   10,
			CacheSize: 256,
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:7878",
			Debounce: "500ms",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 5,
			MaxFiles:  3,
		},
	}
}

// DefaultDataDir returns $XDG_DATA_HOME/trovo, or ~/.local/share/trovo.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "trovo")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "trovo")
	}
	return filepath.Join(home, ".local", "share", "trovo")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/trovo/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/trovo/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "trovo", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "trovo", "config.yaml")
	}
	return filepath.Join(home, ".config", "trovo", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the effective configuration. Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User config (~/.config/trovo/config.yaml)
//  3. Explicit config file (--config), which must exist when given
//  4. Environment variables (TROVO_*)
func Load(explicitPath string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if explicitPath != "" {
		if !fileExists(explicitPath) {
			return nil, trovoerrors.New(trovoerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", explicitPath), nil).
				WithSuggestion("Run 'trovo config init' to create one")
		}
		if err := cfg.loadYAML(explicitPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML parses path into a scratch Config and merges its non-zero values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return trovoerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies every non-zero field of other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Scan.Paths) > 0 {
		c.Scan.Paths = other.Scan.Paths
	}
	if other.Scan.FileType != "" {
		c.Scan.FileType = other.Scan.FileType
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	c.Scan.UseCache = c.Scan.UseCache || other.Scan.UseCache
	c.Scan.FollowSymlinks = c.Scan.FollowSymlinks || other.Scan.FollowSymlinks
	c.Scan.IncludeHidden = c.Scan.IncludeHidden || other.Scan.IncludeHidden

	if other.Index.K != 0 {
		c.Index.K = other.Index.K
	}
	if other.Index.DataDir != "" {
		c.Index.DataDir = expandHome(other.Index.DataDir)
	}

	if other.Search.Results != 0 {
		c.Search.Results = other.Search.Results
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Display.Opener != "" {
		c.Display.Opener = other.Display.Opener
	}
	c.Display.NoColor = c.Display.NoColor || other.Display.NoColor
	c.Display.Plain = c.Display.Plain || other.Display.Plain

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	c.Server.Watch = c.Server.Watch || other.Server.Watch
	if other.Server.Debounce != "" {
		c.Server.Debounce = other.Server.Debounce
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.MaxSizeMB != 0 {
		c.Log.MaxSizeMB = other.Log.MaxSizeMB
	}
	if other.Log.MaxFiles != 0 {
		c.Log.MaxFiles = other.Log.MaxFiles
	}
}

// applyEnvOverrides applies TROVO_* variables. Malformed numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TROVO_PATHS"); v != "" {
		c.Scan.Paths = filepath.SplitList(v)
	}
	if v := os.Getenv("TROVO_FILETYPE"); v != "" {
		c.Scan.FileType = v
	}
	if v := os.Getenv("TROVO_EXCLUDE"); v != "" {
		c.Scan.Exclude = strings.Split(v, ",")
	}
	if v := os.Getenv("TROVO_USE_CACHE"); v != "" {
		c.Scan.UseCache = parseBool(v)
	}
	if v := os.Getenv("TROVO_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Index.K = k
		}
	}
	if v := os.Getenv("TROVO_DATA_DIR"); v != "" {
		c.Index.DataDir = expandHome(v)
	}
	if v := os.Getenv("TROVO_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.Results = n
		}
	}
	if v := os.Getenv("TROVO_OPENER"); v != "" {
		c.Display.Opener = v
	}
	if v := os.Getenv("TROVO_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TROVO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Index.K < 0 {
		return trovoerrors.ConfigError(fmt.Sprintf("index.k must be 0 (auto) or positive, got %d", c.Index.K), nil)
	}
	if c.Search.Results < 0 {
		return trovoerrors.ConfigError(fmt.Sprintf("search.results must be non-negative, got %d", c.Search.Results), nil)
	}
	if c.Search.CacheSize < 0 {
		return trovoerrors.ConfigError(fmt.Sprintf("search.cache_size must be non-negative, got %d", c.Search.CacheSize), nil)
	}
	if _, err := Extensions(c.Scan.FileType, c.Scan.Exclude); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Server.Debounce); err != nil {
		return trovoerrors.ConfigError(fmt.Sprintf("server.debounce is not a duration: %q", c.Server.Debounce), err)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return trovoerrors.ConfigError(
			fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}
	return nil
}

// DebounceDuration returns Server.Debounce parsed, or 500ms when invalid.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Roots returns the absolute scan roots, defaulting to the working directory.
func (c *Config) Roots() ([]string, error) {
	paths := c.Scan.Paths
	if len(paths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		paths = []string{wd}
	}

	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(expandHome(p))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// LoggingConfig maps the log section onto logging.Config.
func (c *Config) LoggingConfig(verbose bool) logging.Config {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg = logging.VerboseConfig()
	} else {
		cfg.Level = c.Log.Level
	}
	cfg.MaxSizeMB = c.Log.MaxSizeMB
	cfg.MaxFiles = c.Log.MaxFiles
	return cfg
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// JSON renders the configuration for `trovo config show --json`.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func parseBool(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
