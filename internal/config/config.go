package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"

	"github.com/gerunddev/orgtree/parser"
	"github.com/gerunddev/orgtree/render"
)

// Config represents the orgtree configuration
type Config struct {
	SourceDir       string   `json:"source_dir"`
	OutputDir       string   `json:"output_dir"`
	Format          string   `json:"format"`
	TodoKeywords    []string `json:"todo_keywords,omitempty"`
	Strict          bool     `json:"strict"`
	Highlight       bool     `json:"highlight"`
	Sanitize        bool     `json:"sanitize"`
	Standalone      bool     `json:"standalone"`
	LogFile         string   `json:"log_file"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		SourceDir:       filepath.Join(home, "org"),
		OutputDir:       filepath.Join(home, "org", "public"),
		Format:          string(render.FormatHTML),
		TodoKeywords:    []string{"TODO", "DONE"},
		Highlight:       true,
		Sanitize:        true,
		Standalone:      true,
		LogFile:         filepath.Join(os.TempDir(), "orgtree.log"),
		ExcludePatterns: []string{},
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(xdg.ConfigHome, "orgtree", "config.json")
	}
	return filepath.Join(home, ".config", "orgtree", "config.json")
}

// StateFilePath returns the path of the build cache
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "orgtree", "state.json")
}

// Load reads the config file, falling back to defaults when it does not
// exist. Keys missing from the file keep their default values.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ExcludePatterns == nil {
		cfg.ExcludePatterns = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if c.LogFile == "" {
		return fmt.Errorf("log_file cannot be empty")
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	for _, kw := range c.TodoKeywords {
		if kw == "" || strings.IndexFunc(kw, unicode.IsSpace) >= 0 {
			return fmt.Errorf("invalid todo keyword '%s': must be a single word", kw)
		}
	}

	for _, p := range c.ExcludePatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", p, err)
		}
	}

	return nil
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.SourceDir, err = expandPath(c.SourceDir)
	if err != nil {
		return fmt.Errorf("failed to expand source_dir: %w", err)
	}

	c.OutputDir, err = expandPath(c.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to expand output_dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// OutputFormat returns the parsed format. Validate has already rejected
// unknown names, so an invalid value falls back to HTML.
func (c *Config) OutputFormat() render.Format {
	f, err := render.ParseFormat(c.Format)
	if err != nil {
		return render.FormatHTML
	}
	return f
}

// ParserOptions builds parser options from the config. l may be nil.
func (c *Config) ParserOptions(l *log.Logger) parser.Options {
	opts := parser.DefaultOptions()
	if len(c.TodoKeywords) > 0 {
		opts.TodoKeywords = append([]string(nil), c.TodoKeywords...)
	}
	opts.Strict = c.Strict
	opts.Logger = l
	return opts
}

// RenderOptions builds renderer options from the config.
func (c *Config) RenderOptions(idMap map[string]string) render.Options {
	return render.Options{
		HTML: render.HTMLOptions{
			HeadingIDs: true,
			Highlight:  c.Highlight,
			Sanitize:   c.Sanitize,
			Standalone: c.Standalone,
		},
		Markdown: render.MarkdownOptions{IDMap: idMap},
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
