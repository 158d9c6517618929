// Package config provides configuration for the blog binary.
// Loads from: CLI flags > env vars (and .env) > .blog/config.toml > built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Directory and file names relative to the site root.
const (
	ConfigDirName  = ".blog"
	ConfigFileName = "config.toml"
	VisitsDBName   = "visits.db"
)

// Keyword extraction defaults.
const (
	DefaultKeywordCount  = 60
	DefaultKeywordMaxLen = 12
)

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all blog configuration, loaded from TOML + env + flags.
type Config struct {
	// Root is the site root every relative path is resolved against.
	// It is never read from the file itself.
	Root string `toml:"-"`

	Site     SiteConfig     `toml:"site"`
	Content  ContentConfig  `toml:"content"`
	Build    BuildConfig    `toml:"build"`
	Server   ServerConfig   `toml:"server"`
	Visits   VisitsConfig   `toml:"visits"`
	Keywords KeywordsConfig `toml:"keywords"`
	Log      LogConfig      `toml:"log"`
}

// SiteConfig holds presentation settings handed to the front-end.
type SiteConfig struct {
	Title         string `toml:"title"`
	Welcome       string `toml:"welcome"`
	Uncategorized string `toml:"uncategorized"` // sentinel group label
}

// ContentConfig holds source directories.
type ContentConfig struct {
	PostsDir  string `toml:"posts_dir"`
	ImagesDir string `toml:"images_dir"`
	PublicDir string `toml:"public_dir"`
}

// BuildConfig holds static bundle settings.
type BuildConfig struct {
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
}

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	LocalOnly     bool     `toml:"local_only"`
	CORSOrigins   []string `toml:"cors_origins"`
	WatchDebounce string   `toml:"watch_debounce"` // time.Duration string
}

// VisitsConfig holds visit counter settings.
type VisitsConfig struct {
	DataDir      string `toml:"data_dir"`
	BadgeID      string `toml:"badge_id"`
	BadgeURL     string `toml:"badge_url"`
	BadgeTimeout string `toml:"badge_timeout"` // time.Duration string
}

// KeywordsConfig tunes keyword extraction.
type KeywordsConfig struct {
	Count     int `toml:"count"`
	MaxLength int `toml:"max_length"`
}

// LogConfig controls log verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Root: ".",
		Site: SiteConfig{
			Title:         "My Blog",
			Welcome:       "Welcome to my blog",
			Uncategorized: "Uncategorized",
		},
		Content: ContentConfig{
			PostsDir:  filepath.Join("content", "posts"),
			ImagesDir: filepath.Join("content", "images"),
			PublicDir: "public",
		},
		Build: BuildConfig{
			OutputDir: "dist",
			Workers:   4,
		},
		Server: ServerConfig{
			Addr:          "localhost:5173",
			LocalOnly:     true,
			WatchDebounce: "500ms",
		},
		Visits: VisitsConfig{
			DataDir:      ConfigDirName,
			BadgeURL:     "https://visitor-badge.laobi.icu/badge",
			BadgeTimeout: "5s",
		},
		Keywords: KeywordsConfig{
			Count:     DefaultKeywordCount,
			MaxLength: DefaultKeywordMaxLen,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load merges all configuration sources for the site rooted at root:
// defaults < TOML file < .env < env vars. An empty root means the CWD.
func Load(root string) (*Config, error) {
	if root == "" {
		root = "."
	}
	cfg := DefaultConfig()
	cfg.Root = root

	configPath := FilePath(root)
	if _, err := os.Stat(configPath); err == nil {
		meta, err := toml.DecodeFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
		warnUnknownKeys(meta, configPath)
	}

	// .env never overrides variables already set in the environment.
	envPath := filepath.Join(root, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BLOG_POSTS_DIR"); v != "" {
		cfg.Content.PostsDir = v
	}
	if v := os.Getenv("BLOG_IMAGES_DIR"); v != "" {
		cfg.Content.ImagesDir = v
	}
	if v := os.Getenv("BLOG_OUTPUT_DIR"); v != "" {
		cfg.Build.OutputDir = v
	}
	if v := os.Getenv("BLOG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BLOG_DATA_DIR"); v != "" {
		cfg.Visits.DataDir = v
	}
	if v := os.Getenv("BLOG_BADGE_ID"); v != "" {
		cfg.Visits.BadgeID = v
	}
	if v := os.Getenv("BLOG_BADGE_URL"); v != "" {
		cfg.Visits.BadgeURL = v
	}
	if v := os.Getenv("BLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BLOG_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Build.Workers = n
		}
	}
	if v := os.Getenv("BLOG_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, o)
			}
		}
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	err := validation.Errors{
		"build": validation.ValidateStruct(&c.Build,
			validation.Field(&c.Build.OutputDir, validation.Required),
			validation.Field(&c.Build.Workers, validation.Required, validation.Min(1), validation.Max(64)),
		),
		"content": validation.ValidateStruct(&c.Content,
			validation.Field(&c.Content.PostsDir, validation.Required),
		),
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Addr, validation.Required),
			validation.Field(&c.Server.WatchDebounce, validation.By(isDuration)),
		),
		"visits": validation.ValidateStruct(&c.Visits,
			validation.Field(&c.Visits.DataDir, validation.Required),
			validation.Field(&c.Visits.BadgeTimeout, validation.By(isDuration)),
		),
		"keywords": validation.ValidateStruct(&c.Keywords,
			validation.Field(&c.Keywords.Count, validation.Required, validation.Min(1)),
			validation.Field(&c.Keywords.MaxLength, validation.Required, validation.Min(2)),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return validation.NewError("validation_duration", "must be a duration such as 500ms or 2s")
	}
	return nil
}

// Resolve joins a configured path onto the site root unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// PostsDir returns the resolved posts directory.
func (c *Config) PostsDir() string { return c.Resolve(c.Content.PostsDir) }

// ImagesDir returns the resolved images directory.
func (c *Config) ImagesDir() string { return c.Resolve(c.Content.ImagesDir) }

// PublicDir returns the resolved public assets directory.
func (c *Config) PublicDir() string { return c.Resolve(c.Content.PublicDir) }

// OutputDir returns the resolved build output directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Build.OutputDir) }

// DBPath returns the path of the visit counter database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Resolve(c.Visits.DataDir), VisitsDBName)
}

// WatchDebounce returns the parsed watcher debounce window (500ms if unset).
func (c *Config) WatchDebounce() time.Duration {
	return parseDurationOr(c.Server.WatchDebounce, 500*time.Millisecond)
}

// BadgeTimeout returns the parsed badge request timeout (5s if unset).
func (c *Config) BadgeTimeout() time.Duration {
	return parseDurationOr(c.Visits.BadgeTimeout, 5*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// FilePath returns where the config file lives for the given site root.
func FilePath(root string) string {
	return filepath.Join(root, ConfigDirName, ConfigFileName)
}

// GenerateConfig writes a default .blog/config.toml with comments.
// An existing file is left untouched.
func GenerateConfig(root string) (string, error) {
	configPath := FilePath(root)
	if _, err := os.Stat(configPath); err == nil {
		return configPath, fmt.Errorf("config already exists: %s", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(generateTOMLContent()), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return configPath, nil
}

func generateTOMLContent() string {
	d := DefaultConfig()
	var b strings.Builder
	b.WriteString("# Blog configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority: CLI flags > environment variables (.env) > this file > built-in defaults\n")
	b.WriteString("# Environment variables: BLOG_POSTS_DIR, BLOG_IMAGES_DIR, BLOG_OUTPUT_DIR,\n")
	b.WriteString("#   BLOG_ADDR, BLOG_DATA_DIR, BLOG_BADGE_ID, BLOG_BADGE_URL, BLOG_LOG_LEVEL,\n")
	b.WriteString("#   BLOG_WORKERS, BLOG_CORS_ORIGINS\n\n")

	b.WriteString("[site]\n")
	b.WriteString(fmt.Sprintf("title = %q\n", d.Site.Title))
	b.WriteString(fmt.Sprintf("welcome = %q\n", d.Site.Welcome))
	b.WriteString(fmt.Sprintf("uncategorized = %q  # label for posts without a date or category\n\n", d.Site.Uncategorized))

	b.WriteString("[content]\n")
	b.WriteString(fmt.Sprintf("posts_dir = %q\n", filepath.ToSlash(d.Content.PostsDir)))
	b.WriteString(fmt.Sprintf("images_dir = %q\n", filepath.ToSlash(d.Content.ImagesDir)))
	b.WriteString(fmt.Sprintf("public_dir = %q\n\n", d.Content.PublicDir))

	b.WriteString("[build]\n")
	b.WriteString(fmt.Sprintf("output_dir = %q\n", d.Build.OutputDir))
	b.WriteString(fmt.Sprintf("workers = %d\n\n", d.Build.Workers))

	b.WriteString("[server]\n")
	b.WriteString(fmt.Sprintf("addr = %q\n", d.Server.Addr))
	b.WriteString("local_only = true\n")
	b.WriteString("# cors_origins = [\"http://localhost:3000\"]\n")
	b.WriteString(fmt.Sprintf("watch_debounce = %q\n\n", d.Server.WatchDebounce))

	b.WriteString("[visits]\n")
	b.WriteString(fmt.Sprintf("data_dir = %q\n", d.Visits.DataDir))
	b.WriteString("# badge_id = \"example.github.io\"  # unset = local counter only\n")
	b.WriteString(fmt.Sprintf("badge_url = %q\n", d.Visits.BadgeURL))
	b.WriteString(fmt.Sprintf("badge_timeout = %q\n\n", d.Visits.BadgeTimeout))

	b.WriteString("[keywords]\n")
	b.WriteString(fmt.Sprintf("count = %d\n", d.Keywords.Count))
	b.WriteString(fmt.Sprintf("max_length = %d\n\n", d.Keywords.MaxLength))

	b.WriteString("[log]\n")
	b.WriteString(fmt.Sprintf("level = %q\n", d.Log.Level))
	return b.String()
}

// Show returns the effective configuration as TOML.
func Show(cfg *Config) string {
	var b strings.Builder
	b.WriteString("# Effective blog configuration (merged from all sources)\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Sprintf("# Error encoding config: %v\n", err)
	}
	return b.String()
}

// configSuggestions maps common wrong keys to the correct TOML key name.
var configSuggestions = map[string]string{
	"posts":       "posts_dir",
	"content_dir": "posts_dir",
	"images":      "images_dir",
	"out":         "output_dir",
	"outdir":      "output_dir",
	"dist":        "output_dir",
	"port":        "addr",
	"listen":      "addr",
	"badge":       "badge_id",
	"page_id":     "badge_id",
	"top_n":       "count",
	"max_len":     "max_length",
}

// warnUnknownKeys prints warnings for unrecognized config keys.
func warnUnknownKeys(meta toml.MetaData, configPath string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	fname := filepath.Base(configPath)
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]
		if suggestion, ok := configSuggestions[strings.ToLower(lastPart)]; ok {
			fmt.Fprintf(os.Stderr, "blog: warning: unknown key %q in %s (did you mean %q?)\n", keyStr, fname, suggestion)
		} else {
			fmt.Fprintf(os.Stderr, "blog: warning: unknown key %q in %s\n", keyStr, fname)
		}
	}
}
