// Package config loads wordcrawl settings from defaults, a yaml file,
// WORDCRAWL_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/net/http/httpguts"

	"github.com/amosWeiskopf/wordcrawl/pkg/crawler"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
	"github.com/amosWeiskopf/wordcrawl/pkg/state"
)

// AppName names the config file and its XDG directory.
const AppName = "wordcrawl"

// Config holds all application configuration
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Extract ExtractConfig `mapstructure:"extract"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	Depth             int           `mapstructure:"depth"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	LimitConcurrent   int           `mapstructure:"limit_concurrent"`
	SitePolicy        string        `mapstructure:"site_policy"`
	IncludeJS         bool          `mapstructure:"include_js"`
	IncludeCSS        bool          `mapstructure:"include_css"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
	Exclude           []string      `mapstructure:"exclude"`
}

// ExtractConfig holds word extraction configuration
type ExtractConfig struct {
	MinWordLength int      `mapstructure:"min_word_length"`
	MaxWordLength int      `mapstructure:"max_word_length"`
	Filters       []string `mapstructure:"filters"`
	MainContent   bool     `mapstructure:"main_content"`
}

// OutputConfig holds dictionary and state file configuration
type OutputConfig struct {
	File        string `mapstructure:"file"`
	Append      bool   `mapstructure:"append"`
	OutputState bool   `mapstructure:"output_state"`
	StateFile   string `mapstructure:"state_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "text"
	OutputPath string `mapstructure:"output_path"`
	Verbose    bool   `mapstructure:"verbose"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"depth":            "crawler.depth",
	"req-per-sec":      "crawler.requests_per_second",
	"limit-concurrent": "crawler.limit_concurrent",
	"site-policy":      "crawler.site_policy",
	"include-js":       "crawler.include_js",
	"include-css":      "crawler.include_css",
	"user-agent":       "crawler.user_agent",
	"timeout":          "crawler.timeout",
	"connect-timeout":  "crawler.connect_timeout",
	"max-body-size":    "crawler.max_body_size",
	"respect-robots":   "crawler.respect_robots",
	"exclude":          "crawler.exclude",
	"min-word-length":  "extract.min_word_length",
	"max-word-length":  "extract.max_word_length",
	"filters":          "extract.filters",
	"main-content":     "extract.main_content",
	"output":           "output.file",
	"append":           "output.append",
	"output-state":     "output.output_state",
	"state-file":       "output.state_file",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"log-file":         "logging.output_path",
	"verbose":          "logging.verbose",
}

// Load reads configuration. An explicit configPath must exist; otherwise
// wordcrawl.yaml is looked up in ., ./config and the XDG config directory,
// and a missing file is not an error. Only flags in flags that were set on
// the command line override the other sources.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := crawler.DefaultOptions(nil)
	s := state.DefaultSettings()

	v.SetDefault("crawler.depth", s.Depth)
	v.SetDefault("crawler.requests_per_second", s.RequestsPerSecond)
	v.SetDefault("crawler.limit_concurrent", s.LimitConcurrent)
	v.SetDefault("crawler.site_policy", s.SitePolicy.String())
	v.SetDefault("crawler.include_js", false)
	v.SetDefault("crawler.include_css", false)
	v.SetDefault("crawler.user_agent", d.UserAgent)
	v.SetDefault("crawler.timeout", d.Timeout)
	v.SetDefault("crawler.connect_timeout", d.ConnectTimeout)
	v.SetDefault("crawler.max_body_size", d.MaxBodySize)
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("crawler.exclude", []string{})

	v.SetDefault("extract.min_word_length", s.MinWordLength)
	v.SetDefault("extract.max_word_length", s.MaxWordLength)
	v.SetDefault("extract.filters", []string{extractor.FilterNone.String()})
	v.SetDefault("extract.main_content", false)

	v.SetDefault("output.file", "wdict.txt")
	v.SetDefault("output.append", false)
	v.SetDefault("output.output_state", false)
	v.SetDefault("output.state_file", "state-wdict.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
	v.SetDefault("logging.verbose", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := requireString("output.file", c.Output.File); err != nil {
		return err
	}
	if err := requireString("output.state_file", c.Output.StateFile); err != nil {
		return err
	}
	if err := requireString("crawler.user_agent", c.Crawler.UserAgent); err != nil {
		return err
	}
	if !httpguts.ValidHeaderFieldValue(c.Crawler.UserAgent) {
		return fmt.Errorf("%w: crawler.user_agent %q", ErrHeaderFormat, c.Crawler.UserAgent)
	}

	if _, err := crawler.ParseSitePolicy(c.Crawler.SitePolicy); err != nil {
		return fmt.Errorf("%w: crawler.site_policy: %v", ErrInvalidConfig, err)
	}
	if _, err := extractor.ParseFilterModes(c.Extract.Filters); err != nil {
		return fmt.Errorf("%w: extract.filters: %v", ErrInvalidConfig, err)
	}

	switch {
	case c.Crawler.Depth < 0:
		return fmt.Errorf("%w: crawler.depth must not be negative", ErrInvalidConfig)
	case c.Crawler.LimitConcurrent < 1:
		return fmt.Errorf("%w: crawler.limit_concurrent must be at least 1", ErrInvalidConfig)
	case c.Crawler.RequestsPerSecond < 0 || c.Crawler.RequestsPerSecond > crawler.MaxRequestsPerSecond:
		return fmt.Errorf("%w: crawler.requests_per_second must be between 0 and %d", ErrInvalidConfig, crawler.MaxRequestsPerSecond)
	case c.Crawler.MaxBodySize <= 0:
		return fmt.Errorf("%w: crawler.max_body_size must be positive", ErrInvalidConfig)
	case c.Crawler.Timeout <= 0 || c.Crawler.ConnectTimeout <= 0:
		return fmt.Errorf("%w: crawler timeouts must be positive", ErrInvalidConfig)
	case c.Extract.MinWordLength < 0:
		return fmt.Errorf("%w: extract.min_word_length must not be negative", ErrInvalidConfig)
	case c.Extract.MaxWordLength < c.Extract.MinWordLength:
		return fmt.Errorf("%w: extract.max_word_length %d is below min_word_length %d",
			ErrInvalidConfig, c.Extract.MaxWordLength, c.Extract.MinWordLength)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func requireString(key, s string) error {
	if s == "" || strings.TrimSpace(s) != s {
		return fmt.Errorf("%w: %s %q", ErrBlankString, key, s)
	}
	return nil
}

// Settings returns the resumable subset of c. It assumes c is valid.
func (c *Config) Settings() (state.Settings, error) {
	policy, err := crawler.ParseSitePolicy(c.Crawler.SitePolicy)
	if err != nil {
		return state.Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	filters, err := extractor.ParseFilterModes(c.Extract.Filters)
	if err != nil {
		return state.Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return state.Settings{
		SitePolicy:        policy,
		Filters:           filters,
		Depth:             c.Crawler.Depth,
		IncludeJS:         c.Crawler.IncludeJS,
		IncludeCSS:        c.Crawler.IncludeCSS,
		MinWordLength:     c.Extract.MinWordLength,
		MaxWordLength:     c.Extract.MaxWordLength,
		RequestsPerSecond: c.Crawler.RequestsPerSecond,
		LimitConcurrent:   c.Crawler.LimitConcurrent,
	}, nil
}

// CrawlOptions builds crawler options for origin from s and the
// non-resumable crawler settings of c.
func (c *Config) CrawlOptions(origin *url.URL, s state.Settings) crawler.Options {
	return crawler.Options{
		URL:               origin,
		Depth:             s.Depth,
		IncludeJS:         s.IncludeJS,
		IncludeCSS:        s.IncludeCSS,
		SitePolicy:        s.SitePolicy,
		RequestsPerSecond: s.RequestsPerSecond,
		LimitConcurrent:   s.LimitConcurrent,
		UserAgent:         c.Crawler.UserAgent,
		RespectRobots:     c.Crawler.RespectRobots,
		Exclude:           append([]string(nil), c.Crawler.Exclude...),
		MaxBodySize:       c.Crawler.MaxBodySize,
		ConnectTimeout:    c.Crawler.ConnectTimeout,
		Timeout:           c.Crawler.Timeout,
	}
}

// ExtractOptions builds extractor options from s.
func (c *Config) ExtractOptions(s state.Settings) extractor.Options {
	maxLen := s.MaxWordLength
	if maxLen <= 0 {
		maxLen = math.MaxInt
	}
	return extractor.Options{
		MinWordLength: s.MinWordLength,
		MaxWordLength: maxLen,
		IncludeJS:     s.IncludeJS,
		IncludeCSS:    s.IncludeCSS,
		Filters:       append([]extractor.FilterMode(nil), s.Filters...),
		MainContent:   c.Extract.MainContent,
	}
}
