package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// QueryPlaceholder is replaced by the URL-encoded query in an engine template.
const QueryPlaceholder = "{query}"

// Upper bounds on caller-tunable values. They keep a single invocation from
// asking for unbounded memory or an overflowing time budget.
const (
	MaxResultLimit  = 20
	MaxTimeout      = 5 * time.Minute
	MaxSettleWindow = time.Minute
)

const (
	DefaultEngineTemplate = "https://html.duckduckgo.com/html/?q=" + QueryPlaceholder
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Browser BrowserConfig `yaml:"browser"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type SearchConfig struct {
	EngineTemplate string `yaml:"engine_template"`
	ResultLimit    int    `yaml:"result_limit"`
	ByteBudget     int    `yaml:"byte_budget"`
	// FetchURLBudget caps the text returned by the single-URL fetch tool.
	FetchURLBudget int           `yaml:"fetch_url_budget"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ReadyTimeout   time.Duration `yaml:"ready_timeout"`
	ContentMode    string        `yaml:"content_mode"`
	Concurrency    int           `yaml:"concurrency"`
	// InvocationTimeout bounds a whole tool call; zero derives it from the other timeouts.
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`
}

var searchDurationKeys = map[string]bool{
	"fetch_timeout":      true,
	"search_timeout":     true,
	"settle_delay":       true,
	"ready_timeout":      true,
	"invocation_timeout": true,
}

// UnmarshalYAML accepts a bare number of seconds for duration keys, as the
// environment variables do.
func (s *SearchConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if !searchDurationKeys[key.Value] || val.Kind != yaml.ScalarNode {
				continue
			}
			if tag := val.ShortTag(); tag == "!!int" || tag == "!!float" {
				val.Value += "s"
				val.Tag = "!!str"
			}
		}
	}

	type plain SearchConfig
	return value.Decode((*plain)(s))
}

type BrowserConfig struct {
	ExecPath  string `yaml:"exec_path"`
	ProxyURL  string `yaml:"proxy_url"`
	UserAgent string `yaml:"user_agent"`
	Headless  bool   `yaml:"headless"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			EngineTemplate: DefaultEngineTemplate,
			ResultLimit:    5,
			ByteBudget:     3000,
			FetchURLBudget: 10000,
			FetchTimeout:   30 * time.Second,
			SearchTimeout:  30 * time.Second,
			SettleDelay:    2 * time.Second,
			ReadyTimeout:   5 * time.Second,
			ContentMode:    "text",
			Concurrency:    1,
		},
		Browser: BrowserConfig{
			UserAgent: DefaultUserAgent,
			Headless:  true,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file at path,
// then WEBHUB_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := &envReader{}
	cfg.Search.EngineTemplate = env.str("WEBHUB_ENGINE_TEMPLATE", cfg.Search.EngineTemplate)
	cfg.Search.ResultLimit = env.int("WEBHUB_RESULT_LIMIT", cfg.Search.ResultLimit)
	cfg.Search.ByteBudget = env.int("WEBHUB_BYTE_BUDGET", cfg.Search.ByteBudget)
	cfg.Search.FetchURLBudget = env.int("WEBHUB_FETCH_URL_BUDGET", cfg.Search.FetchURLBudget)
	cfg.Search.FetchTimeout = env.duration("WEBHUB_FETCH_TIMEOUT", cfg.Search.FetchTimeout)
	cfg.Search.SearchTimeout = env.duration("WEBHUB_SEARCH_TIMEOUT", cfg.Search.SearchTimeout)
	cfg.Search.SettleDelay = env.duration("WEBHUB_SETTLE_DELAY", cfg.Search.SettleDelay)
	cfg.Search.ReadyTimeout = env.duration("WEBHUB_READY_TIMEOUT", cfg.Search.ReadyTimeout)
	cfg.Search.ContentMode = env.str("WEBHUB_CONTENT_MODE", cfg.Search.ContentMode)
	cfg.Search.Concurrency = env.int("WEBHUB_CONCURRENCY", cfg.Search.Concurrency)
	cfg.Search.InvocationTimeout = env.duration("WEBHUB_INVOCATION_TIMEOUT", cfg.Search.InvocationTimeout)
	cfg.Browser.ExecPath = env.str("WEBHUB_CHROME_PATH", cfg.Browser.ExecPath)
	cfg.Browser.ProxyURL = env.str("WEBHUB_PROXY_URL", cfg.Browser.ProxyURL)
	cfg.Browser.UserAgent = env.str("WEBHUB_USER_AGENT", cfg.Browser.UserAgent)
	cfg.Browser.Headless = env.bool("WEBHUB_HEADLESS", cfg.Browser.Headless)
	cfg.Server.Addr = env.str("WEBHUB_ADDR", cfg.Server.Addr)
	cfg.Log.Level = env.str("WEBHUB_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = env.str("WEBHUB_LOG_FORMAT", cfg.Log.Format)
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	s := c.Search
	if strings.Count(s.EngineTemplate, QueryPlaceholder) != 1 {
		errs = append(errs, fmt.Errorf("engine_template must contain %s exactly once", QueryPlaceholder))
	}
	if s.ResultLimit <= 0 || s.ResultLimit > MaxResultLimit {
		errs = append(errs, fmt.Errorf("result_limit must be between 1 and %d", MaxResultLimit))
	}
	if s.ByteBudget <= 0 || s.FetchURLBudget <= 0 {
		errs = append(errs, errors.New("byte budgets must be positive"))
	}
	if s.FetchTimeout <= 0 || s.SearchTimeout <= 0 || s.FetchTimeout > MaxTimeout || s.SearchTimeout > MaxTimeout {
		errs = append(errs, fmt.Errorf("fetch_timeout and search_timeout must be positive and at most %s", MaxTimeout))
	}
	if s.SettleDelay < 0 || s.ReadyTimeout < 0 || s.SettleDelay > MaxSettleWindow || s.ReadyTimeout > MaxSettleWindow {
		errs = append(errs, fmt.Errorf("settle_delay and ready_timeout must be between 0 and %s", MaxSettleWindow))
	}
	if s.InvocationTimeout < 0 {
		errs = append(errs, errors.New("invocation_timeout must not be negative"))
	}
	if s.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.Browser.UserAgent == "" {
		errs = append(errs, errors.New("user_agent must not be empty"))
	}
	return errors.Join(errs...)
}

// envReader reads overrides from the environment and keeps the first parse error.
type envReader struct {
	err error
}

func (r *envReader) str(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (r *envReader) int(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, err)
		return fallback
	}
	return parsed
}

func (r *envReader) bool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, err)
		return fallback
	}
	return parsed
}

// duration accepts Go duration strings ("45s") or a bare number of seconds.
func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, err)
		return fallback
	}
	return parsed
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("environment variable %s: %w", key, err)
	}
}
