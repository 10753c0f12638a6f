package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	//===============
	// Server
	//===============
	// Interface the HTTP server binds to
	listenHost string
	// Port the HTTP server binds to
	listenPort int

	//===============
	// Upstream
	//===============
	// Base URL of the Studio Ghibli API, without a trailing slash
	baseURL string
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Maximum time of a single upstream request
	timeout time.Duration
	// Maximum number of attempts per upstream request, first try included
	maxAttempt int

	//===============
	// Politeness
	//===============
	// Minimum, fixed waiting time enforced between two upstream requests
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	// Intentional randomness applied to timing.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Cache
	//===============
	// How long a completed refresh is considered fresh
	cacheTTL time.Duration
}

type configDTO struct {
	ListenHost             string        `json:"listenHost,omitempty"`
	ListenPort             int           `json:"listenPort,omitempty"`
	BaseURL                string        `json:"baseUrl,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	CacheTTL               time.Duration `json:"cacheTtl,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	// Only override fields the file actually provides
	if dto.ListenHost != "" {
		cfg.listenHost = dto.ListenHost
	}
	if dto.ListenPort != 0 {
		cfg.listenPort = dto.ListenPort
	}
	if dto.BaseURL != "" {
		cfg.baseURL = dto.BaseURL
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}

	return cfg.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
func WithDefault() *Config {
	defaultConfig := Config{
		listenHost:             "0.0.0.0",
		listenPort:             8000,
		baseURL:                "https://ghibliapi.herokuapp.com",
		userAgent:              "ghibli-proxy/1.0",
		timeout:                time.Second,
		maxAttempt:             3,
		baseDelay:              100 * time.Millisecond,
		jitter:                 50 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     2 * time.Second,
		cacheTTL:               time.Minute,
	}
	return &defaultConfig
}

func (c *Config) WithListenHost(host string) *Config {
	c.listenHost = host
	return c
}

func (c *Config) WithListenPort(port int) *Config {
	c.listenPort = port
	return c
}

func (c *Config) WithBaseURL(baseURL string) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) Build() (Config, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl must be an absolute URL", ErrInvalidConfig)
	}
	if c.listenPort < 1 || c.listenPort > 65535 {
		return Config{}, fmt.Errorf("%w: listenPort must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.cacheTTL <= 0 {
		return Config{}, fmt.Errorf("%w: cacheTtl must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) ListenHost() string {
	return c.listenHost
}

func (c Config) ListenPort() int {
	return c.listenPort
}

// ListenAddr renders the host and port as a dialable address.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.listenHost, strconv.Itoa(c.listenPort))
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}
