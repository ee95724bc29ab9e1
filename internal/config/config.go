package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Cache backends understood by the CLI.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
	CacheBackendMemory = "memory"
)

type Config struct {
	//===============
	// Endpoints
	//===============
	// Base of the JSON API, method names are appended to it
	apiBaseURL url.URL
	// Base of the website used for login, submit and status pages
	webBaseURL url.URL
	// User agent sent with every request
	userAgent string
	// Maximum time of a single HTTP exchange
	timeout time.Duration

	//===============
	// Cache
	//===============
	cacheDir     string
	cacheTTL     time.Duration
	cacheBackend string

	//===============
	// Retry and pacing
	//===============
	// total attempts for a transport-failing API call, first try included
	maxAttempt int
	// delay after the first failed attempt, doubled (by multiplier) afterwards
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	// zero means uncapped
	backoffMaxDuration time.Duration
	jitter             time.Duration
	randomSeed         int64
	// minimum spacing between two API calls
	apiMinInterval time.Duration

	//===============
	// Verdict polling
	//===============
	pollInterval    time.Duration
	pollMaxAttempts int

	//===============
	// Submission
	//===============
	// programTypeId sent with the submit form
	languageID string
	tabSize    int
	// prepended to the signature base string; empty by default
	signaturePrefix string

	//===============
	// Local files
	//===============
	templateDir string
	sessionFile string
	outputDir   string
}

type configDTO struct {
	APIBaseURL             string        `json:"apiBaseUrl,omitempty"`
	WebBaseURL             string        `json:"webBaseUrl,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	CacheDir               string        `json:"cacheDir,omitempty"`
	CacheTTL               time.Duration `json:"cacheTtl,omitempty"`
	CacheBackend           string        `json:"cacheBackend,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	APIMinInterval         time.Duration `json:"apiMinInterval,omitempty"`
	PollInterval           time.Duration `json:"pollInterval,omitempty"`
	PollMaxAttempts        int           `json:"pollMaxAttempts,omitempty"`
	LanguageID             string        `json:"languageId,omitempty"`
	TabSize                int           `json:"tabSize,omitempty"`
	SignaturePrefix        string        `json:"signaturePrefix,omitempty"`
	TemplateDir            string        `json:"templateDir,omitempty"`
	SessionFile            string        `json:"sessionFile,omitempty"`
	OutputDir              string        `json:"outputDir,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	// Start with default config, only override what the file sets
	cfg := WithDefault()

	if dto.APIBaseURL != "" {
		u, err := parseBaseURL(dto.APIBaseURL)
		if err != nil {
			return Config{}, err
		}
		cfg.apiBaseURL = u
	}
	if dto.WebBaseURL != "" {
		u, err := parseBaseURL(dto.WebBaseURL)
		if err != nil {
			return Config{}, err
		}
		cfg.webBaseURL = u
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.CacheDir != "" {
		cfg.cacheDir = dto.CacheDir
	}
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}
	if dto.CacheBackend != "" {
		cfg.cacheBackend = dto.CacheBackend
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
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
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.APIMinInterval != 0 {
		cfg.apiMinInterval = dto.APIMinInterval
	}
	if dto.PollInterval != 0 {
		cfg.pollInterval = dto.PollInterval
	}
	if dto.PollMaxAttempts != 0 {
		cfg.pollMaxAttempts = dto.PollMaxAttempts
	}
	if dto.LanguageID != "" {
		cfg.languageID = dto.LanguageID
	}
	if dto.TabSize != 0 {
		cfg.tabSize = dto.TabSize
	}
	// empty is the meaningful default, so the DTO value is taken as-is
	cfg.signaturePrefix = dto.SignaturePrefix
	if dto.TemplateDir != "" {
		cfg.templateDir = dto.TemplateDir
	}
	if dto.SessionFile != "" {
		cfg.sessionFile = dto.SessionFile
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}

	return cfg.Build()
}

// WithConfigFile loads a JSON config file on top of the defaults.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	if err := k.UnmarshalWithConf("", &cfgDTO, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config populated with the judge's public endpoints
// and the default politeness, cache and polling settings.
func WithDefault() *Config {
	apiBase, _ := url.Parse("https://codeforces.com/api/")
	webBase, _ := url.Parse("https://codeforces.com/")
	defaultConfig := Config{
		apiBaseURL:             *apiBase,
		webBaseURL:             *webBase,
		userAgent:              "cfcli/1.0",
		timeout:                30 * time.Second,
		cacheDir:               "~/.cfcli/cache",
		cacheTTL:               300 * time.Second,
		cacheBackend:           CacheBackendFile,
		maxAttempt:             3,
		backoffInitialDuration: time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     0,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		apiMinInterval:         2 * time.Second,
		pollInterval:           2 * time.Second,
		pollMaxAttempts:        10,
		languageID:             "54",
		tabSize:                4,
		signaturePrefix:        "",
		templateDir:            "~/.cfcli/templates",
		sessionFile:            "~/.cfcli/session.json",
		outputDir:              ".",
	}
	return &defaultConfig
}

func (c *Config) WithAPIBaseURL(u url.URL) *Config {
	c.apiBaseURL = u
	return c
}

func (c *Config) WithWebBaseURL(u url.URL) *Config {
	c.webBaseURL = u
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

func (c *Config) WithCacheDir(dir string) *Config {
	c.cacheDir = dir
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithCacheBackend(backend string) *Config {
	c.cacheBackend = backend
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
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

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithAPIMinInterval(interval time.Duration) *Config {
	c.apiMinInterval = interval
	return c
}

func (c *Config) WithPollInterval(interval time.Duration) *Config {
	c.pollInterval = interval
	return c
}

func (c *Config) WithPollMaxAttempts(attempts int) *Config {
	c.pollMaxAttempts = attempts
	return c
}

func (c *Config) WithLanguageID(id string) *Config {
	c.languageID = id
	return c
}

func (c *Config) WithTabSize(size int) *Config {
	c.tabSize = size
	return c
}

func (c *Config) WithSignaturePrefix(prefix string) *Config {
	c.signaturePrefix = prefix
	return c
}

func (c *Config) WithTemplateDir(dir string) *Config {
	c.templateDir = dir
	return c
}

func (c *Config) WithSessionFile(path string) *Config {
	c.sessionFile = path
	return c
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) Build() (Config, error) {
	if c.apiBaseURL.Scheme == "" || c.apiBaseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: apiBaseUrl must be absolute", ErrInvalidConfig)
	}
	if c.webBaseURL.Scheme == "" || c.webBaseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: webBaseUrl must be absolute", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.pollMaxAttempts < 1 {
		return Config{}, fmt.Errorf("%w: pollMaxAttempts must be at least 1", ErrInvalidConfig)
	}
	if c.cacheTTL <= 0 {
		return Config{}, fmt.Errorf("%w: cacheTtl must be positive", ErrInvalidConfig)
	}
	switch c.cacheBackend {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendMemory:
	default:
		return Config{}, fmt.Errorf("%w: unknown cacheBackend %q", ErrInvalidConfig, c.cacheBackend)
	}
	if c.tabSize < 1 {
		return Config{}, fmt.Errorf("%w: tabSize must be at least 1", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.languageID) == "" {
		return Config{}, fmt.Errorf("%w: languageId cannot be empty", ErrInvalidConfig)
	}
	return *c, nil
}

func parseBaseURL(raw string) (url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return *u, nil
}

func (c Config) APIBaseURL() url.URL {
	return c.apiBaseURL
}

func (c Config) WebBaseURL() url.URL {
	return c.webBaseURL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) CacheDir() string {
	return c.cacheDir
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) CacheBackend() string {
	return c.cacheBackend
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
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

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) APIMinInterval() time.Duration {
	return c.apiMinInterval
}

func (c Config) PollInterval() time.Duration {
	return c.pollInterval
}

func (c Config) PollMaxAttempts() int {
	return c.pollMaxAttempts
}

func (c Config) LanguageID() string {
	return c.languageID
}

func (c Config) TabSize() int {
	return c.tabSize
}

func (c Config) SignaturePrefix() string {
	return c.signaturePrefix
}

func (c Config) TemplateDir() string {
	return c.templateDir
}

func (c Config) SessionFile() string {
	return c.sessionFile
}

func (c Config) OutputDir() string {
	return c.outputDir
}
