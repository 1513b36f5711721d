// Package config loads the project configuration: which directory holds
// the locale files, the source language, the translation service and how
// fast to call it.
//
// Values are layered: built-in defaults, then the first config file found
// in the project root, then a .env file in the root, then I18N_* variables
// from the process environment. CLI flags are applied on top by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/i18nsync/translate"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "I18N_"

// DotEnvFile is read from the project root when present.
const DotEnvFile = ".env"

// FileNames lists the config file names tried in order; the first one that
// exists is used.
var FileNames = []string{
	"i18n.config.yaml",
	"i18n.config.yml",
	"i18n.config.json",
	"i18n.config.toml",
	"translation.config.yaml",
	"translation.config.yml",
	"translation.config.json",
	"translation.config.toml",
}

// RateLimiting paces calls to the translation service.
type RateLimiting struct {
	// BatchSize is the number of keys translated concurrently.
	BatchSize int `yaml:"batchSize" json:"batchSize" toml:"batchSize" env:"BATCH_SIZE"`
	// DelayBetweenBatches is the pause between batches in milliseconds.
	DelayBetweenBatches int `yaml:"delayBetweenBatches" json:"delayBetweenBatches" toml:"delayBetweenBatches" env:"DELAY_BETWEEN_BATCHES"`
}

// Config is the effective configuration.
type Config struct {
	// LocalesPath is the locale directory, relative to the project root.
	LocalesPath string `yaml:"localesPath" json:"localesPath" toml:"localesPath" env:"LOCALES_PATH"`
	// DefaultSourceLang is used when a command names no source language.
	DefaultSourceLang string `yaml:"defaultSourceLang" json:"defaultSourceLang" toml:"defaultSourceLang" env:"DEFAULT_SOURCE_LANG"`
	// TranslationService is google-free or openai.
	TranslationService string `yaml:"translationService" json:"translationService" toml:"translationService" env:"TRANSLATION_SERVICE"`
	// FilePattern names locale files; "{lang}" is the language code.
	FilePattern string `yaml:"filePattern" json:"filePattern" toml:"filePattern" env:"FILE_PATTERN"`
	// ExcludeFiles are file names or glob patterns ignored by detection.
	ExcludeFiles []string `yaml:"excludeFiles" json:"excludeFiles" toml:"excludeFiles" env:"EXCLUDE_FILES"`

	RateLimiting RateLimiting `yaml:"rateLimiting" json:"rateLimiting" toml:"rateLimiting" envPrefix:"RATE_LIMITING_"`

	// APIBaseURL, Model and APIKey configure the openai service.
	APIBaseURL string `yaml:"apiBaseUrl,omitempty" json:"apiBaseUrl,omitempty" toml:"apiBaseUrl,omitempty" env:"API_BASE_URL"`
	Model      string `yaml:"model,omitempty" json:"model,omitempty" toml:"model,omitempty" env:"MODEL"`
	APIKey     string `yaml:"apiKey,omitempty" json:"apiKey,omitempty" toml:"apiKey,omitempty" env:"API_KEY"`
	// Proxy is an HTTP/HTTPS proxy URL for API requests.
	Proxy string `yaml:"proxy,omitempty" json:"proxy,omitempty" toml:"proxy,omitempty" env:"PROXY"`
	// Timeout is the per-request timeout in seconds (0 = service default).
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" toml:"timeout,omitempty" env:"TIMEOUT"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"logLevel" json:"logLevel" toml:"logLevel" env:"LOG_LEVEL"`

	// Source is the config file that was read, empty when none was found.
	Source string `yaml:"-" json:"-" toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LocalesPath:        "./src/i18n/locales",
		DefaultSourceLang:  "en",
		TranslationService: translate.ServiceGoogleFree,
		FilePattern:        "{lang}.json",
		ExcludeFiles:       []string{},
		RateLimiting: RateLimiting{
			BatchSize:           25,
			DelayBetweenBatches: 1000,
		},
		LogLevel: "info",
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load builds the configuration for the project at rootDir. A missing config
// file is not an error; an unreadable or malformed one is. The result is
// validated.
func Load(rootDir string) (*Config, error) {
	cfg := Default()

	path, err := Find(rootDir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(rootDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first config file present in rootDir, or "".
func Find(rootDir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(rootDir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", nil
}

// readFile decodes path over c; fields absent from the file keep their
// current values.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".json":
		err = json.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays I18N_* variables. Variables from the process
// environment win over those in rootDir/.env.
func (c *Config) applyEnv(rootDir string) error {
	vars := map[string]string{}

	dotenv := filepath.Join(rootDir, DotEnvFile)
	fileVars, err := godotenv.Read(dotenv)
	switch {
	case err == nil:
		vars = fileVars
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading %s: %w", dotenv, err)
	}
	maps.Copy(vars, env.ToMap(os.Environ()))

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LocalesPath) == "" {
		errs = append(errs, errors.New("localesPath must not be empty"))
	}
	// Any file stem names a source ("english" for english.json); only codes
	// given to add-language must be BCP 47.
	if lang := strings.TrimSpace(c.DefaultSourceLang); lang == "" || strings.ContainsAny(lang, `/\`) {
		errs = append(errs, fmt.Errorf("defaultSourceLang %q must be a file name stem", c.DefaultSourceLang))
	}
	if !slices.Contains(translate.Services(), c.TranslationService) {
		errs = append(errs, fmt.Errorf("translationService %q is not one of: %s",
			c.TranslationService, strings.Join(translate.Services(), ", ")))
	}
	if !strings.Contains(c.FilePattern, "{lang}") || !strings.HasSuffix(c.FilePattern, ".json") {
		errs = append(errs, fmt.Errorf("filePattern %q must contain {lang} and end in .json", c.FilePattern))
	}
	if c.RateLimiting.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("rateLimiting.batchSize must be positive, got %d", c.RateLimiting.BatchSize))
	}
	if c.RateLimiting.DelayBetweenBatches < 0 {
		errs = append(errs, fmt.Errorf("rateLimiting.delayBetweenBatches must not be negative, got %d", c.RateLimiting.DelayBetweenBatches))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %d", c.Timeout))
	}
	// apiBaseUrl may also come from the credential store, so it is checked
	// when the translator is built.
	if c.TranslationService == translate.ServiceOpenAI && c.Model == "" {
		errs = append(errs, errors.New("model is required for the openai service"))
	}
	return errors.Join(errs...)
}

// LocalesDir resolves LocalesPath against rootDir.
func (c *Config) LocalesDir(rootDir string) string {
	if filepath.IsAbs(c.LocalesPath) {
		return filepath.Clean(c.LocalesPath)
	}
	return filepath.Join(rootDir, c.LocalesPath)
}
