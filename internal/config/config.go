// Package config loads the CLI settings: defaults, then an optional YAML file, then
// FEEDBACKTOOL_* environment overrides (a .env file in the working directory counts).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/feedbacktool/internal/ai"
	"github.com/soaringjerry/feedbacktool/internal/api"
	"github.com/soaringjerry/feedbacktool/internal/logging"
	"github.com/soaringjerry/feedbacktool/internal/services"
	"github.com/soaringjerry/feedbacktool/internal/utils"
)

type Config struct {
	API     APIConfig      `yaml:"api"`
	Locale  string         `yaml:"locale" env:"FEEDBACKTOOL_LOCALE"`
	Store   StoreConfig    `yaml:"store"`
	Log     logging.Config `yaml:"log"`
	Builder BuilderConfig  `yaml:"builder"`
	AI      ai.Config      `yaml:"ai"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"FEEDBACKTOOL_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"FEEDBACKTOOL_API_TIMEOUT"`
	// AllowInsecureHTTP permits bearer tokens over plain http to non-loopback hosts.
	AllowInsecureHTTP bool   `yaml:"allow_insecure_http" env:"FEEDBACKTOOL_ALLOW_INSECURE_HTTP"`
	UserAgent         string `yaml:"user_agent" env:"FEEDBACKTOOL_USER_AGENT"`
}

type StoreConfig struct {
	Path          string `yaml:"path" env:"FEEDBACKTOOL_STORE_PATH"`
	Secret        string `yaml:"secret" env:"FEEDBACKTOOL_STORE_SECRET"`
	MigrationsDir string `yaml:"migrations_dir" env:"FEEDBACKTOOL_MIGRATIONS_DIR"`
	// LegacySessionFile is imported once into an empty store.
	LegacySessionFile string `yaml:"legacy_session_file" env:"FEEDBACKTOOL_LEGACY_SESSION_FILE"`
}

type BuilderConfig struct {
	RatingCreation   services.RatingPolicy `yaml:"rating_creation"`
	RatingEdit       services.RatingPolicy `yaml:"rating_edit"`
	AutosaveInterval time.Duration         `yaml:"autosave_interval" env:"FEEDBACKTOOL_AUTOSAVE_INTERVAL"`
}

const appDir = "feedbacktool"

// Load reads .env (if present), then path (if set), then the environment, and validates.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		if err := loadYAML(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := overrideStructWithEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in settings. Local state lives under the user config directory.
func Default() *Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, appDir)
	return &Config{
		API: APIConfig{
			BaseURL:   api.DefaultBaseURL,
			Timeout:   30 * time.Second,
			UserAgent: "feedbacktool",
		},
		Store: StoreConfig{
			Path:              filepath.Join(dir, "feedbacktool.db"),
			LegacySessionFile: filepath.Join(dir, "session.json"),
		},
		Log: logging.Config{
			Level: "info",
			Dir:   filepath.Join(dir, "logs"),
		},
		Builder: BuilderConfig{
			RatingCreation:   services.CreationRatingPolicy,
			RatingEdit:       services.EditRatingPolicy,
			AutosaveInterval: services.DefaultAutosaveInterval,
		},
		AI: ai.Config{Provider: ai.ProviderGemini},
	}
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overrideStructWithEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		ft := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := overrideStructWithEnv(field); err != nil {
				return err
			}
			continue
		}
		key := ft.Tag.Get("env")
		if key == "" {
			continue
		}
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			continue
		}
		if err := setFromString(field, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func setFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q", value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration %q", value)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store path is required")
	}
	if err := validatePolicy("rating_creation", c.Builder.RatingCreation); err != nil {
		return err
	}
	if err := validatePolicy("rating_edit", c.Builder.RatingEdit); err != nil {
		return err
	}
	if c.Builder.AutosaveInterval < time.Second {
		return errors.New("builder autosave_interval must be at least 1s")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.AI.Provider)) {
	case "", ai.ProviderGemini, ai.ProviderOpenAI:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	return nil
}

func validatePolicy(name string, p services.RatingPolicy) error {
	if p.MinScale < 2 || p.MaxScale < p.MinScale {
		return fmt.Errorf("builder %s: scale bounds %d-%d are invalid", name, p.MinScale, p.MaxScale)
	}
	if p.DefaultScale < p.MinScale || p.DefaultScale > p.MaxScale {
		return fmt.Errorf("builder %s: default scale %d is outside %d-%d", name, p.DefaultScale, p.MinScale, p.MaxScale)
	}
	return nil
}

// ResolvedLocale picks the configured locale, then the system locale, then English.
func (c *Config) ResolvedLocale() string {
	return utils.DetermineLocale(c.Locale, utils.SystemLocale(), utils.SupportedLocales, "en")
}
