// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/qa-assistant/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete qa-assistant configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	API       APIConfig       `toml:"api" json:"api" yaml:"api"`
	Cache     CacheConfig     `toml:"cache" json:"cache" yaml:"cache"`
	Analytics AnalyticsConfig `toml:"analytics" json:"analytics" yaml:"analytics"`
	Storage   StorageConfig   `toml:"storage" json:"storage" yaml:"storage"`
	Logging   LoggingConfig   `toml:"logging" json:"logging" yaml:"logging"`
	UI        UIConfig        `toml:"ui" json:"ui" yaml:"ui"`
	Metrics   MetricsConfig   `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// APIConfig describes how to reach the QA Assistant backend.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. http://localhost:8080.
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`

	// AssistantPath is the prefix of the assistant endpoints.
	AssistantPath string `toml:"assistant_path" json:"assistant_path" yaml:"assistant_path"`

	// TimeoutSecs bounds every request. The backend can take a while to
	// generate SQL, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`

	// RequestsPerSecond throttles outbound requests. 0 disables the limiter.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst" yaml:"burst"`

	// Offline answers only from the local cache and never touches the network.
	Offline bool `toml:"offline" json:"offline" yaml:"offline"`
}

// CacheConfig contains local response cache configuration.
type CacheConfig struct {
	Enabled    bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	MaxEntries int  `toml:"max_entries" json:"max_entries" yaml:"max_entries"`
	TTLHours   int  `toml:"ttl_hours" json:"ttl_hours" yaml:"ttl_hours"`
}

// AnalyticsConfig bounds the local query and error logs.
type AnalyticsConfig struct {
	QueryLogSize int `toml:"query_log_size" json:"query_log_size" yaml:"query_log_size"`
	ErrorLogSize int `toml:"error_log_size" json:"error_log_size" yaml:"error_log_size"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	// Backend is one of file, sqlite, redis, memory.
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Path is the file or database path for file and sqlite backends.
	// Empty means a default location under the config directory.
	Path string `toml:"path" json:"path" yaml:"path"`

	RedisAddr     string `toml:"redis_addr" json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" json:"redis_db" yaml:"redis_db"`

	// Namespace prefixes every key so several profiles can share a backend.
	Namespace string `toml:"namespace" json:"namespace" yaml:"namespace"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	// File receives TUI logs. Empty means qa-assistant.log in the config dir.
	File string `toml:"file" json:"file" yaml:"file"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme" yaml:"theme"`
	Locale      string `toml:"locale" json:"locale" yaml:"locale"`
	RefreshSecs int    `toml:"refresh_secs" json:"refresh_secs" yaml:"refresh_secs"`
	ShowSQL     bool   `toml:"show_sql" json:"show_sql" yaml:"show_sql"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr serves /metrics when non-empty (e.g. 127.0.0.1:9464).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default values shared with other packages.
const (
	DefaultBaseURL       = "http://localhost:8080"
	DefaultAssistantPath = "/api/qa-assistant"
	DefaultTimeoutSecs   = 60
	DefaultMaxEntries    = 100
	DefaultTTLHours      = 24
	DefaultQueryLogSize  = 50
	DefaultErrorLogSize  = 100
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			AssistantPath:     DefaultAssistantPath,
			TimeoutSecs:       DefaultTimeoutSecs,
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: DefaultMaxEntries,
			TTLHours:   DefaultTTLHours,
		},
		Analytics: AnalyticsConfig{
			QueryLogSize: DefaultQueryLogSize,
			ErrorLogSize: DefaultErrorLogSize,
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			Namespace: "qa",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			Theme:       "auto",
			Locale:      "en",
			RefreshSecs: 0,
			ShowSQL:     true,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSecs <= 0 {
		return DefaultTimeoutSecs * time.Second
	}
	return time.Duration(a.TimeoutSecs) * time.Second
}

// AssistantURL returns the full URL of the assistant endpoint prefix.
func (a APIConfig) AssistantURL() string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.Trim(a.AssistantPath, "/")
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the qa-assistant configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".qa-assistant"), nil
}

func pathIn(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return pathIn("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return pathIn("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return pathIn("config.yaml") }

// ActivePath returns the first config file that exists, or the TOML path
// when none does.
func ActivePath() (string, error) {
	for _, fn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON, ConfigPathYAML} {
		p, err := fn()
		if err != nil {
			return "", err
		}
		if _, statErr := os.Stat(p); statErr == nil {
			return p, nil
		}
	}
	return ConfigPathTOML()
}

// DefaultStoragePath returns the store location for the file and sqlite backends.
func (c *Config) DefaultStoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	if c.Storage.Backend == BackendSQLite {
		return pathIn("store.db")
	}
	return pathIn("store.json")
}

// LogFilePath returns where the TUI writes its log.
func (c *Config) LogFilePath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	return pathIn("qa-assistant.log")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files may hold the Redis password; keep them 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, then YAML, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format is chosen from the file extension; TOML otherwise.
func LoadFromPath(path string) (*Config, error) {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := decode(cfg, path, data); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(cfg *Config, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to decode TOML: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the active config file, TOML by default.
func Save(cfg *Config) error {
	path, err := ActivePath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration in the format implied by the extension.
// SECURITY: Config files are written with 0600 permissions.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveToPath(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var buf bytes.Buffer
		buf.WriteString("# qa-assistant configuration file\n")
		buf.WriteString("# Generated by qa-assistant - edit with care\n\n")
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// API Settings Validation
	// ==========================================================================

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", c.API.BaseURL),
		})
	}
	if !strings.HasPrefix(c.API.AssistantPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "api.assistant_path",
			Message: fmt.Sprintf("must start with '/', got %q", c.API.AssistantPath),
		})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.API.TimeoutSecs),
		})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_second",
			Message: "cannot be negative",
		})
	}
	if c.API.Burst < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.burst",
			Message: "cannot be negative",
		})
	}

	// ==========================================================================
	// Cache and Analytics Validation
	// ==========================================================================

	if c.Cache.MaxEntries < 1 || c.Cache.MaxEntries > 100000 {
		errs = append(errs, ValidationError{
			Field:   "cache.max_entries",
			Message: fmt.Sprintf("must be 1-100000, got %d", c.Cache.MaxEntries),
		})
	}
	if c.Cache.TTLHours < 1 {
		errs = append(errs, ValidationError{
			Field:   "cache.ttl_hours",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Cache.TTLHours),
		})
	}
	if c.Analytics.QueryLogSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "analytics.query_log_size",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Analytics.QueryLogSize),
		})
	}
	if c.Analytics.ErrorLogSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "analytics.error_log_size",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Analytics.ErrorLogSize),
		})
	}

	// ==========================================================================
	// Storage Validation
	// ==========================================================================

	validBackends := map[string]bool{
		BackendFile: true, BackendSQLite: true, BackendRedis: true, BackendMemory: true,
	}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, redis, memory", c.Storage.Backend),
		})
	}
	if strings.EqualFold(c.Storage.Backend, BackendRedis) && c.Storage.RedisAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_addr",
			Message: "required when storage.backend is redis",
		})
	}
	if c.Storage.RedisDB < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_db",
			Message: "cannot be negative",
		})
	}

	// ==========================================================================
	// Logging and UI Validation
	// ==========================================================================

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be console or json", c.Logging.Format),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true, "mono": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto, mono", c.UI.Theme),
		})
	}
	if c.UI.RefreshSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.refresh_secs",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.AssistantPath == "" {
		c.API.AssistantPath = defaults.API.AssistantPath
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.Burst == 0 {
		c.API.Burst = defaults.API.Burst
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaults.Cache.MaxEntries
	}
	if c.Cache.TTLHours == 0 {
		c.Cache.TTLHours = defaults.Cache.TTLHours
	}
	if c.Analytics.QueryLogSize == 0 {
		c.Analytics.QueryLogSize = defaults.Analytics.QueryLogSize
	}
	if c.Analytics.ErrorLogSize == 0 {
		c.Analytics.ErrorLogSize = defaults.Analytics.ErrorLogSize
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = defaults.Storage.RedisAddr
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = defaults.Storage.Namespace
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.Locale == "" {
		c.UI.Locale = defaults.UI.Locale
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - QA_ASSISTANT_BASE_URL: overrides api.base_url
//   - QA_ASSISTANT_TIMEOUT: overrides api.timeout_secs
//   - QA_ASSISTANT_OFFLINE: set to "1" or "true" to answer from cache only
//   - QA_ASSISTANT_STORAGE: overrides storage.backend
//   - QA_ASSISTANT_STORAGE_PATH: overrides storage.path
//   - QA_ASSISTANT_REDIS_ADDR: overrides storage.redis_addr
//   - QA_ASSISTANT_REDIS_PASSWORD: overrides storage.redis_password
//   - QA_ASSISTANT_LOG_LEVEL: overrides logging.level
//
// The same variables may be set in ~/.qa-assistant/.env; the process
// environment wins.
func (c *Config) ApplyEnvOverrides() {
	getenv := envLookup()
	if v := getenv("QA_ASSISTANT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv("QA_ASSISTANT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring QA_ASSISTANT_TIMEOUT=%q: not an integer\n", v)
		}
	}
	if v := getenv("QA_ASSISTANT_OFFLINE"); v != "" {
		c.API.Offline = v == "1" || strings.ToLower(v) == "true"
	}
	if v := getenv("QA_ASSISTANT_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := getenv("QA_ASSISTANT_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := getenv("QA_ASSISTANT_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := getenv("QA_ASSISTANT_REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := getenv("QA_ASSISTANT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// envLookup reads ~/.qa-assistant/.env once and returns a getter that
// prefers non-empty process variables.
func envLookup() func(string) string {
	var file map[string]string
	if path, err := pathIn(".env"); err == nil {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case !errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", path, err)
		}
	}
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return file[key]
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "cache.ttl_hours").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. "ttl_hours" becomes "TtlHours", matched case-insensitively.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.assistant_path",
		"api.timeout_secs",
		"api.requests_per_second",
		"api.burst",
		"api.offline",
		"cache.enabled",
		"cache.max_entries",
		"cache.ttl_hours",
		"analytics.query_log_size",
		"analytics.error_log_size",
		"storage.backend",
		"storage.path",
		"storage.redis_addr",
		"storage.redis_password",
		"storage.redis_db",
		"storage.namespace",
		"logging.level",
		"logging.format",
		"logging.file",
		"ui.theme",
		"ui.locale",
		"ui.refresh_secs",
		"ui.show_sql",
		"metrics.listen_addr",
	}
}

// Clone creates a copy of the configuration. Config holds no maps or
// slices, so a value copy is deep.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: The Redis password is redacted.
func (c *Config) String() string {
	redacted := c.Clone()
	if redacted.Storage.RedisPassword != "" {
		redacted.Storage.RedisPassword = "[REDACTED]"
	}
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
