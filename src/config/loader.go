package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// EnvPrefix prefixes every threadchat environment variable.
const EnvPrefix = "THREADCHAT_"

// Options selects the sources Load reads.
type Options struct {
	// ConfigFile must exist when set; otherwise DefaultConfigPaths are probed.
	ConfigFile string

	// DotEnvFile defaults to ".env" in the working directory. A missing
	// file is not an error.
	DotEnvFile string

	// Overrides are applied last, after the environment.
	Overrides Overrides
}

// Overrides carries command line flags. Empty fields are ignored.
type Overrides struct {
	Provider  string
	Model     string
	DBPath    string
	LogLevel  string
	LogFormat string
}

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	fs        afero.Fs
	lookupEnv func(string) (string, bool)
	validator *Validator
}

// NewLoader creates a loader reading files from fs and the process environment.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{
		fs:        fs,
		lookupEnv: os.LookupEnv,
		validator: NewValidator(),
	}
}

// WithLookupEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithLookupEnv(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// Load reads the configuration from the real filesystem.
func Load(opts Options) (*Config, error) {
	return NewLoader(afero.NewOsFs()).Load(opts)
}

// Load merges defaults, the config file, the .env file, the environment and
// opts.Overrides, in that order, and validates the result.
func (l *Loader) Load(opts Options) (*Config, error) {
	config := DefaultConfig()

	if opts.ConfigFile != "" {
		if err := l.loadFile(opts.ConfigFile, config); err != nil {
			return nil, &Error{Source: opts.ConfigFile, Err: err}
		}
	} else {
		for _, path := range DefaultConfigPaths() {
			err := l.loadFile(path, config)
			if err == nil || errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &Error{Source: path, Err: err}
		}
	}

	dotenvPath := opts.DotEnvFile
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	dotenv, err := l.readDotEnv(dotenvPath)
	if err != nil {
		return nil, &Error{Source: dotenvPath, Err: err}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := applyEnvironment(config, lookup); err != nil {
		return nil, &Error{Source: "environment", Err: err}
	}
	applyOverrides(config, opts.Overrides)

	if config.API.APIKey == "" {
		config.API.APIKey, _ = lookup(APIKeyEnvVar(config.API.Provider))
	}
	if config.Tools.AlphaVantageAPIKey == "" {
		config.Tools.AlphaVantageAPIKey, _ = lookup("ALPHAVANTAGE_API_KEY")
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, &Error{Source: "validation", Err: err}
	}
	return config, nil
}

// loadFile decodes path over config; keys absent from the file keep their
// current values.
func (l *Loader) loadFile(path string, config *Config) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), config); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (l *Loader) readDotEnv(path string) (map[string]string, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .env: %w", err)
	}
	return values, nil
}

func applyEnvironment(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PROVIDER":      &config.API.Provider,
		"MODEL":         &config.API.Model,
		"BASE_URL":      &config.API.BaseURL,
		"API_KEY":       &config.API.APIKey,
		"SYSTEM_PROMPT": &config.Agent.SystemPrompt,
		"DB":            &config.Storage.Path,
		"POSTGRES_URL":  &config.Storage.PostgresURL,
		"ADDR":          &config.Server.Addr,
		"LOG_LEVEL":     &config.Log.Level,
		"LOG_FORMAT":    &config.Log.Format,
		"SEARCH_REGION": &config.Tools.SearchRegion,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_ROUNDS":         &config.Agent.MaxRounds,
		"MAX_PARALLEL_TOOLS": &config.Agent.MaxParallelTools,
		"MAX_RETRIES":        &config.API.MaxRetries,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid integer %q", EnvPrefix, name, v)
		}
		*dst = n
	}

	durations := map[string]*Duration{
		"MODEL_TIMEOUT": &config.Agent.ModelTimeout,
		"TOOL_TIMEOUT":  &config.Agent.ToolTimeout,
		"API_TIMEOUT":   &config.API.Timeout,

		"REQUEST_TIMEOUT": &config.Server.RequestTimeout,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid duration %q", EnvPrefix, name, v)
		}
		*dst = Duration(d)
	}

	if v, ok := lookup(EnvPrefix + "TOOLS"); ok && v != "" {
		config.Tools.Enabled = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		config.Server.CORSOrigins = splitList(v)
	}
	return nil
}

func applyOverrides(config *Config, o Overrides) {
	if o.Provider != "" {
		config.API.Provider = o.Provider
	}
	if o.Model != "" {
		config.API.Model = o.Model
	}
	if o.DBPath != "" {
		config.Storage.Path = o.DBPath
	}
	if o.LogLevel != "" {
		config.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		config.Log.Format = o.LogFormat
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
