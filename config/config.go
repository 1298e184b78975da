// Package config assembles the run configuration from defaults, a .env file,
// the process environment and an optional YAML file.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/morikuni/failure/v2"
	"github.com/travelwarn/travelwarn/api/collector"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"gopkg.in/yaml.v3"
)

// ErrorCode defines error types for configuration loading
type ErrorCode string

const (
	ErrConfigNotFound ErrorCode = "ConfigNotFound"
	ErrInvalidConfig  ErrorCode = "InvalidConfig"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRAVELWARN_"

var validate = validator.New()

// Config is everything a scrape run needs.
type Config struct {
	// Endpoint is the DynamicCollector URL
	Endpoint string `yaml:"endpoint" validate:"required,url"`

	// TemplateID selects the travel-warnings collection
	TemplateID uuid.UUID `yaml:"template_id" validate:"required"`

	BatchSize int           `yaml:"batch_size" validate:"gt=0"`
	Pause     time.Duration `yaml:"pause" validate:"gte=0"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" validate:"required"`

	// Output is the snapshot path, replaced on every successful run
	Output string `yaml:"output" validate:"required"`

	// LookupPath overrides the bundled lookup tables when set
	LookupPath string `yaml:"lookup" validate:"omitempty,file"`

	// MetricsFile is a node-exporter textfile written after each run when set
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint:   collector.DefaultEndpoint,
		TemplateID: collector.DefaultTemplateID,
		BatchSize:  collector.DefaultBatchSize,
		Pause:      collector.DefaultPause,
		Timeout:    collector.DefaultTimeout,
		UserAgent:  collector.DefaultUserAgent,
		Output:     snapshot.DefaultPath,
	}
}

// CollectorOptions maps the config onto collector options.
func (c Config) CollectorOptions() collector.Options {
	return collector.Options{
		Endpoint:   c.Endpoint,
		TemplateID: c.TemplateID,
		BatchSize:  c.BatchSize,
		Pause:      c.Pause,
		Timeout:    c.Timeout,
		UserAgent:  c.UserAgent,
	}
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return failure.Wrap(err, failure.WithCode(ErrInvalidConfig),
			failure.Message("Invalid configuration"),
		)
	}
	return nil
}

// Load builds a configuration: defaults, then envFile (if it exists), then the
// process environment, then the YAML file at path (if path is not empty).
// The result is not validated; callers apply flags first and then Validate.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	env := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, failure.Wrap(err, failure.Context{"path": envFile})
		}
		for k, v := range m {
			env[k] = v
		}
	}
	// An empty process variable counts as unset so the env file still applies.
	lookupEnv := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookupEnv); err != nil {
		return cfg, err
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure.New(ErrConfigNotFound,
				failure.Message("Configuration file not found"),
				failure.Context{"path": path},
			)
		}
		return failure.Wrap(err)
	}
	// Fields absent from the file keep their current values.
	if err := yaml.Unmarshal(b, c); err != nil {
		return failure.Wrap(err, failure.WithCode(ErrInvalidConfig),
			failure.Message("Configuration file is not valid YAML"),
			failure.Context{"path": path},
		)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ENDPOINT", &c.Endpoint)
	str("USER_AGENT", &c.UserAgent)
	str("OUTPUT", &c.Output)
	str("LOOKUP", &c.LookupPath)
	str("METRICS_FILE", &c.MetricsFile)

	invalid := func(name, value string, err error) error {
		return failure.Wrap(err, failure.WithCode(ErrInvalidConfig),
			failure.Message("Invalid environment variable "+EnvPrefix+name),
			failure.Context{"value": value},
		)
	}

	if v, ok := lookup(EnvPrefix + "TEMPLATE_ID"); ok && v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return invalid("TEMPLATE_ID", v, err)
		}
		c.TemplateID = id
	}
	if v, ok := lookup(EnvPrefix + "BATCH_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return invalid("BATCH_SIZE", v, err)
		}
		c.BatchSize = n
	}
	for name, dst := range map[string]*time.Duration{"PAUSE": &c.Pause, "TIMEOUT": &c.Timeout} {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return invalid(name, v, err)
			}
			*dst = d
		}
	}
	return nil
}
